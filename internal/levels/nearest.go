package levels

import "cryptoPulseBot/internal/domain"

// Nearest finds the closest support zone strictly below price and the closest
// resistance zone strictly above it. Distances are percentages of price.
func Nearest(zones []domain.Zone, price float64) domain.NearestZones {
	var res domain.NearestZones
	if price <= 0 {
		return res
	}
	for i := range zones {
		z := zones[i]
		switch {
		case z.Kind == domain.ZoneSupport && z.Price < price:
			if res.Support == nil || z.Price > res.Support.Price {
				res.Support = &z
			}
		case z.Kind == domain.ZoneResistance && z.Price > price:
			if res.Resistance == nil || z.Price < res.Resistance.Price {
				res.Resistance = &z
			}
		}
	}
	if res.Support != nil {
		res.DistToSupportPct = (price - res.Support.Price) / price * 100
	}
	if res.Resistance != nil {
		res.DistToResistPct = (res.Resistance.Price - price) / price * 100
	}
	return res
}
