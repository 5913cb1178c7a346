package domain

// ZoneKind tells whether a zone was built from lows or highs.
type ZoneKind string

const (
	ZoneSupport    ZoneKind = "support"
	ZoneResistance ZoneKind = "resistance"
)

// Zone is a clustered price level. Zones carry no identity beyond their fields.
type Zone struct {
	Kind    ZoneKind
	Price   float64 // Mean of the contributing extrema
	Touches int     // Number of contributing extrema
}

// NearestZones holds the closest zones around a reference price.
type NearestZones struct {
	Support          *Zone   // Closest support strictly below the price, nil if none
	Resistance       *Zone   // Closest resistance strictly above the price, nil if none
	DistToSupportPct float64 // Positive percentage distance to Support
	DistToResistPct  float64 // Positive percentage distance to Resistance
}
