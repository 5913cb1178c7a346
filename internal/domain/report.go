package domain

import "time"

// Sentiment is a market-wide sentiment reading such as the Fear & Greed index.
type Sentiment struct {
	Value          int    // 0 (extreme fear) to 100 (extreme greed)
	Classification string // e.g. "Fear", "Greed"
	Timestamp      time.Time
}

// Report is one market snapshot rendered back to a chat.
type Report struct {
	ID       string
	ChatID   int64
	Symbol   string
	Interval string
	// Label is the user-facing timeframe (e.g. "24h" for the "1d" interval).
	Label string

	Price            float64
	Trend            Trend
	Indicators       IndicatorSnapshot
	RecentSupport    float64 // Lowest low of the recent window
	RecentResistance float64 // Highest high of the recent window
	Zones            []Zone
	Nearest          NearestZones
	Targets          Targets
	Accuracy         float64    // Percent of candles continuing the previous candle's direction
	Sentiment        *Sentiment // nil when the sentiment source is unavailable
	Ticker           *Ticker24h // nil when the ticker could not be fetched
	GeneratedAt      time.Time
}

// SupportZones returns the support zones of the report in engine order.
func (r *Report) SupportZones() []Zone {
	return r.zonesOf(ZoneSupport)
}

// ResistanceZones returns the resistance zones of the report in engine order.
func (r *Report) ResistanceZones() []Zone {
	return r.zonesOf(ZoneResistance)
}

func (r *Report) zonesOf(kind ZoneKind) []Zone {
	out := make([]Zone, 0, len(r.Zones))
	for _, z := range r.Zones {
		if z.Kind == kind {
			out = append(out, z)
		}
	}
	return out
}
