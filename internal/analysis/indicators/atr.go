package indicators

import (
	"context"
	"math"

	"cryptoPulseBot/internal/domain"
)

// ATR implements the Average True Range with Wilder's smoothing. The first
// true range of the series is the plain high-low range.
type ATR struct {
	period int
}

// NewATR creates a new Average True Range indicator instance
func NewATR(cfg IndicatorConfig) (*ATR, error) {
	if err := cfg.validate("ATR"); err != nil {
		return nil, err
	}
	return &ATR{period: cfg.Period}, nil
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) RequiredDataPoints() int { return a.period + 1 }

// Calculate returns the ATR at the last kline.
func (a *ATR) Calculate(_ context.Context, klines []*domain.Kline) (float64, error) {
	if len(klines) < a.RequiredDataPoints() {
		return 0, notEnoughData(a.Name(), a.RequiredDataPoints(), len(klines))
	}

	atr := 0.0
	for i, k := range klines {
		tr := k.High - k.Low
		if i > 0 {
			prevClose := klines[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(k.High-prevClose), math.Abs(k.Low-prevClose)))
		}
		switch {
		case i < a.period-1:
			atr += tr
		case i == a.period-1:
			atr = (atr + tr) / float64(a.period)
		default:
			atr = wilder(atr, tr, a.period)
		}
	}
	return atr, nil
}
