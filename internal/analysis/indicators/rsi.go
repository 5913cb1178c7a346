package indicators

import (
	"context"
	"math"

	"cryptoPulseBot/internal/domain"
)

// RSIConfig holds configuration for the RSI indicator
type RSIConfig struct {
	IndicatorConfig
	Overbought float64
	Oversold   float64
}

// DefaultRSIConfig returns the usual 14 period RSI with 70/30 bands.
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{IndicatorConfig: IndicatorConfig{Period: 14}, Overbought: 70, Oversold: 30}
}

// RSI implements the Relative Strength Index with Wilder's smoothing.
type RSI struct {
	config RSIConfig
}

// NewRSI creates a new RSI indicator instance
func NewRSI(config RSIConfig) (*RSI, error) {
	if err := config.validate("RSI"); err != nil {
		return nil, err
	}
	return &RSI{config: config}, nil
}

func (r *RSI) Name() string { return "RSI" }

// RequiredDataPoints is one more than the period since RSI works on changes.
func (r *RSI) RequiredDataPoints() int { return r.config.Period + 1 }

// Calculate returns the RSI at the last kline.
func (r *RSI) Calculate(_ context.Context, klines []*domain.Kline) (float64, error) {
	period := r.config.Period
	if len(klines) < r.RequiredDataPoints() {
		return 0, notEnoughData(r.Name(), r.RequiredDataPoints(), len(klines))
	}

	var avgGain, avgLoss float64
	for i := 1; i < len(klines); i++ {
		change := klines[i].Close - klines[i-1].Close
		gain, loss := math.Max(change, 0), math.Max(-change, 0)
		switch {
		case i < period:
			avgGain += gain
			avgLoss += loss
		case i == period:
			avgGain = (avgGain + gain) / float64(period)
			avgLoss = (avgLoss + loss) / float64(period)
		default:
			avgGain = wilder(avgGain, gain, period)
			avgLoss = wilder(avgLoss, loss, period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// IsOverbought checks if the RSI value indicates an overbought condition
func (r *RSI) IsOverbought(value float64) bool {
	return value >= r.config.Overbought
}

// IsOversold checks if the RSI value indicates an oversold condition
func (r *RSI) IsOversold(value float64) bool {
	return value <= r.config.Oversold
}
