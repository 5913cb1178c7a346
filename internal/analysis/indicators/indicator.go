// Package indicators computes technical indicators over kline series.
package indicators

import (
	"context"
	"fmt"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// Indicator represents a technical indicator that can be calculated from price data
type Indicator interface {
	// Calculate computes the latest indicator value for the given klines
	Calculate(ctx context.Context, klines []*domain.Kline) (float64, error)

	// RequiredDataPoints returns the minimum number of klines needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for single-period indicators
type IndicatorConfig struct {
	Period int
}

func (c IndicatorConfig) validate(name string) error {
	if c.Period < 1 {
		return fmt.Errorf("%w: %s period must be positive, got %d", ports.ErrInvalidInput, name, c.Period)
	}
	return nil
}

func notEnoughData(name string, need, got int) error {
	return fmt.Errorf("%w: not enough data to calculate %s: need %d klines, got %d", ports.ErrInvalidInput, name, need, got)
}

// series projects klines onto their high, low and close prices.
func series(klines []*domain.Kline) (highs, lows, closes []float64) {
	highs = make([]float64, len(klines))
	lows = make([]float64, len(klines))
	closes = make([]float64, len(klines))
	for i, k := range klines {
		highs[i], lows[i], closes[i] = k.High, k.Low, k.Close
	}
	return highs, lows, closes
}

// wilder applies one step of Wilder's smoothing.
func wilder(prev, next float64, period int) float64 {
	p := float64(period)
	return (prev*(p-1) + next) / p
}

// last returns the final element of a talib output series.
func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
