// Package risk derives take-profit and stop-loss levels for market reports.
package risk

import (
	"context"
	"fmt"
	"math"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// TargetConfig holds the multipliers used to place targets.
type TargetConfig struct {
	TP1ATRMult float64 // First take-profit distance in ATRs
	TP2ATRMult float64 // Second take-profit distance in ATRs
	SLATRMult  float64 // Stop-loss distance in ATRs
	// MaxZoneDistancePct is the furthest (in percent of price) a zone may be
	// to replace the ATR based level.
	MaxZoneDistancePct float64
	// Percent distances used instead of ATR when ATR is zero.
	StopLossPercent   float64
	TakeProfitPercent float64
}

// DefaultTargetConfig returns 1.5/3 ATR take profits and a 1 ATR stop.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		TP1ATRMult:         1.5,
		TP2ATRMult:         3,
		SLATRMult:          1,
		MaxZoneDistancePct: 5,
		StopLossPercent:    0.02,
		TakeProfitPercent:  0.03,
	}
}

// Validate checks the configuration.
func (c TargetConfig) Validate() error {
	var problems []string
	if c.TP1ATRMult <= 0 || c.TP2ATRMult <= 0 || c.SLATRMult <= 0 {
		problems = append(problems, "ATR multipliers must be positive")
	}
	if c.TP2ATRMult < c.TP1ATRMult {
		problems = append(problems, "TP2 multiplier must not be below TP1 multiplier")
	}
	if c.MaxZoneDistancePct < 0 {
		problems = append(problems, "max zone distance must not be negative")
	}
	if c.StopLossPercent <= 0 || c.StopLossPercent >= 1 || c.TakeProfitPercent <= 0 || c.TakeProfitPercent >= 1 {
		problems = append(problems, "fallback percentages must be between 0 and 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: target config: %v", ports.ErrConfigurationError, problems)
	}
	return nil
}

// TargetCalculator places TP1, TP2 and SL around the current price using the
// nearest clustered zones where they are close enough, and ATR distances
// otherwise.
type TargetCalculator struct {
	config TargetConfig
}

// NewTargetCalculator creates a calculator after validating its configuration.
func NewTargetCalculator(config TargetConfig) (*TargetCalculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TargetCalculator{config: config}, nil
}

// Calculate returns targets for a position in the trend direction.
// Bullish targets sit above price with the stop below; bearish mirror that.
func (t *TargetCalculator) Calculate(_ context.Context, price, atr float64, direction domain.TrendDirection, nearest domain.NearestZones) (domain.Targets, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return domain.Targets{}, fmt.Errorf("%w: price must be positive, got %v", ports.ErrInvalidInput, price)
	}
	if math.IsNaN(atr) || math.IsInf(atr, 0) || atr < 0 {
		return domain.Targets{}, fmt.Errorf("%w: ATR must be non-negative, got %v", ports.ErrInvalidInput, atr)
	}

	isLong := direction != domain.Bearish
	res := domain.Targets{Direction: domain.Bearish}
	if isLong {
		res.Direction = domain.Bullish
	}

	tp1Dist, tp2Dist, slDist := atr*t.config.TP1ATRMult, atr*t.config.TP2ATRMult, atr*t.config.SLATRMult
	if atr == 0 {
		tp1Dist = price * t.config.TakeProfitPercent
		tp2Dist = 2 * tp1Dist
		slDist = price * t.config.StopLossPercent
	}

	// Zones on the profit side and the loss side of the position.
	profitZone, profitDist := nearest.Resistance, nearest.DistToResistPct
	lossZone, lossDist := nearest.Support, nearest.DistToSupportPct
	sign := 1.0
	if !isLong {
		profitZone, profitDist = nearest.Support, nearest.DistToSupportPct
		lossZone, lossDist = nearest.Resistance, nearest.DistToResistPct
		sign = -1
	}

	res.SL = price - sign*slDist
	if lossZone != nil && lossDist <= t.config.MaxZoneDistancePct {
		res.SL = lossZone.Price
	}

	res.TP1 = price + sign*tp1Dist
	if profitZone != nil && profitDist <= t.config.MaxZoneDistancePct {
		res.TP1 = profitZone.Price
	}

	res.TP2 = price + sign*tp2Dist
	if isLong {
		res.TP2 = math.Max(res.TP1, res.TP2)
	} else {
		res.TP2 = math.Min(res.TP1, res.TP2)
		if res.TP2 <= 0 {
			res.TP2 = res.TP1
		}
		if res.TP1 <= 0 {
			res.TP1, res.TP2 = price*(1-t.config.TakeProfitPercent), price*(1-t.config.TakeProfitPercent)
		}
	}
	if res.SL <= 0 {
		res.SL = price * (1 - t.config.StopLossPercent)
	}
	return res, nil
}
