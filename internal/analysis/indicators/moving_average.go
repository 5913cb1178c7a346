package indicators

import (
	"context"
	"fmt"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	SimpleMovingAverage      MovingAverageType = "SMA"
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverage computes a simple or exponential moving average of closes.
type MovingAverage struct {
	kind   MovingAverageType
	period int
}

// NewMovingAverage creates a moving average of the given type and period.
func NewMovingAverage(kind MovingAverageType, cfg IndicatorConfig) (*MovingAverage, error) {
	if err := cfg.validate(string(kind)); err != nil {
		return nil, err
	}
	if kind != SimpleMovingAverage && kind != ExponentialMovingAverage {
		return nil, fmt.Errorf("%w: unsupported moving average type %q", ports.ErrInvalidInput, kind)
	}
	return &MovingAverage{kind: kind, period: cfg.Period}, nil
}

func (m *MovingAverage) Name() string { return string(m.kind) }

func (m *MovingAverage) RequiredDataPoints() int { return m.period }

// Calculate returns the moving average at the last kline. The EMA is seeded
// with the SMA of the first period closes.
func (m *MovingAverage) Calculate(_ context.Context, klines []*domain.Kline) (float64, error) {
	if len(klines) < m.period {
		return 0, notEnoughData(m.Name(), m.period, len(klines))
	}
	_, _, closes := series(klines)

	if m.kind == SimpleMovingAverage {
		return mean(closes[len(closes)-m.period:]), nil
	}

	alpha := 2.0 / float64(m.period+1)
	ema := mean(closes[:m.period])
	for _, c := range closes[m.period:] {
		ema += alpha * (c - ema)
	}
	return ema, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
