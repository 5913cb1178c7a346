package indicators

import (
	"context"
	"fmt"

	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/markcheno/go-talib"
)

// MACDResult is the last point of the MACD line, its signal and histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes Moving Average Convergence Divergence over closes.
type MACD struct {
	fast, slow, signal int
}

// NewMACD creates a MACD with the given EMA periods (usually 12, 26, 9).
func NewMACD(fast, slow, signal int) (*MACD, error) {
	if fast < 1 || slow <= fast || signal < 1 {
		return nil, fmt.Errorf("%w: invalid MACD periods %d/%d/%d", ports.ErrInvalidInput, fast, slow, signal)
	}
	return &MACD{fast: fast, slow: slow, signal: signal}, nil
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) RequiredDataPoints() int { return m.slow + m.signal - 1 }

// Calculate returns the MACD line value at the last kline.
func (m *MACD) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	res, err := m.Compute(ctx, klines)
	if err != nil {
		return 0, err
	}
	return res.MACD, nil
}

// Compute returns the MACD line, signal and histogram at the last kline.
func (m *MACD) Compute(_ context.Context, klines []*domain.Kline) (MACDResult, error) {
	if len(klines) < m.RequiredDataPoints() {
		return MACDResult{}, notEnoughData(m.Name(), m.RequiredDataPoints(), len(klines))
	}
	_, _, closes := series(klines)
	macd, signal, hist := talib.Macd(closes, m.fast, m.slow, m.signal)
	return MACDResult{MACD: last(macd), Signal: last(signal), Histogram: last(hist)}, nil
}

// StochasticResult holds the last %K and %D values.
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic computes the stochastic oscillator. A KSmoothing of 1 gives the
// fast %K line.
type Stochastic struct {
	kPeriod, kSmoothing, dPeriod int
}

// NewStochastic creates a stochastic oscillator (usually 14, 1, 3).
func NewStochastic(kPeriod, kSmoothing, dPeriod int) (*Stochastic, error) {
	if kPeriod < 1 || kSmoothing < 1 || dPeriod < 1 {
		return nil, fmt.Errorf("%w: invalid stochastic periods %d/%d/%d", ports.ErrInvalidInput, kPeriod, kSmoothing, dPeriod)
	}
	return &Stochastic{kPeriod: kPeriod, kSmoothing: kSmoothing, dPeriod: dPeriod}, nil
}

func (s *Stochastic) Name() string { return "Stochastic" }

func (s *Stochastic) RequiredDataPoints() int { return s.kPeriod + s.kSmoothing + s.dPeriod - 2 }

// Calculate returns %K at the last kline.
func (s *Stochastic) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	res, err := s.Compute(ctx, klines)
	if err != nil {
		return 0, err
	}
	return res.K, nil
}

// Compute returns %K and %D at the last kline.
func (s *Stochastic) Compute(_ context.Context, klines []*domain.Kline) (StochasticResult, error) {
	if len(klines) < s.RequiredDataPoints() {
		return StochasticResult{}, notEnoughData(s.Name(), s.RequiredDataPoints(), len(klines))
	}
	highs, lows, closes := series(klines)
	k, d := talib.Stoch(highs, lows, closes, s.kPeriod, s.kSmoothing, talib.SMA, s.dPeriod, talib.SMA)
	return StochasticResult{K: last(k), D: last(d)}, nil
}

// ADX computes the Average Directional Index.
type ADX struct {
	period int
}

// NewADX creates a new ADX indicator instance
func NewADX(cfg IndicatorConfig) (*ADX, error) {
	if err := cfg.validate("ADX"); err != nil {
		return nil, err
	}
	return &ADX{period: cfg.Period}, nil
}

func (a *ADX) Name() string { return "ADX" }

func (a *ADX) RequiredDataPoints() int { return 2 * a.period }

// Calculate returns the ADX at the last kline.
func (a *ADX) Calculate(_ context.Context, klines []*domain.Kline) (float64, error) {
	if len(klines) < a.RequiredDataPoints() {
		return 0, notEnoughData(a.Name(), a.RequiredDataPoints(), len(klines))
	}
	highs, lows, closes := series(klines)
	return last(talib.Adx(highs, lows, closes, a.period)), nil
}
