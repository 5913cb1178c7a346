// Package analysis turns a kline series into a market report: indicators,
// trend, clustered zones and targets.
package analysis

import (
	"context"
	"fmt"
	"time"

	"cryptoPulseBot/internal/analysis/indicators"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/levels"
	"cryptoPulseBot/internal/ports"
	"cryptoPulseBot/internal/risk"
)

// Config holds indicator periods and the engine options used by the Analyzer.
type Config struct {
	SMAPeriod    int
	EMAPeriod    int
	RSIPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	StochK       int
	StochSmooth  int
	StochD       int
	ADXPeriod    int
	ATRPeriod    int
	RecentWindow int // Candles used for the recent support/resistance range
	Zones        levels.Options
	Targets      risk.TargetConfig
}

// DefaultConfig returns the periods used by the chat reports.
func DefaultConfig() Config {
	return Config{
		SMAPeriod:    14,
		EMAPeriod:    14,
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		StochK:       14,
		StochSmooth:  1,
		StochD:       3,
		ADXPeriod:    14,
		ATRPeriod:    14,
		RecentWindow: 10,
		Zones:        levels.DefaultOptions(),
		Targets:      risk.DefaultTargetConfig(),
	}
}

// Analyzer computes reports. It is safe for concurrent use.
type Analyzer struct {
	cfg     Config
	logger  ports.Logger
	sma     *indicators.MovingAverage
	ema     *indicators.MovingAverage
	rsi     *indicators.RSI
	atr     *indicators.ATR
	macd    *indicators.MACD
	stoch   *indicators.Stochastic
	adx     *indicators.ADX
	targets *risk.TargetCalculator
}

// New creates an Analyzer, validating every period and option up front.
func New(cfg Config, logger ports.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Zones.Validate(); err != nil {
		return nil, fmt.Errorf("zone options: %w", err)
	}

	a := &Analyzer{cfg: cfg, logger: logger}
	var err error
	if a.sma, err = indicators.NewMovingAverage(indicators.SimpleMovingAverage, indicators.IndicatorConfig{Period: cfg.SMAPeriod}); err != nil {
		return nil, err
	}
	if a.ema, err = indicators.NewMovingAverage(indicators.ExponentialMovingAverage, indicators.IndicatorConfig{Period: cfg.EMAPeriod}); err != nil {
		return nil, err
	}
	rsiCfg := indicators.DefaultRSIConfig()
	rsiCfg.Period = cfg.RSIPeriod
	if a.rsi, err = indicators.NewRSI(rsiCfg); err != nil {
		return nil, err
	}
	if a.atr, err = indicators.NewATR(indicators.IndicatorConfig{Period: cfg.ATRPeriod}); err != nil {
		return nil, err
	}
	if a.macd, err = indicators.NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal); err != nil {
		return nil, err
	}
	if a.stoch, err = indicators.NewStochastic(cfg.StochK, cfg.StochSmooth, cfg.StochD); err != nil {
		return nil, err
	}
	if a.adx, err = indicators.NewADX(indicators.IndicatorConfig{Period: cfg.ADXPeriod}); err != nil {
		return nil, err
	}
	if a.targets, err = risk.NewTargetCalculator(cfg.Targets); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) indicatorSet() []indicators.Indicator {
	return []indicators.Indicator{a.sma, a.ema, a.rsi, a.atr, a.macd, a.stoch, a.adx}
}

// RequiredDataPoints returns the minimum number of klines Analyze accepts.
func (a *Analyzer) RequiredDataPoints() int {
	need := 3 // signal accuracy compares two consecutive moves
	for _, ind := range a.indicatorSet() {
		if n := ind.RequiredDataPoints(); n > need {
			need = n
		}
	}
	return need
}

// ZoneOptions returns the options used for zone detection.
func (a *Analyzer) ZoneOptions() levels.Options {
	return a.cfg.Zones
}

// RSIState describes an RSI value as overbought, oversold or empty.
func (a *Analyzer) RSIState(value float64) string {
	switch {
	case a.rsi.IsOverbought(value):
		return "overbought"
	case a.rsi.IsOversold(value):
		return "oversold"
	default:
		return ""
	}
}

// Analyze builds a report from klines (oldest first). ticker is optional.
// The returned report has no ID, chat or sentiment; the caller fills them.
func (a *Analyzer) Analyze(ctx context.Context, klines []*domain.Kline, ticker *domain.Ticker24h) (*domain.Report, error) {
	if len(klines) < a.RequiredDataPoints() {
		return nil, fmt.Errorf("%w: need at least %d klines, got %d", ports.ErrInvalidInput, a.RequiredDataPoints(), len(klines))
	}

	// Zone detection also validates every kline.
	zones, err := levels.DetectZones(klines, a.cfg.Zones)
	if err != nil {
		return nil, fmt.Errorf("detecting zones: %w", err)
	}

	snap, err := a.snapshot(ctx, klines)
	if err != nil {
		return nil, err
	}
	snap.RSIState = a.RSIState(snap.RSI)

	lastKline := klines[len(klines)-1]
	price := lastKline.Close
	trend := DetectTrend(klines)
	nearest := levels.Nearest(zones, price)
	targets, err := a.targets.Calculate(ctx, price, snap.ATR, trend.Direction, nearest)
	if err != nil {
		return nil, fmt.Errorf("calculating targets: %w", err)
	}
	support, resistance := RecentRange(klines, a.cfg.RecentWindow)

	report := &domain.Report{
		Symbol:           lastKline.Symbol,
		Interval:         lastKline.Interval,
		Price:            price,
		Trend:            trend,
		Indicators:       snap,
		RecentSupport:    support,
		RecentResistance: resistance,
		Zones:            zones,
		Nearest:          nearest,
		Targets:          targets,
		Accuracy:         SignalAccuracy(klines),
		Ticker:           ticker,
		GeneratedAt:      time.Now().UTC(),
	}

	a.logger.Debug(ctx, "Analysis complete", map[string]interface{}{
		"symbol":   report.Symbol,
		"interval": report.Interval,
		"klines":   len(klines),
		"zones":    len(zones),
		"trend":    string(trend.Direction),
	})
	return report, nil
}

func (a *Analyzer) snapshot(ctx context.Context, klines []*domain.Kline) (domain.IndicatorSnapshot, error) {
	var snap domain.IndicatorSnapshot
	var err error
	if snap.SMA, err = a.sma.Calculate(ctx, klines); err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.sma.Name(), err)
	}
	if snap.EMA, err = a.ema.Calculate(ctx, klines); err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.ema.Name(), err)
	}
	if snap.RSI, err = a.rsi.Calculate(ctx, klines); err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.rsi.Name(), err)
	}
	if snap.ATR, err = a.atr.Calculate(ctx, klines); err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.atr.Name(), err)
	}
	macd, err := a.macd.Compute(ctx, klines)
	if err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.macd.Name(), err)
	}
	snap.MACD, snap.MACDSignal, snap.MACDHistogram = macd.MACD, macd.Signal, macd.Histogram
	stoch, err := a.stoch.Compute(ctx, klines)
	if err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.stoch.Name(), err)
	}
	snap.StochK, snap.StochD = stoch.K, stoch.D
	if snap.ADX, err = a.adx.Calculate(ctx, klines); err != nil {
		return snap, fmt.Errorf("calculating %s: %w", a.adx.Name(), err)
	}
	return snap, nil
}
