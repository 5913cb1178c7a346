package domain

// TrendDirection is the overall direction of a candle series.
type TrendDirection string

const (
	Bullish TrendDirection = "Bullish"
	Bearish TrendDirection = "Bearish"
)

// Trend summarises the move from the first to the last close of a series.
type Trend struct {
	Direction     TrendDirection
	ChangePercent float64
}

// IndicatorSnapshot holds the last value of every indicator shown in a report.
type IndicatorSnapshot struct {
	SMA           float64
	EMA           float64
	RSI           float64
	RSIState      string // "overbought", "oversold" or empty
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	StochK        float64
	StochD        float64
	ADX           float64
	ATR           float64
}

// Targets are heuristic take-profit and stop-loss levels for the current trend.
type Targets struct {
	Direction TrendDirection
	TP1       float64
	TP2       float64
	SL        float64
}
