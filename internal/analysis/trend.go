package analysis

import (
	"math"

	"cryptoPulseBot/internal/domain"
)

// DetectTrend compares the first and last close of the series.
func DetectTrend(klines []*domain.Kline) domain.Trend {
	if len(klines) < 2 || klines[0].Close == 0 {
		return domain.Trend{Direction: domain.Bearish}
	}
	first, lastClose := klines[0].Close, klines[len(klines)-1].Close
	change := (lastClose - first) / first * 100
	dir := domain.Bearish
	if change > 0 {
		dir = domain.Bullish
	}
	return domain.Trend{Direction: dir, ChangePercent: change}
}

// SignalAccuracy returns the percentage of candles whose direction matched
// the direction of the candle before them. A candle that does not close higher
// counts as down.
func SignalAccuracy(klines []*domain.Kline) float64 {
	if len(klines) < 3 {
		return 0
	}
	up := func(i int) bool { return klines[i].Close > klines[i-1].Close }
	correct := 0
	for i := 2; i < len(klines); i++ {
		if up(i-1) == up(i) {
			correct++
		}
	}
	return float64(correct) / float64(len(klines)-2) * 100
}

// RecentRange returns the lowest low and highest high of the last window klines.
func RecentRange(klines []*domain.Kline, window int) (support, resistance float64) {
	if len(klines) == 0 {
		return 0, 0
	}
	if window <= 0 || window > len(klines) {
		window = len(klines)
	}
	support, resistance = math.Inf(1), math.Inf(-1)
	for _, k := range klines[len(klines)-window:] {
		support = math.Min(support, k.Low)
		resistance = math.Max(resistance, k.High)
	}
	return support, resistance
}
