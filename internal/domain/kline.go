package domain

import "time"

// Kline represents a single candlestick data point.
type Kline struct {
	OpenTime  time.Time // Start time of the interval
	CloseTime time.Time // End time of the interval
	Symbol    string    // Trading symbol
	Interval  string    // Kline interval (e.g., "1m", "1h")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Trading volume
	IsFinal   bool      // Whether this kline is the final one for the interval
}

// Ticker24h holds rolling 24 hour statistics for a symbol.
type Ticker24h struct {
	Symbol             string
	LastPrice          float64
	PriceChange        float64
	PriceChangePercent float64
	HighPrice          float64
	LowPrice           float64
	Volume             float64 // Base asset volume
	QuoteVolume        float64 // Quote asset volume (e.g., USDT)
	OpenTime           time.Time
	CloseTime          time.Time
}
