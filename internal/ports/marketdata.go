package ports

import (
	"context"

	"cryptoPulseBot/internal/domain"
)

// MarketDataClient defines the read-only market data the bot needs from an exchange.
type MarketDataClient interface {
	// GetKlines retrieves the most recent klines for a symbol and interval,
	// oldest first.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error)

	// Get24hTicker retrieves rolling 24h statistics for a symbol.
	Get24hTicker(ctx context.Context, symbol string) (*domain.Ticker24h, error)

	// Ping checks connectivity to the exchange.
	Ping(ctx context.Context) error
}
