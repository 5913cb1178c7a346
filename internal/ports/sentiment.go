package ports

import (
	"context"

	"cryptoPulseBot/internal/domain"
)

// SentimentClient provides the current market sentiment reading.
type SentimentClient interface {
	Current(ctx context.Context) (*domain.Sentiment, error)
}
