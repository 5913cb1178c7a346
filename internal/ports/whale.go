package ports

import (
	"context"
	"time"

	"cryptoPulseBot/internal/domain"
)

// WhaleSource lists large on-chain transfers.
type WhaleSource interface {
	// Transfers returns transfers that happened at or after since, oldest first.
	Transfers(ctx context.Context, since time.Time) ([]*domain.WhaleTransfer, error)
}
