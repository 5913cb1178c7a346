package ports

import (
	"context"
	"time"

	"cryptoPulseBot/internal/domain"
)

// ReportRepository stores generated market reports.
type ReportRepository interface {
	// SaveReport persists a report. The report must carry an ID.
	SaveReport(ctx context.Context, report *domain.Report) error
	// RecentReports retrieves the latest reports sent to a chat, newest first.
	RecentReports(ctx context.Context, chatID int64, limit int) ([]*domain.Report, error)
}

// WhaleRepository remembers which whale transfers were already broadcast.
type WhaleRepository interface {
	// MarkTransferSeen records a transfer. It returns false if the transfer
	// was already recorded.
	MarkTransferSeen(ctx context.Context, transfer *domain.WhaleTransfer) (bool, error)
	// PruneTransfers forgets transfers recorded before cutoff.
	PruneTransfers(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionRepository manages chats subscribed to whale alerts.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, chatID int64) error
	Unsubscribe(ctx context.Context, chatID int64) error
	// Subscribers returns all subscribed chat IDs in ascending order.
	Subscribers(ctx context.Context) ([]int64, error)
}
