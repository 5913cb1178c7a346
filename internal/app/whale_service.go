package app

import (
	"context"
	"fmt"
	"time"

	"cryptoPulseBot/internal/cache"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

// WhaleService polls a whale feed and broadcasts new transfers to subscribed chats.
type WhaleService struct {
	logger    ports.Logger
	source    ports.WhaleSource
	seenRepo  ports.WhaleRepository
	subs      ports.SubscriptionRepository
	messenger ports.Messenger
	formatter *Formatter
	interval  time.Duration
	seen      *cache.TTL[string, struct{}]
	seenTTL   time.Duration
	since     time.Time
	now       func() time.Time
}

// NewWhaleService creates a whale alert poller. seenTTL bounds the in-memory
// dedupe window; the repository keeps the durable record.
func NewWhaleService(
	logger ports.Logger,
	source ports.WhaleSource,
	seenRepo ports.WhaleRepository,
	subs ports.SubscriptionRepository,
	messenger ports.Messenger,
	interval, seenTTL time.Duration,
) (*WhaleService, error) {
	if logger == nil || source == nil || seenRepo == nil || subs == nil || messenger == nil {
		return nil, fmt.Errorf("missing required dependencies for WhaleService")
	}
	if interval <= 0 || seenTTL <= 0 {
		return nil, fmt.Errorf("%w: whale poll interval and seen TTL must be positive", ports.ErrConfigurationError)
	}
	return &WhaleService{
		logger:    logger,
		source:    source,
		seenRepo:  seenRepo,
		subs:      subs,
		messenger: messenger,
		formatter: NewFormatter(time.UTC),
		interval:  interval,
		seen:      cache.NewTTL[string, struct{}](seenTTL),
		seenTTL:   seenTTL,
		now:       time.Now,
	}, nil
}

// Run polls until ctx is canceled.
func (w *WhaleService) Run(ctx context.Context) error {
	w.logger.Info(ctx, "Starting whale alert poller", map[string]interface{}{"interval": w.interval.String()})
	w.since = w.now().Add(-w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error(ctx, err, "Whale poll failed")
		}
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Whale alert poller stopped")
			return nil
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

// prune drops expired dedupe entries. Durable records are kept while the
// feed can still return them.
func (w *WhaleService) prune(ctx context.Context) {
	w.seen.Prune()
	cutoff := w.now().Add(-w.seenTTL)
	if floor := w.since.Add(-w.interval); floor.Before(cutoff) {
		cutoff = floor
	}
	n, err := w.seenRepo.PruneTransfers(ctx, cutoff)
	if err != nil {
		w.logger.Warn(ctx, "Failed to prune whale transfers", map[string]interface{}{"error": err.Error()})
		return
	}
	if n > 0 {
		w.logger.Debug(ctx, "Pruned whale transfers", map[string]interface{}{"removed": n, "cutoff": cutoff.Format(time.RFC3339)})
	}
}

// Poll fetches transfers since the last successful poll and broadcasts the
// new ones. It returns the number of transfers broadcast. The window only
// moves forward after every transfer in it was handled.
func (w *WhaleService) Poll(ctx context.Context) (int, error) {
	started := w.now()
	transfers, err := w.source.Transfers(ctx, w.since)
	if err != nil {
		return 0, fmt.Errorf("fetching whale transfers: %w", err)
	}

	var pending []*domain.WhaleTransfer
	for _, t := range transfers {
		if _, ok := w.seen.Get(t.Hash); !ok {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		w.since = started
		return 0, nil
	}

	chats, err := w.subs.Subscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading subscribers: %w", err)
	}

	sent := 0
	for _, t := range pending {
		isNew, err := w.seenRepo.MarkTransferSeen(ctx, t)
		if err != nil {
			return sent, fmt.Errorf("recording transfer %s: %w", t.Hash, err)
		}
		w.seen.Set(t.Hash, struct{}{})
		if !isNew {
			continue
		}
		w.broadcast(ctx, t, chats)
		sent++
	}
	w.since = started
	if sent > 0 {
		w.logger.Info(ctx, "Whale alerts broadcast", map[string]interface{}{"transfers": sent, "chats": len(chats)})
	}
	return sent, nil
}

func (w *WhaleService) broadcast(ctx context.Context, t *domain.WhaleTransfer, chats []int64) {
	text := w.formatter.Whale(t)
	for _, chatID := range chats {
		if _, err := w.messenger.Send(ctx, chatID, text); err != nil {
			w.logger.Warn(ctx, "Failed to deliver whale alert", map[string]interface{}{"chatID": chatID, "hash": t.Hash, "error": err.Error()})
		}
	}
}
