package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Relay defaults.
const (
	DefaultRelayBatchSize = 100
	DefaultRelayInterval  = time.Second
)

// RelayConfig tunes a Relay. Zero values use the defaults.
type RelayConfig struct {
	BatchSize int
	Interval  time.Duration
}

// Relay moves outbox entries to a broker. Delivery is at least once: entries
// published but not yet marked are sent again on the next pass.
type Relay struct {
	outbox    OutboxRepository
	publisher EntryPublisher
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewRelay creates a relay from outbox to publisher.
func NewRelay(outbox OutboxRepository, publisher EntryPublisher, cfg RelayConfig, logger *slog.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRelayBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRelayInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		logger:    logger,
	}
}

// RunOnce publishes one batch and returns the number of entries sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEntries(ctx, entries...); err != nil {
		return 0, fmt.Errorf("publish outbox entries: %w", err)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark outbox entries published: %w", err)
	}
	return len(entries), nil
}

// Run drains the outbox until ctx is cancelled. A full batch is followed
// by the next one at once; otherwise the relay waits for the interval.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
