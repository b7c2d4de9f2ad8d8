package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/pkg/events"
)

// LogPublisher implements port.EventPublisher and events.EntryPublisher by
// logging events. It stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher writing to logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs each event at info level.
func (p *LogPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		p.logger.InfoContext(ctx, "domain event",
			"event_type", evt.EventType(),
			"event_id", evt.EventID(),
			"aggregate_id", evt.AggregateID(),
			"payload_size", len(payload),
		)
	}
	return nil
}

// PublishEntries logs each outbox entry at info level.
func (p *LogPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	for _, entry := range entries {
		p.logger.InfoContext(ctx, "domain event",
			"event_type", entry.EventType,
			"event_id", entry.ID,
			"aggregate_id", entry.AggregateID,
			"payload_size", len(entry.Payload),
		)
	}
	return nil
}
