package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/pkg/events"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
)

// Message headers set on every published event.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// Producer is the part of pkgkafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Topics routes events to topics by event type.
type Topics struct {
	Calculations    string
	CompanyMessages string
	RateTables      string
}

func (t Topics) forType(eventType string) (string, error) {
	var topic string
	switch eventType {
	case event.TypeCalculationCreated:
		topic = t.Calculations
	case event.TypeCompanyMessageSubmitted:
		topic = t.CompanyMessages
	case event.TypeRateTableImported:
		topic = t.RateTables
	}
	if topic == "" {
		return "", fmt.Errorf("no topic for event type %s", eventType)
	}
	return topic, nil
}

// KafkaEventPublisher implements port.EventPublisher and events.EntryPublisher
// by writing events to Kafka.
type KafkaEventPublisher struct {
	producer Producer
	topics   Topics
	logger   *slog.Logger
}

// NewKafkaEventPublisher creates a publisher routing events through producer.
func NewKafkaEventPublisher(producer Producer, topics Topics, logger *slog.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaEventPublisher{
		producer: producer,
		topics:   topics,
		logger:   logger,
	}
}

// Publish serialises events and sends them through PublishEntries.
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return err
	}
	return p.PublishEntries(ctx, entries...)
}

// PublishEntries sends outbox entries, one batch per topic. Entries keep
// their relative order within a topic and are keyed by aggregate ID.
func (p *KafkaEventPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	var order []string
	batches := make(map[string][]pkgkafka.Message)

	for _, entry := range entries {
		topic, err := p.topics.forType(entry.EventType)
		if err != nil {
			return err
		}

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", entry.EventType,
			"aggregate_id", entry.AggregateID,
			"topic", topic,
			"payload_size", len(entry.Payload),
		)

		if _, seen := batches[topic]; !seen {
			order = append(order, topic)
		}
		batches[topic] = append(batches[topic], pkgkafka.Message{
			Key:   []byte(entry.AggregateID),
			Value: entry.Payload,
			Headers: map[string]string{
				HeaderEventType: entry.EventType,
				HeaderEventID:   entry.ID,
			},
		})
	}

	for _, topic := range order {
		if err := p.producer.Publish(ctx, topic, batches[topic]...); err != nil {
			return fmt.Errorf("failed to publish events to topic %s: %w", topic, err)
		}
	}
	return nil
}

// DecodeCompanyMessageSubmitted reads a CompanyMessageSubmitted event from a
// consumed message. Messages of any other type report ok false.
func DecodeCompanyMessageSubmitted(msg pkgkafka.Message) (evt event.CompanyMessageSubmitted, ok bool, err error) {
	if t := msg.Headers[HeaderEventType]; t != "" && t != event.TypeCompanyMessageSubmitted {
		return event.CompanyMessageSubmitted{}, false, nil
	}
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return event.CompanyMessageSubmitted{}, false, fmt.Errorf("decode company message event: %w", err)
	}
	if evt.EventType() != event.TypeCompanyMessageSubmitted {
		return event.CompanyMessageSubmitted{}, false, nil
	}
	return evt, true, nil
}
