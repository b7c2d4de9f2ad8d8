package events

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	event := NewBaseEvent("loancalc.calculation.created", "calc-123", "LoanCalculation", now)

	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, "loancalc.calculation.created", event.EventType())
	assert.Equal(t, "calc-123", event.AggregateID())
	assert.Equal(t, "LoanCalculation", event.AggregateType())
	assert.Equal(t, now.UTC(), event.OccurredAt())
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := NewBaseEvent("x", "agg", "A", now)
	b := NewBaseEvent("x", "agg", "A", now)
	assert.NotEqual(t, a.EventID(), b.EventID())
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestBaseEvent_EmbeddedEnvelopeSerialises(t *testing.T) {
	type quoted struct {
		BaseEvent
		Rate float64 `json:"rate"`
	}

	in := quoted{
		BaseEvent: NewBaseEvent("loancalc.calculation.created", "calc-1", "LoanCalculation", time.Now()),
		Rate:      0.043,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "calc-1", raw["aggregate_id"])
	assert.Equal(t, "loancalc.calculation.created", raw["event_type"])

	var out quoted
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.EventID(), out.EventID())
	assert.Equal(t, in.Rate, out.Rate)
	assert.True(t, in.OccurredAt().Equal(out.OccurredAt()))
}
