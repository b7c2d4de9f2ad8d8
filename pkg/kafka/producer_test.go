package kafka

import (
	"log/slog"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
	assert.Empty(t, p.writers)
	assert.Nil(t, p.transport)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(Config{})
	assert.Error(t, err)
}

func TestNewProducer_SASLTransport(t *testing.T) {
	p, err := NewProducer(Config{
		Brokers:       []string{"kafka:9093"},
		TLS:           true,
		SASLEnabled:   true,
		SASLMechanism: "SCRAM-SHA-512",
		SASLUsername:  "loancalc",
		SASLPassword:  "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, p.transport)
	assert.NotNil(t, p.transport.TLS)
	assert.Equal(t, "SCRAM-SHA-512", p.transport.SASL.Name())

	w := p.getOrCreateWriter("loancalc.events")
	assert.Same(t, p.transport, w.Transport)
}

func TestNewProducer_UnknownSASL(t *testing.T) {
	_, err := NewProducer(Config{
		Brokers:       []string{"kafka:9093"},
		SASLEnabled:   true,
		SASLMechanism: "GSSAPI",
	})
	assert.Error(t, err)
}

func TestGetOrCreateWriter(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	w1 := p.getOrCreateWriter("topic-a")
	w2 := p.getOrCreateWriter("topic-a")
	w3 := p.getOrCreateWriter("topic-b")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Len(t, p.writers, 2)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestMessageConversion(t *testing.T) {
	msg := Message{
		Key:     []byte("calc-123"),
		Value:   []byte(`{"rate":0.043}`),
		Headers: map[string]string{"event_type": "loancalc.calculation.created"},
	}

	km := toKafkaMessage(msg)
	require.Len(t, km.Headers, 1)
	assert.Equal(t, "event_type", km.Headers[0].Key)

	back := fromKafkaMessage(kafkago.Message{Key: km.Key, Value: km.Value, Headers: km.Headers})
	assert.Equal(t, msg, back)
}

func TestNewConsumer_RequiresGroup(t *testing.T) {
	_, err := NewConsumer(Config{Brokers: []string{"localhost:9092"}}, "topic", nil, slog.Default())
	assert.Error(t, err)
}
