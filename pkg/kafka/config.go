package kafka

import (
	"crypto/tls"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds Kafka connection parameters.
type Config struct {
	ConsumerGroup string

	// SASL configuration for authentication.
	SASLMechanism string // "PLAIN" or "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	// TLS enables TLS for Kafka connections.
	TLS         bool
	SASLEnabled bool
}

// resolveSASL returns the SASL mechanism named by cfg.
func resolveSASL(cfg Config) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	case "PLAIN", "":
		return plain.Mechanism{
			Username: cfg.SASLUsername,
			Password: cfg.SASLPassword,
		}, nil
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", cfg.SASLMechanism)
	}
}

func tlsConfig(cfg Config) *tls.Config {
	if !cfg.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// dialer builds the reader dialer for cfg, or nil when plain TCP suffices.
func dialer(cfg Config) (*kafkago.Dialer, error) {
	if !cfg.TLS && !cfg.SASLEnabled {
		return nil, nil
	}
	d := &kafkago.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		TLS:       tlsConfig(cfg),
	}
	if cfg.SASLEnabled {
		m, err := resolveSASL(cfg)
		if err != nil {
			return nil, err
		}
		d.SASLMechanism = m
	}
	return d, nil
}

// transport builds the writer transport for cfg, or nil for the default.
func transport(cfg Config) (*kafkago.Transport, error) {
	if !cfg.TLS && !cfg.SASLEnabled {
		return nil, nil
	}
	t := &kafkago.Transport{TLS: tlsConfig(cfg)}
	if cfg.SASLEnabled {
		m, err := resolveSASL(cfg)
		if err != nil {
			return nil, err
		}
		t.SASL = m
	}
	return t, nil
}
