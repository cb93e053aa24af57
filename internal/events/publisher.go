// Package events publishes scam alerts to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
)

// Alert kinds.
const (
	KindScam    = "scam"
	KindWarning = "warning"
)

// Alert is the payload written for every SCAM display and warning escalation.
type Alert struct {
	Kind       string    `json:"kind"`
	SessionID  string    `json:"session_id"`
	Confidence int       `json:"confidence,omitempty"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes alerts to a Kafka topic.
type Publisher struct {
	writer    *kafka.Writer
	principal string
	topic     string
	enabled   bool
	metrics   *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers   []string
	Topic     string
	Principal string
	Enabled   bool
}

// New creates a publisher. Without brokers, or when disabled, alerts are only
// logged.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal: cfg.Principal,
			topic:     cfg.Topic,
			metrics:   m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("principal", cfg.Principal).
		Msg("Kafka alert publisher initialized")

	return &Publisher{
		writer:    writer,
		principal: cfg.Principal,
		topic:     cfg.Topic,
		enabled:   true,
		metrics:   m,
	}
}

// WithMetrics replaces the metrics sink.
func (p *Publisher) WithMetrics(m *metrics.Metrics) *Publisher {
	p.metrics = m
	return p
}

// Enabled reports whether alerts reach Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Publish writes alert keyed by its session id, so one call's alerts stay on
// one partition.
func (p *Publisher) Publish(ctx context.Context, alert Alert) error {
	start := time.Now()

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal alert")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", p.topic).
		Str("key", alert.SessionID).
		RawJSON("payload", payload).
		Msg("Publishing alert")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordAlertPublish(alert.Kind, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(alert.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(alert.Kind)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", alert.SessionID).
			Msg("Failed to write alert to Kafka")
		p.metrics.RecordAlertPublish(alert.Kind, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordAlertPublish(alert.Kind, nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing alert writer")
		return err
	}
	return nil
}
