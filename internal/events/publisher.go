// Package events publishes alignment lifecycle notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/metrics"
)

// Publisher publishes alignment events to separate Kafka topics for
// completed and failed requests. When disabled it degrades to log-only
// mode so the service runs without a broker.
type Publisher struct {
	writerCompleted *kafka.Writer
	writerFailed    *kafka.Writer
	clientID        string
	topicCompleted  string
	topicFailed     string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicCompleted string
	TopicFailed    string
	ClientID       string
	Enabled        bool
}

// New creates a Kafka event publisher. A nil or disabled config, or an
// empty broker list, produces a log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			clientID:       cfg.ClientID,
			topicCompleted: cfg.TopicCompleted,
			topicFailed:    cfg.TopicFailed,
			enabled:        false,
			metrics:        m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerCompleted := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicCompleted,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	writerFailed := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicFailed,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicCompleted", cfg.TopicCompleted).
		Str("topicFailed", cfg.TopicFailed).
		Str("clientId", cfg.ClientID).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerCompleted: writerCompleted,
		writerFailed:    writerFailed,
		clientID:        cfg.ClientID,
		topicCompleted:  cfg.TopicCompleted,
		topicFailed:     cfg.TopicFailed,
		enabled:         true,
		metrics:         m,
	}
}

// PublishCompleted publishes a successful alignment event.
func (p *Publisher) PublishCompleted(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerCompleted, p.topicCompleted, key, event)
}

// PublishFailed publishes a failed alignment event.
func (p *Publisher) PublishFailed(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerFailed, p.topicFailed, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("clientId", p.clientID).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, the log line above is the event.
	if !p.enabled || writer == nil {
		p.metrics.RecordEventPublish(topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "publisher", Value: []byte(p.clientID)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordEventPublish(topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordEventPublish(topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerCompleted != nil {
		if e := p.writerCompleted.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing completed writer")
			err = e
		}
	}
	if p.writerFailed != nil {
		if e := p.writerFailed.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing failed writer")
			err = e
		}
	}
	return err
}
