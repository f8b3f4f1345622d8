package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/miradorstack/sda-engine/internal/utils"
)

// KafkaConfig configures the Kafka-backed publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	WriteTimeout time.Duration
	Backoff      time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes evaluation events as JSON, keyed by deviation ID so that
// events for one deviation stay ordered on a partition.
type KafkaPublisher struct {
	writer      messageWriter
	topic       string
	maxAttempts int
	timeout     time.Duration
	backoff     time.Duration
	logger      *slog.Logger
}

// NewKafkaPublisher constructs a KafkaPublisher.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	normaliseKafkaConfig(&cfg)

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, cfg, logger), nil
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	normaliseKafkaConfig(&cfg)
	return &KafkaPublisher{
		writer:      w,
		topic:       cfg.Topic,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.WriteTimeout,
		backoff:     cfg.Backoff,
		logger:      utils.OrDefault(logger),
	}
}

func normaliseKafkaConfig(cfg *KafkaConfig) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
}

// PublishEvaluation writes the event, retrying transient failures with exponential backoff.
func (p *KafkaPublisher) PublishEvaluation(ctx context.Context, event EvaluationEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal evaluation event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.DeviationID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte("sda.evaluation")},
		},
	}

	backoff := p.backoff
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		lastErr = p.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if lastErr == nil {
			return nil
		}
		p.logger.Debug("kafka write failed",
			slog.String("topic", p.topic),
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr),
		)
		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish evaluation %s: %w", event.DeviationID, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("publish evaluation %s failed after %d attempts: %w", event.DeviationID, p.maxAttempts, lastErr)
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
