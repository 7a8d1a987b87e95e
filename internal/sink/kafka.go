package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"skywatch-agent/internal/model"
)

type KafkaConfig struct {
	Brokers      []string
	SampleTopic  string
	AlertTopic   string
	BatchTimeout time.Duration
	MaxRetry     int
}

// KafkaSink publishes batches as JSON messages. Samples are keyed by
// metric name and alerts by resource id so partitioning keeps related
// records together.
type KafkaSink struct {
	logger   *slog.Logger
	samples  *kafka.Writer
	alerts   *kafka.Writer
	maxRetry int
}

func NewKafkaSink(cfg KafkaConfig, logger *slog.Logger) *KafkaSink {
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return &KafkaSink{
		logger:   logger,
		samples:  newWriter(cfg.SampleTopic),
		alerts:   newWriter(cfg.AlertTopic),
		maxRetry: cfg.MaxRetry,
	}
}

func (s *KafkaSink) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	messages := make([]kafka.Message, 0, len(batch))
	for _, p := range batch {
		value, err := json.Marshal(p)
		if err != nil {
			return wrapErr("kafka", fmt.Errorf("encode sample %s: %w", p.Name, err))
		}
		messages = append(messages, kafka.Message{Key: []byte(p.Name), Value: value})
	}
	return wrapErr("kafka", s.writeWithRetry(ctx, s.samples, messages))
}

func (s *KafkaSink) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	messages := make([]kafka.Message, 0, len(batch))
	for _, p := range batch {
		value, err := json.Marshal(p)
		if err != nil {
			return wrapErr("kafka", fmt.Errorf("encode alert %s/%s: %w", p.ResourceID, p.MetricName, err))
		}
		messages = append(messages, kafka.Message{Key: []byte(p.ResourceID), Value: value})
	}
	return wrapErr("kafka", s.writeWithRetry(ctx, s.alerts, messages))
}

func (s *KafkaSink) writeWithRetry(ctx context.Context, w *kafka.Writer, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}
	var err error
	for attempt := 0; attempt < s.maxRetry; attempt++ {
		err = w.WriteMessages(ctx, messages...)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		s.logger.Warn("kafka write failed", "attempt", attempt+1, "max", s.maxRetry, "error", err)
		backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func (s *KafkaSink) Close(ctx context.Context) error {
	sampleErr := s.samples.Close()
	alertErr := s.alerts.Close()
	if sampleErr != nil {
		return wrapErr("kafka", sampleErr)
	}
	return wrapErr("kafka", alertErr)
}
