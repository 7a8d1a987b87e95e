package sink

import (
	"fmt"
	"log/slog"

	"skywatch-agent/internal/config"
)

// NewFromConfig assembles the configured sink chain: every selected
// backend behind a fan-out, behind the dispatch buffer.
func NewFromConfig(cfg config.Config, onDrop func(int), logger *slog.Logger) (Sink, error) {
	var sinks []Sink
	for _, mode := range cfg.Sinks {
		switch mode {
		case config.SinkModeLog:
			sinks = append(sinks, NewLogSink(logger))
		case config.SinkModeKafka:
			sinks = append(sinks, NewKafkaSink(KafkaConfig{
				Brokers:      cfg.Kafka.Brokers,
				SampleTopic:  cfg.Kafka.SampleTopic,
				AlertTopic:   cfg.Kafka.AlertTopic,
				BatchTimeout: cfg.Kafka.BatchTimeout,
				MaxRetry:     cfg.Kafka.MaxRetry,
			}, logger))
		case config.SinkModeRedis:
			rs, err := NewRedisSink(RedisConfig{
				Addr:      cfg.Redis.Addr,
				Password:  cfg.Redis.Password,
				DB:        cfg.Redis.DB,
				KeyPrefix: cfg.Redis.KeyPrefix,
				TTL:       cfg.Redis.TTL,
			})
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, rs)
		case config.SinkModeWebSocket:
			sinks = append(sinks, NewWebSocketSink(WebSocketConfig{
				URL:          cfg.WebSocket.URL,
				Token:        cfg.WebSocket.Token,
				WriteTimeout: cfg.WebSocket.WriteTimeout,
			}, logger))
		default:
			return nil, fmt.Errorf("unsupported sink mode %q", mode)
		}
	}

	var next Sink
	switch len(sinks) {
	case 1:
		next = sinks[0]
	default:
		next = NewMulti(logger, sinks...)
	}
	return NewBuffered(next, cfg.SinkBufferSize, cfg.SinkFlushWait, onDrop, logger), nil
}
