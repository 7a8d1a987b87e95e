package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type SinkMode string

const (
	SinkModeLog       SinkMode = "log"
	SinkModeKafka     SinkMode = "kafka"
	SinkModeRedis     SinkMode = "redis"
	SinkModeWebSocket SinkMode = "websocket"
)

type KafkaSettings struct {
	Brokers      []string
	SampleTopic  string
	AlertTopic   string
	BatchTimeout time.Duration
	MaxRetry     int
}

type RedisSettings struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

type WebSocketSettings struct {
	URL          string
	Token        string
	WriteTimeout time.Duration
}

type Config struct {
	AgentID         string
	Hostname        string
	InventoryPath   string
	TickInterval    time.Duration
	CollectTimeout  time.Duration
	ShutdownTimeout time.Duration
	ProbeListenAddr string
	LogJSON         bool
	LogLevel        string
	Sinks           []SinkMode
	SinkBufferSize  int
	SinkFlushWait   time.Duration
	Kafka           KafkaSettings
	Redis           RedisSettings
	WebSocket       WebSocketSettings
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	cfg := Config{
		AgentID:         env("SKYWATCH_AGENT_ID", hostname),
		Hostname:        hostname,
		InventoryPath:   env("SKYWATCH_INVENTORY_PATH", "/etc/skywatch/resources.yaml"),
		TickInterval:    envDuration("SKYWATCH_TICK_INTERVAL", 15*time.Second),
		CollectTimeout:  envDuration("SKYWATCH_COLLECT_TIMEOUT", 10*time.Second),
		ShutdownTimeout: envDuration("SKYWATCH_SHUTDOWN_TIMEOUT", 20*time.Second),
		ProbeListenAddr: env("SKYWATCH_PROBE_ADDR", "0.0.0.0:9402"),
		LogJSON:         envBool("SKYWATCH_LOG_JSON", true),
		LogLevel:        strings.ToLower(env("SKYWATCH_LOG_LEVEL", "info")),
		Sinks:           sinkModes(env("SKYWATCH_SINKS", string(SinkModeLog))),
		SinkBufferSize:  envInt("SKYWATCH_SINK_BUFFER_SIZE", 256),
		SinkFlushWait:   envDuration("SKYWATCH_SINK_FLUSH_WAIT", 10*time.Second),
		Kafka: KafkaSettings{
			Brokers:      splitList(env("SKYWATCH_KAFKA_BROKERS", "127.0.0.1:9092")),
			SampleTopic:  env("SKYWATCH_KAFKA_SAMPLE_TOPIC", "skywatch.samples"),
			AlertTopic:   env("SKYWATCH_KAFKA_ALERT_TOPIC", "skywatch.alerts"),
			BatchTimeout: envDuration("SKYWATCH_KAFKA_BATCH_TIMEOUT", 200*time.Millisecond),
			MaxRetry:     envInt("SKYWATCH_KAFKA_MAX_RETRY", 3),
		},
		Redis: RedisSettings{
			Addr:      env("SKYWATCH_REDIS_ADDR", "127.0.0.1:6379"),
			Password:  env("SKYWATCH_REDIS_PASSWORD", ""),
			DB:        envInt("SKYWATCH_REDIS_DB", 0),
			KeyPrefix: env("SKYWATCH_REDIS_KEY_PREFIX", "skywatch:"),
			TTL:       envDuration("SKYWATCH_REDIS_TTL", 24*time.Hour),
		},
		WebSocket: WebSocketSettings{
			URL:          env("SKYWATCH_WS_URL", "ws://127.0.0.1:9400/ws/ingest"),
			Token:        env("SKYWATCH_WS_TOKEN", ""),
			WriteTimeout: envDuration("SKYWATCH_WS_WRITE_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.AgentID == "" {
		return errors.New("SKYWATCH_AGENT_ID is required")
	}
	if strings.TrimSpace(c.InventoryPath) == "" {
		return errors.New("SKYWATCH_INVENTORY_PATH is required")
	}
	if c.TickInterval <= 0 {
		return errors.New("SKYWATCH_TICK_INTERVAL must be > 0")
	}
	if c.CollectTimeout <= 0 {
		return errors.New("SKYWATCH_COLLECT_TIMEOUT must be > 0")
	}
	if c.CollectTimeout >= c.TickInterval {
		return fmt.Errorf("collect timeout %v must be shorter than tick interval %v", c.CollectTimeout, c.TickInterval)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SKYWATCH_SHUTDOWN_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("SKYWATCH_PROBE_ADDR is required")
	}
	if len(c.Sinks) == 0 {
		return errors.New("SKYWATCH_SINKS must name at least one sink")
	}
	for _, mode := range c.Sinks {
		switch mode {
		case SinkModeLog, SinkModeKafka, SinkModeRedis, SinkModeWebSocket:
		default:
			return fmt.Errorf("unsupported sink mode %q", mode)
		}
	}
	if hasSink(c.Sinks, SinkModeKafka) && len(c.Kafka.Brokers) == 0 {
		return errors.New("SKYWATCH_KAFKA_BROKERS is required for the kafka sink")
	}
	if hasSink(c.Sinks, SinkModeRedis) && c.Redis.Addr == "" {
		return errors.New("SKYWATCH_REDIS_ADDR is required for the redis sink")
	}
	if hasSink(c.Sinks, SinkModeWebSocket) && c.WebSocket.URL == "" {
		return errors.New("SKYWATCH_WS_URL is required for the websocket sink")
	}
	return nil
}

func hasSink(modes []SinkMode, want SinkMode) bool {
	for _, m := range modes {
		if m == want {
			return true
		}
	}
	return false
}

func sinkModes(raw string) []SinkMode {
	var out []SinkMode
	for _, part := range splitList(raw) {
		out = append(out, SinkMode(strings.ToLower(part)))
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
