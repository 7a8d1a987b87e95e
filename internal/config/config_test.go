package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SKYWATCH_INVENTORY_PATH", "SKYWATCH_TICK_INTERVAL", "SKYWATCH_COLLECT_TIMEOUT",
		"SKYWATCH_LOG_JSON", "SKYWATCH_SINKS", "SKYWATCH_SINK_BUFFER_SIZE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.AgentID)
	assert.Equal(t, "/etc/skywatch/resources.yaml", cfg.InventoryPath)
	assert.Equal(t, 15*time.Second, cfg.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.CollectTimeout)
	assert.Equal(t, []SinkMode{SinkModeLog}, cfg.Sinks)
	assert.Equal(t, 256, cfg.SinkBufferSize)
	assert.True(t, cfg.LogJSON)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SKYWATCH_AGENT_ID", "agent-eu-1")
	t.Setenv("SKYWATCH_TICK_INTERVAL", "30s")
	t.Setenv("SKYWATCH_COLLECT_TIMEOUT", "5s")
	t.Setenv("SKYWATCH_LOG_JSON", "false")
	t.Setenv("SKYWATCH_SINKS", "log, kafka")
	t.Setenv("SKYWATCH_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "agent-eu-1", cfg.AgentID)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.CollectTimeout)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, []SinkMode{SinkModeLog, SinkModeKafka}, cfg.Sinks)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("SKYWATCH_TICK_INTERVAL", "often")
	t.Setenv("SKYWATCH_SINK_BUFFER_SIZE", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.TickInterval)
	assert.Equal(t, 256, cfg.SinkBufferSize)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	base := func() Config {
		return Config{
			AgentID:         "agent-1",
			InventoryPath:   "/etc/skywatch/resources.yaml",
			TickInterval:    15 * time.Second,
			CollectTimeout:  10 * time.Second,
			ShutdownTimeout: 20 * time.Second,
			ProbeListenAddr: "0.0.0.0:9402",
			Sinks:           []SinkMode{SinkModeLog},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "collect timeout at tick interval",
			mutate:  func(c *Config) { c.CollectTimeout = c.TickInterval },
			wantErr: "shorter than tick interval",
		},
		{
			name:    "unknown sink mode",
			mutate:  func(c *Config) { c.Sinks = []SinkMode{"graphite"} },
			wantErr: "unsupported sink mode",
		},
		{
			name:    "no sinks",
			mutate:  func(c *Config) { c.Sinks = nil },
			wantErr: "at least one sink",
		},
		{
			name: "kafka sink without brokers",
			mutate: func(c *Config) {
				c.Sinks = []SinkMode{SinkModeKafka}
				c.Kafka.Brokers = nil
			},
			wantErr: "SKYWATCH_KAFKA_BROKERS",
		},
		{
			name: "websocket sink without url",
			mutate: func(c *Config) {
				c.Sinks = []SinkMode{SinkModeWebSocket}
				c.WebSocket.URL = ""
			},
			wantErr: "SKYWATCH_WS_URL",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	assert.NoError(t, base().Validate())
}
