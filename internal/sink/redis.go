package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skywatch-agent/internal/model"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisSink appends samples to per-metric lists and alerts to a shared
// list, and mirrors currently open alerts into a hash so a reader can
// see the live alert set without replaying history.
type RedisSink struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "skywatch:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, wrapErr("redis", fmt.Errorf("connect %s: %w", cfg.Addr, err))
	}

	return &RedisSink{client: client, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *RedisSink) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	if len(batch) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, p := range batch {
		value, err := json.Marshal(p)
		if err != nil {
			return wrapErr("redis", fmt.Errorf("encode sample %s: %w", p.Name, err))
		}
		key := s.keyPrefix + "samples:" + p.Name
		pipe.RPush(ctx, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return wrapErr("redis", err)
}

func (s *RedisSink) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	if len(batch) == 0 {
		return nil
	}
	historyKey := s.keyPrefix + "alerts"
	openKey := s.keyPrefix + "alerts:open"
	pipe := s.client.Pipeline()
	for _, p := range batch {
		value, err := json.Marshal(p)
		if err != nil {
			return wrapErr("redis", fmt.Errorf("encode alert %s/%s: %w", p.ResourceID, p.MetricName, err))
		}
		pipe.RPush(ctx, historyKey, value)
		field := p.ResourceID + "/" + p.MetricName
		if p.Resolved {
			pipe.HDel(ctx, openKey, field)
		} else {
			pipe.HSet(ctx, openKey, field, value)
		}
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return wrapErr("redis", err)
}

func (s *RedisSink) Close(ctx context.Context) error {
	return wrapErr("redis", s.client.Close())
}
