// Package pubsub wraps a go-redis client for the two channels the
// surveillance system broadcasts on: data_source:failover (health monitor)
// and polymarket:alerts (monitor), trimmed to pub/sub with a
// constructor-nil-logger-fallback/zap idiom.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
)

// PubSub publishes and subscribes to Redis channels.
type PubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// New connects to Redis per cfg and verifies the connection with a ping.
func New(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*PubSub, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return &PubSub{client: client, logger: logger.Named("pubsub")}, nil
}

// Close releases the underlying client.
func (p *PubSub) Close() error {
	return p.client.Close()
}

// Client exposes the raw client for callers that need it directly.
func (p *PubSub) Client() *redis.Client {
	return p.client
}

// PublishJSON marshals payload and publishes it on channel. Publish failures
// are logged, not fatal: the channel is a broadcast convenience, not the
// system of record.
func (p *PubSub) PublishJSON(ctx context.Context, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", channel, err)
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		p.logger.Warn("publish failed", zap.String("channel", channel), zap.Error(err))
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns a subscription to channel; callers read from
// Subscription.Channel() until the context is cancelled.
func (p *PubSub) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return p.client.Subscribe(ctx, channel)
}
