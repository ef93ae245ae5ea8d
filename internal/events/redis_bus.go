package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/config"
	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// RedisBus publishes transcript events on a per-session Redis channel.
type RedisBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBus creates a RedisBus.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{
		rdb: rdb,
		log: log.With().Str("component", "redis_bus").Logger(),
	}
}

// Publish implements Relay.
func (b *RedisBus) Publish(ctx context.Context, ev model.TranscriptEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, config.CacheKey.AssistantEventsChannel(ev.SessionID), raw).Err()
}

// Subscribe opens a subscription to one session's channel and waits for the
// server to confirm it. The caller must close the returned PubSub.
func (b *RedisBus) Subscribe(ctx context.Context, sessionID string) (*redis.PubSub, error) {
	sub := b.rdb.Subscribe(ctx, config.CacheKey.AssistantEventsChannel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}
