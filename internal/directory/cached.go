package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/abhyaas/abhyaas-backend/internal/config"
	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// KV is the slice of a Redis client the cache needs. Get must return
// redis.Nil on a miss.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisKV struct {
	rdb redis.Cmdable
}

// NewRedisKV adapts a go-redis client.
func NewRedisKV(rdb redis.Cmdable) KV {
	return redisKV{rdb: rdb}
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.rdb.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// Cached is a read-through cache in front of another Reader. Concurrent
// misses for the same id share one upstream call. Not-found is never cached.
type Cached struct {
	next  Reader
	kv    KV
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

// NewCached wraps next.
func NewCached(next Reader, kv KV, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		next: next,
		kv:   kv,
		ttl:  ttl,
		log:  log.With().Str("component", "directory_cache").Logger(),
	}
}

// GetResource serves from Redis when possible. Cache errors degrade to a
// direct read.
func (c *Cached) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	key := config.CacheKey.ResourceKey(id)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var res model.Resource
		if jsonErr := json.Unmarshal([]byte(raw), &res); jsonErr == nil {
			return &res, nil
		}
		c.log.Warn().Str("key", key).Msg("Discarding unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("Resource cache read failed")
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		res, err := c.next.GetResource(ctx, id)
		if err != nil {
			return nil, err
		}
		if payload, mErr := json.Marshal(res); mErr == nil {
			if sErr := c.kv.Set(ctx, key, string(payload), c.ttl); sErr != nil {
				c.log.Warn().Err(sErr).Str("key", key).Msg("Resource cache write failed")
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	res := *v.(*model.Resource)
	return &res, nil
}

// Invalidate drops the cached record for id.
func (c *Cached) Invalidate(ctx context.Context, id string) error {
	return c.kv.Del(ctx, config.CacheKey.ResourceKey(id))
}

// SaveSummary forwards to the wrapped reader when it can persist summaries
// and drops the stale cache entry.
func (c *Cached) SaveSummary(ctx context.Context, id, summary string) error {
	w, ok := c.next.(SummaryWriter)
	if !ok {
		return nil
	}
	if err := w.SaveSummary(ctx, id, summary); err != nil {
		return err
	}
	return c.Invalidate(ctx, id)
}
