package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger reports whether a backing store answers.
type Pinger func(ctx context.Context) error

// HealthChecks returns the checks served by /health. A nil pool is skipped.
func HealthChecks(pool *pgxpool.Pool, rdb *redis.Client) map[string]Pinger {
	checks := map[string]Pinger{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	return checks
}

// RunChecks runs every check with a shared timeout and returns the failures.
func RunChecks(ctx context.Context, checks map[string]Pinger, timeout time.Duration) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	return failed
}
