package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

const (
	pingTimeout    = 3 * time.Second
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

// waitFor pings until it succeeds, attempts run out or ctx ends. Waits grow
// exponentially from initialBackoff up to maxBackoff.
func waitFor(ctx context.Context, name string, ping Pinger, attempts int, log zerolog.Logger) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff

	tries := 0
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			tries++
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			return struct{}{}, ping(pctx)
		},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).
				Str("target", name).
				Int("attempt", tries).
				Dur("retry_in", next).
				Msg("Dependency not ready")
		}),
	)
	if err != nil {
		return fmt.Errorf("ping %s after %d attempts: %w", name, tries, err)
	}
	return nil
}
