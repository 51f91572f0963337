package handler

import (
	"context"
	"time"

	"banking-ledger/config"
	"banking-ledger/pkg/apperror"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

// RetryPolicy re-runs an operation that failed on lock contention.
type RetryPolicy struct {
	maxAttempts int
	min         time.Duration
	max         time.Duration
	log         zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy builds a policy from config. Zero attempts means one try.
func NewRetryPolicy(cfg config.RetryConfig, log zerolog.Logger) *RetryPolicy {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &RetryPolicy{
		maxAttempts: attempts,
		min:         cfg.MinBackoff,
		max:         cfg.MaxBackoff,
		log:         log,
		sleep:       sleepCtx,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. The last error is returned.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{Min: p.min, Max: p.max, Factor: 2, Jitter: true}

	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !apperror.IsRetryable(err) || attempt == p.maxAttempts {
			return err
		}

		wait := b.Duration()
		p.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("backoff", wait).Msg("contention, retrying")
		if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
