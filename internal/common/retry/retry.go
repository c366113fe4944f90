// Package retry provides bounded exponential backoff with jitter.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"biaw-integrations/internal/common/config"
)

// Policy bounds a retry loop. Delays double from InitialDelay up to MaxDelay,
// each scaled by a random factor in [1-Jitter, 1+Jitter].
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Jitter       float64
}

func PolicyFromConfig(cfg config.ReconciliationConfig) Policy {
	return Policy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: config.GetDuration(cfg.InitialDelay),
		MaxDelay:     config.GetDuration(cfg.MaxDelay),
		Jitter:       cfg.Jitter,
	}
}

// Delay returns the wait after the given 1-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		factor := 1 - p.Jitter + 2*p.Jitter*rand.Float64()
		d = time.Duration(float64(d) * factor)
	}
	return d
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Poll calls check until it reports done, the attempts run out, or ctx ends.
// It returns whether check succeeded and how long it spent sleeping.
// An error from check is returned immediately.
func Poll(ctx context.Context, p Policy, check func(ctx context.Context, attempt int) (bool, error)) (bool, time.Duration, error) {
	var waited time.Duration
	for attempt := 1; ; attempt++ {
		done, err := check(ctx, attempt)
		if err != nil {
			return false, waited, err
		}
		if done {
			return true, waited, nil
		}
		if attempt >= p.attempts() {
			return false, waited, nil
		}

		d := p.Delay(attempt)
		if err := sleep(ctx, d); err != nil {
			return false, waited, err
		}
		waited += d
	}
}

// Do runs op until it succeeds or the attempts run out. onRetry, when set,
// is called before each wait.
func Do(ctx context.Context, p Policy, name string, op func(ctx context.Context) error, onRetry func(attempt int, delay time.Duration, err error)) error {
	var err error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == p.attempts() {
			break
		}

		d := p.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt, d, err)
		}
		if serr := sleep(ctx, d); serr != nil {
			return fmt.Errorf("%s interrupted after %d attempts: %w", name, attempt, serr)
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, p.attempts(), err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
