package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"overdub/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 5 * time.Second
	defaultCoefficient = 2.0
	defaultMaxDelay    = 2 * time.Minute
)

// Policy retries a fallible operation with exponential backoff. Only errors
// tagged transient (services.ErrTransient) are retried; everything else
// surfaces immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Coefficient float64
	MaxDelay    time.Duration

	// Sleeper overrides how backoff waits are performed (used in tests).
	Sleeper func(time.Duration)
}

// Default returns the policy used for translation-service calls.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		Coefficient: defaultCoefficient,
		MaxDelay:    defaultMaxDelay,
	}
}

// Do runs op until it succeeds, fails non-transiently, or attempts run out.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !services.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Delay returns the backoff before the attempt following the given 1-based
// attempt number: base, base*coeff, base*coeff^2, ...
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	coeff := p.Coefficient
	if coeff < 1 {
		coeff = defaultCoefficient
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * coeff)
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Permanent reports whether the error exhausted its retries or was never
// retryable, as opposed to a context cancellation.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
