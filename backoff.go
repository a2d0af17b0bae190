package main

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy computes backoff delays without sleeping, so retry behavior can
// be tested without a clock. Safe for concurrent use: jitter draws from the
// lock-protected package-level rand source.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Jitter      bool // false means deterministic delays
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 5,
		Jitter:      true,
	}
}

// Delay returns the wait before retry number attempt (1-based). retryAfter is
// the server's Retry-After hint, if any; it overrides the computed delay but
// is still capped. Returns false when the attempt budget is spent.
func (p RetryPolicy) Delay(attempt int, retryAfter time.Duration) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	d := p.BaseDelay << uint(attempt-1)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if retryAfter > 0 {
		d = retryAfter
		if d > p.MaxDelay {
			d = p.MaxDelay
		}
	} else if p.Jitter {
		// Up to 25% extra so synchronized clients spread out.
		d += time.Duration(rand.Int63n(int64(d)/4 + 1))
		if d > p.MaxDelay {
			d = p.MaxDelay
		}
	}
	return d, true
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
