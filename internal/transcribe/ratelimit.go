package transcribe

import (
	"context"
	"sync"
	"time"
)

// RateLimiter caps the number of acquisitions within any rolling time
// window. Acquisition is serialized through a gate channel so waiting
// callers are admitted first-acquired-first-served, while execution after a
// slot is granted runs fully in parallel.
type RateLimiter struct {
	limit  int
	window time.Duration

	gate chan struct{}

	mu    sync.Mutex
	calls []time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(d time.Duration) <-chan time.Time
}

// NewRateLimiter creates a limiter allowing limit acquisitions per rolling
// window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		gate:   make(chan struct{}, 1),
		now:    time.Now,
		sleep:  time.After,
	}
}

// Acquire blocks until a slot is available within the rolling window or ctx
// is cancelled. Each successful acquisition counts against the window from
// the moment it is granted.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Hold the gate while waiting so later callers queue behind us.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case l.gate <- struct{}{}:
	}
	defer func() { <-l.gate }()

	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)
		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.sleep(wait):
		}
	}
}

// evict drops acquisitions that have aged out of the window. Callers must
// hold l.mu.
func (l *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}
