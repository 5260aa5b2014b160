package pipeline

import (
	"context"
	"time"
)

// backoff doubles its delay on every wait up to maxDelay and drops back to the
// initial delay on reset. It is used from the Run goroutine only.
type backoff struct {
	initial  time.Duration
	maxDelay time.Duration
	current  time.Duration
}

func newBackoff(initial, maxDelay time.Duration) *backoff {
	return &backoff{initial: initial, maxDelay: maxDelay, current: initial}
}

func (b *backoff) reset() {
	b.current = b.initial
}

// wait sleeps for the current delay and then advances it. It returns false
// if ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	b.current = min(b.current*2, b.maxDelay)
	return true
}
