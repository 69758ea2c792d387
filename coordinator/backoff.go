package coordinator

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// DefaultMaxBackoff bounds the random pause between two polls
const DefaultMaxBackoff = 100 * time.Millisecond

// Backoff draws jittered pauses in [0, max). Coordinators sharing one
// Backoff pick up a new max immediately.
type Backoff struct {
	max atomic.Int64
}

// NewBackoff creates a Backoff with the given upper bound
func NewBackoff(max time.Duration) *Backoff {
	b := &Backoff{}
	b.SetMax(max)
	return b
}

// SetMax changes the upper bound. Negative values are treated as zero.
func (b *Backoff) SetMax(max time.Duration) {
	if max < 0 {
		max = 0
	}
	b.max.Store(int64(max))
}

// Max returns the current upper bound
func (b *Backoff) Max() time.Duration {
	return time.Duration(b.max.Load())
}

// Next returns a random pause in [0, Max())
func (b *Backoff) Next() time.Duration {
	max := b.max.Load()
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(max))
}

// Wait sleeps for Next() and returns false if ctx ended first
func (b *Backoff) Wait(ctx context.Context) bool {
	d := b.Next()
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
