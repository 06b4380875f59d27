// Package throttle drops repeated calls to an operation that arrive within a
// minimum interval of the last accepted start.
package throttle

import (
	"context"
	"sync"
	"time"
)

type Option func(*Guard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// Guard is safe for concurrent use. Dropped calls are not queued or coalesced.
type Guard struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	last     time.Time
}

func New(minInterval time.Duration, opts ...Option) *Guard {
	g := &Guard{interval: minInterval, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow records a start and returns true when the interval has elapsed since
// the previous accepted start.
func (g *Guard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}

// Do runs fn unless throttled. ran is false when the call was dropped, in
// which case err is always nil.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) (ran bool, err error) {
	if !g.Allow() {
		return false, nil
	}
	return true, fn(ctx)
}

// Reset forgets the last start so the next call runs immediately.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.last = time.Time{}
	g.mu.Unlock()
}

// LastStart is the zero time when nothing has run since the last Reset.
func (g *Guard) LastStart() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func (g *Guard) Interval() time.Duration { return g.interval }
