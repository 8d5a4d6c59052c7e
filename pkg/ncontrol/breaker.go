package ncontrol

import (
	"sync"
	"time"
)

// BreakerState is the state of a reloadBreaker.
type BreakerState int

const (
	// BreakerClosed lets reloads through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects reloads until the cooldown passes.
	BreakerOpen
	// BreakerHalfOpen lets one trial reload through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// reloadBreaker stops retrying a scene that keeps failing to load. A
// broken file being saved repeatedly would otherwise rebuild a Lua runtime
// on every write.
type reloadBreaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

func newReloadBreaker(threshold int, cooldown time.Duration) *reloadBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}
	return &reloadBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Execute runs fn unless the breaker is open, and records its result.
func (b *reloadBreaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrReloadSuspended
	}
	err := fn()
	b.record(err)
	return err
}

func (b *reloadBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		return true
	case BreakerHalfOpen:
		// One trial is already running.
		return false
	}
	return true
}

func (b *reloadBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.state, b.failures = BreakerClosed, 0
		return
	}
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state, b.openedAt = BreakerOpen, b.now()
	}
}

// State returns the current state.
func (b *reloadBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker and clears the failure count.
func (b *reloadBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state, b.failures = BreakerClosed, 0
}
