// Package clock supplies the wall-clock source for elapsed-time computations
// so that callers can swap in a managed clock under test.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

// New returns a Clock backed by time.Now.
func New() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a hand-driven clock for tests.
type ManagedClock struct {
	mu     sync.Mutex
	start  time.Time
	offset time.Duration
}

// NewManaged returns a ManagedClock frozen at start.
func NewManaged(start time.Time) *ManagedClock {
	return &ManagedClock{start: start}
}

// Now returns the managed instant.
func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(c.offset)
}

// Advance moves the clock forward by d and returns the new instant.
func (c *ManagedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.offset += d
	}
	return c.start.Add(c.offset)
}
