// Package clock provides the time sources used by the benchmark engine.
//
// Two readings are exposed: a wall clock used for phase and deadline checks,
// and a monotonic nanosecond counter used to time individual calls.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source consumed by the engine and termination strategies.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// Nanotime returns a monotonic reading in nanoseconds. Only differences
	// between two readings are meaningful.
	Nanotime() int64
}

type realClock struct {
	base time.Time
}

// Real returns a Clock backed by the system clock.
func Real() Clock {
	return &realClock{base: time.Now()}
}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// Nanotime uses the monotonic reading carried by time.Time.
func (c *realClock) Nanotime() int64 {
	return int64(time.Since(c.base))
}

// Manual is a Clock that only moves when told to.
//
// Both readings advance together, so a function under test that calls
// Advance(d) is measured as taking exactly d.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	nano int64
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Nanotime returns nanoseconds elapsed since the clock was created.
func (m *Manual) Nanotime() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nano
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.nano += int64(d)
	m.mu.Unlock()
}

// Set moves the clock to t. Times before the current reading are ignored.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := t.Sub(m.now); d > 0 {
		m.now = t
		m.nano += int64(d)
	}
}
