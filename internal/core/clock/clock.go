// Package clock is the single source of "now" for expiry checks.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. Used by tests.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At
}

// Manual is a settable clock for tests that need time to pass.
type Manual struct {
	mu sync.Mutex
	at time.Time
}

func NewManual(at time.Time) *Manual {
	return &Manual{at: at}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at
}

func (m *Manual) Set(at time.Time) {
	m.mu.Lock()
	m.at = at
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.at = m.at.Add(d)
	m.mu.Unlock()
}
