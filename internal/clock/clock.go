// Package clock is the only source of "today" for the engine.
package clock

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"
)

// Clock supplies the current calendar date.
type Clock interface {
	Today() civil.Date
}

// System reads the wall clock in a single configured zone.
type System struct {
	// Location defaults to time.Local when nil.
	Location *time.Location
}

// NewSystem returns a clock for the local zone.
func NewSystem() *System {
	return &System{}
}

// Today returns the current date in the configured zone.
func (s *System) Today() civil.Date {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(time.Now().In(loc))
}

// Fixed is a pinned clock. It is safe for concurrent use so tests can move
// it while a scheduler goroutine reads it.
type Fixed struct {
	mu    sync.Mutex
	today civil.Date
}

// NewFixed returns a clock pinned to d.
func NewFixed(d civil.Date) *Fixed {
	return &Fixed{today: d}
}

// Today returns the pinned date.
func (f *Fixed) Today() civil.Date {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.today
}

// Set moves the clock to d.
func (f *Fixed) Set(d civil.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.today = d
}

// Advance moves the clock forward by n days.
func (f *Fixed) Advance(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.today = f.today.AddDays(n)
}

// MustParse parses a YYYY-MM-DD date and panics on failure. Intended for
// tests and constants.
func MustParse(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
