// Package clock abstracts time for components that stamp or expire data,
// so tests can advance time deterministically.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually advanced clock for tests.
type MockClock struct {
	currentTime time.Time
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Set(t time.Time) {
	c.currentTime = t
}

func (c *MockClock) Advance(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}
