package data

import "time"

// TimeProvider provides the current time and can be swapped for a fixed
// clock in tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider implements TimeProvider with a fixed time for testing.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a new FixedTimeProvider with the given time.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// SetTime updates the fixed time.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.fixedTime = t
}

// AddTime advances the fixed time by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.fixedTime = f.fixedTime.Add(d)
}
