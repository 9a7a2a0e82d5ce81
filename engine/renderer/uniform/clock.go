package uniform

import "time"

// Clock is a source of monotonic time.
type Clock interface {
	// Now returns the current time. Successive calls must not go backwards.
	Now() time.Time
}

// systemClock reads the wall clock, whose values carry Go's monotonic reading.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the Clock backed by time.Now.
//
// Returns:
//   - Clock: the system clock
func SystemClock() Clock {
	return systemClock{}
}
