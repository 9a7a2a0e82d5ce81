package uniform

import "time"

// updater is the implementation of the Updater interface.
type updater struct {
	clock   Clock
	start   time.Time
	elapsed float64
}

// Updater maintains the elapsed-seconds scalar uploaded to the GPU once per frame.
//
// The value starts at zero when the Updater is created and never decreases. It is held as a
// float64 and narrowed to float32 only when building the GPU record, so precision of the
// uploaded value degrades gradually after very long runs instead of wrapping.
type Updater interface {
	// Advance samples the clock and returns the updated GPU record.
	//
	// Returns:
	//   - TimeUniform: the record to upload for this frame
	Advance() TimeUniform

	// Elapsed returns the value computed by the last Advance, in seconds.
	//
	// Returns:
	//   - float64: the elapsed seconds, zero before the first Advance
	Elapsed() float64

	// Reset restarts the elapsed time from zero at the current clock reading.
	Reset()
}

var _ Updater = &updater{}

// NewUpdater creates an Updater whose zero point is the current clock reading.
//
// Parameters:
//   - options: variadic list of UpdaterBuilderOption functions
//
// Returns:
//   - Updater: the new updater
func NewUpdater(options ...UpdaterBuilderOption) Updater {
	u := &updater{clock: SystemClock()}
	for _, opt := range options {
		opt(u)
	}
	u.start = u.clock.Now()
	return u
}

func (u *updater) Advance() TimeUniform {
	if s := u.clock.Now().Sub(u.start).Seconds(); s > u.elapsed {
		u.elapsed = s
	}
	return TimeUniform{Elapsed: float32(u.elapsed)}
}

func (u *updater) Elapsed() float64 {
	return u.elapsed
}

func (u *updater) Reset() {
	u.start = u.clock.Now()
	u.elapsed = 0
}
