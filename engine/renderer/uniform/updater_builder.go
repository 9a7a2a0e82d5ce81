package uniform

// UpdaterBuilderOption is a functional option applied to an updater during construction via NewUpdater.
type UpdaterBuilderOption func(*updater)

// WithClock replaces the system clock used to measure elapsed time.
//
// Parameters:
//   - clock: the Clock to sample, ignored when nil
//
// Returns:
//   - UpdaterBuilderOption: a function that applies the clock option to an updater
func WithClock(clock Clock) UpdaterBuilderOption {
	return func(u *updater) {
		if clock != nil {
			u.clock = clock
		}
	}
}
