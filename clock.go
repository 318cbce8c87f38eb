package adminsession

import "time"

// Clock abstracts wall-clock reads and delayed callbacks so expiry behavior
// can be driven by a simulated clock in tests. The default implementation
// delegates to the time package.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn to run in its own goroutine after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the stoppable handle returned by [Clock.AfterFunc].
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the stop
	// happened before the callback started.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
