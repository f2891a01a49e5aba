// Package clock abstracts time and timer scheduling so that debounce and
// backoff logic can be driven by virtual time in tests instead of wall-clock
// sleeps.
package clock

import "time"

// Timer is a cancellable scheduled task.
type Timer interface {
	// Stop prevents the task from firing. Reports whether the call stopped
	// the task before it ran.
	Stop() bool
}

// Clock provides the current time and timer scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall-clock implementation backed by the time package.
type Real struct{}

// New returns the wall-clock Clock.
func New() *Real {
	return &Real{}
}

// Now returns the current wall-clock time.
func (*Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f to run in its own goroutine after d.
func (*Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
