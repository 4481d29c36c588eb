// Package clock adapts clockwork so schedulers can run on a fake clock in
// tests and on the runtime clock in production.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type (
	// Clock is the time source shared by the job scheduler and the spawn loop.
	Clock = clockwork.Clock
	// Timer is a one-shot timer armed on a Clock.
	Timer = clockwork.Timer
	// Fake is a Clock that only moves when advanced.
	Fake = clockwork.FakeClock
)

// New returns the runtime clock, reporting times in UTC.
func New() Clock { return utcClock{clockwork.NewRealClock()} }

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake { return clockwork.NewFakeClockAt(start) }

type utcClock struct {
	clockwork.Clock
}

func (c utcClock) Now() time.Time { return c.Clock.Now().UTC() }

// TimerAt arms a timer for an absolute deadline. A deadline that is already
// due, or that passes while the timer is being armed, fires immediately.
func TimerAt(c Clock, deadline time.Time) Timer {
	t := c.NewTimer(c.Until(deadline))
	if c.Until(deadline) > 0 {
		return t
	}
	if !t.Stop() {
		// already fired
		return t
	}
	return c.NewTimer(0)
}
