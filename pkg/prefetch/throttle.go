package prefetch

import "time"

// Clock supplies the current time. Tests and the simulator substitute a
// virtual clock.
type Clock interface {
	Now() time.Time
}

// Timers is implemented by clocks that also drive the interval ticker and
// the prefetch-all timer of [Tracker.Run]. The returned func stops the
// ticker or timer.
type Timers interface {
	Ticker(d time.Duration) (<-chan time.Time, func())
	Timer(d time.Duration) (<-chan time.Time, func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (systemClock) Timer(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

// SystemClock returns a Clock backed by the time package. It also
// implements Timers.
func SystemClock() Clock { return systemClock{} }

// Gate is a throttle: Allow reports false when less than the minimum
// interval has elapsed since the last allowed call. A skipped call does not
// move the window. The first call is always allowed.
type Gate struct {
	min    time.Duration
	clock  Clock
	last   time.Time
	primed bool
}

// NewGate returns a gate with the given floor. A nil clock means the
// system clock.
func NewGate(min time.Duration, clock Clock) *Gate {
	if clock == nil {
		clock = SystemClock()
	}
	return &Gate{min: min, clock: clock}
}

// Allow records a pass attempt and reports whether it may run.
func (g *Gate) Allow() bool {
	now := g.clock.Now()
	if g.primed && now.Sub(g.last) < g.min {
		return false
	}
	g.last = now
	g.primed = true
	return true
}
