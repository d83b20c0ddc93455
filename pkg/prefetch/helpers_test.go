package prefetch

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxprefetch/pkg/geom"
)

// fakeDoc is an in-memory Document. It is safe for concurrent use so Run
// tests can inspect it while the tracker goroutine writes.
type fakeDoc struct {
	mu      sync.Mutex
	anchors []Anchor
	hints   []Hint
	times   []time.Time
	fail    map[string]bool
	panics  map[string]bool
}

func newFakeDoc(anchors ...Anchor) *fakeDoc {
	return &fakeDoc{anchors: anchors, fail: map[string]bool{}, panics: map[string]bool{}}
}

func (d *fakeDoc) Anchors() []Anchor {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Anchor, len(d.anchors))
	copy(out, d.anchors)
	return out
}

func (d *fakeDoc) InsertHint(h Hint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panics[h.Href] {
		panic("createElement failed")
	}
	if d.fail[h.Href] {
		return errors.New("cannot create link element")
	}
	d.hints = append(d.hints, h)
	d.times = append(d.times, time.Now())
	return nil
}

func (d *fakeDoc) hrefs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.hints))
	for i, h := range d.hints {
		out[i] = h.Href
	}
	return out
}

func (d *fakeDoc) count(href string) int {
	n := 0
	for _, h := range d.hrefs() {
		if h == href {
			n++
		}
	}
	return n
}

// fakeClock is a manually advanced clock.
type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// manualTimers is a fakeClock whose ticker and timer fire only when the test
// sends on tick or fire.
type manualTimers struct {
	*fakeClock

	tick chan time.Time
	fire chan time.Time

	mu       sync.Mutex
	interval time.Duration
	delay    time.Duration
	stopped  int
}

func newManualTimers() *manualTimers {
	return &manualTimers{fakeClock: newFakeClock(), tick: make(chan time.Time), fire: make(chan time.Time)}
}

func (m *manualTimers) Ticker(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
	return m.tick, m.stop
}

func (m *manualTimers) Timer(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m.fire, m.stop
}

func (m *manualTimers) stop() {
	m.mu.Lock()
	m.stopped++
	m.mu.Unlock()
}

// pointer is the fixed pointer position used by distance-based tests.
var pointer = geom.Point{X: 300, Y: 300}

// linkAt returns an anchor whose center lies dist pixels right of pointer.
func linkAt(href string, dist float64) Anchor {
	return Anchor{
		Href: href,
		Rect: geom.Rect{Left: pointer.X + dist - 20, Top: pointer.Y - 5, Width: 40, Height: 10},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestTracker(doc Document, cfg Config, clock Clock) *Tracker {
	return New(doc, cfg, WithLogger(quietLogger()), WithClock(clock), WithID("test"))
}

func mustResolve(o Options) Config {
	cfg, err := Resolve(o)
	if err != nil {
		panic(err)
	}
	return cfg
}
