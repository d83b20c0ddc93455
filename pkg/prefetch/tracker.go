package prefetch

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/proxprefetch/pkg/geom"
	"github.com/matzehuels/proxprefetch/pkg/observability"
)

// Stats counts what a tracker has done since it was created.
type Stats struct {
	Passes     int // evaluation passes that ran
	Throttled  int // passes skipped by the throttle gate
	Dispatched int // hints inserted
	Failures   int // hints that failed to insert
}

// Tracker owns the state of proximity prefetching for one page or component
// mount: the tracked position, the prefetched set and the throttle window.
//
// A Tracker is not safe for concurrent use. Either call its methods from the
// host's single event loop, or let [Tracker.Run] own it.
type Tracker struct {
	id     string
	cfg    Config
	doc    Document
	clock  Clock
	logger *log.Logger

	pos   position
	gate  *Gate
	seen  *PrefetchedSet
	disp  *Dispatcher
	stats Stats
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. By default the tracker logs to stderr at debug
// level when cfg.Debug is set and at error level otherwise.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock sets the clock used by the throttle gate. When c also
// implements [Timers], Run takes its interval ticker and prefetch-all timer
// from c; otherwise they run on wall-clock time.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithID sets the instance id reported to logs and hooks.
func WithID(id string) Option {
	return func(t *Tracker) { t.id = id }
}

// New returns a tracker observing doc with the resolved configuration cfg.
func New(doc Document, cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:   cfg,
		doc:   doc,
		clock: SystemClock(),
		seen:  NewPrefetchedSet(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	if t.logger == nil {
		level := log.ErrorLevel
		if cfg.Debug {
			level = log.DebugLevel
		}
		t.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "ProximityPrefetch",
			Level:  level,
		})
	}
	t.logger = t.logger.With("tracker", t.id)
	t.gate = NewGate(MinEvaluationInterval, t.clock)
	t.disp = NewDispatcher(doc, t.seen, t.logger, t.id)
	return t
}

// ID returns the tracker instance id.
func (t *Tracker) ID() string { return t.id }

// Config returns the configuration the tracker was created with.
func (t *Tracker) Config() Config { return t.cfg }

// Stats returns a snapshot of the tracker counters.
func (t *Tracker) Stats() Stats { return t.stats }

// Position returns the tracked position, its source, and whether any input
// has been recorded.
func (t *Tracker) Position() (geom.Point, Source, bool) {
	return t.pos.point, t.pos.source, t.pos.known()
}

// Prefetched returns the dispatched hrefs in dispatch order.
func (t *Tracker) Prefetched() []string { return t.seen.Hrefs() }

// PointerMove records a pointer position. In event-driven mode it runs an
// evaluation pass synchronously and returns the number of hints inserted.
func (t *Tracker) PointerMove(p geom.Point) int {
	t.pos.setPointer(p)
	if t.cfg.EventDriven() {
		return t.Evaluate()
	}
	return 0
}

// ViewportChange records a scroll or resize. It is ignored unless mobile
// support is enabled, and for a viewport with no area; otherwise the
// viewport center becomes the tracked position and, in event-driven mode, a
// pass runs.
func (t *Tracker) ViewportChange(vp geom.Rect) int {
	if !t.cfg.MobileSupport {
		return 0
	}
	if vp.Empty() {
		t.logger.Debug("ignoring empty viewport", "width", vp.Width, "height", vp.Height)
		return 0
	}
	t.pos.setViewport(vp)
	if t.cfg.EventDriven() {
		return t.Evaluate()
	}
	return 0
}

// Tick is the periodic timer callback of interval mode. It does nothing
// until a position has been recorded.
func (t *Tracker) Tick() int {
	if !t.pos.known() {
		return 0
	}
	return t.Evaluate()
}

// Evaluate runs one throttled proximity pass: discover, score, select and
// dispatch. It returns the number of hints inserted.
func (t *Tracker) Evaluate() int {
	if !t.pos.known() || !t.cfg.ProximityEnabled() {
		return 0
	}
	if !t.gate.Allow() {
		t.stats.Throttled++
		observability.Tracker().OnThrottled(t.id)
		return 0
	}

	start := time.Now()
	t.stats.Passes++

	cands := Discover(t.doc)
	if t.pos.source == SourceViewport {
		cands = withinViewport(cands, t.pos.viewport, t.cfg.ViewportMargin)
	}

	selected := Select(t.pos.point, cands, t.cfg.Threshold, t.cfg.MaxPrefetch)
	if len(selected) > 0 {
		t.logger.Debug("links within threshold", "count", len(selected), "threshold", t.cfg.Threshold)
	}

	hrefs := make([]string, len(selected))
	for i, s := range selected {
		hrefs[i] = s.Href
	}
	n := t.dispatch(hrefs)

	observability.Tracker().OnPass(t.id, len(cands), len(selected), time.Since(start))
	return n
}

// PrefetchAll dispatches every eligible link at once, ignoring proximity,
// the throttle and MaxPrefetch. Already-prefetched links are skipped.
func (t *Tracker) PrefetchAll() int {
	cands := Discover(t.doc)
	t.logger.Debug("prefetching all links", "count", len(cands))

	hrefs := make([]string, len(cands))
	for i, c := range cands {
		hrefs[i] = c.Href
	}
	return t.dispatch(hrefs)
}

func (t *Tracker) dispatch(hrefs []string) int {
	if len(hrefs) == 0 {
		return 0
	}
	res := t.disp.Dispatch(hrefs)
	t.stats.Dispatched += len(res.Dispatched)
	t.stats.Failures += res.Failed
	return len(res.Dispatched)
}

// Run drives the tracker from events until ctx is done or events is closed.
// It owns the interval ticker (when PredictionInterval > 0) and the
// prefetch-all timer (armed by the first Ready event) and stops both before
// returning. Events are handled in delivery order.
func (t *Tracker) Run(ctx context.Context, events <-chan Event) error {
	timers, ok := t.clock.(Timers)
	if !ok {
		timers = systemClock{}
	}

	var tick <-chan time.Time
	if !t.cfg.EventDriven() {
		c, stop := timers.Ticker(t.cfg.PredictionInterval)
		defer stop()
		tick = c
	}

	var (
		stopAll func()
		all     <-chan time.Time
	)
	defer func() {
		if stopAll != nil {
			stopAll()
		}
	}()

	t.logger.Debug("proximity prefetching initialized",
		"threshold", t.cfg.Threshold,
		"interval", t.cfg.PredictionInterval,
		"maxPrefetch", t.cfg.MaxPrefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case PointerMove:
				t.PointerMove(ev.Point)
			case ViewportChange:
				t.ViewportChange(ev.Viewport)
			case Ready:
				if t.cfg.PrefetchAllLinks && stopAll == nil {
					all, stopAll = timers.Timer(t.cfg.PrefetchAllLinksDelay)
				}
			}

		case <-tick:
			t.Tick()

		case <-all:
			all = nil
			t.PrefetchAll()
		}
	}
}
