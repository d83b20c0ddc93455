// Package sim runs the proximity tracker headlessly against a scripted page.
//
// A [Scenario] lists the anchors of a page and a timed trace of pointer and
// viewport inputs. [Run] replays the trace on a virtual clock, firing the
// interval ticks and the prefetch-all timer at their exact simulated times,
// and reports which links were prefetched, when, and how far they were from
// the tracked position. Runs are deterministic: the same scenario always
// yields the same report.
//
// Inputs that fall on the same instant are applied in the order steps,
// interval tick, prefetch-all.
package sim

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxprefetch/pkg/geom"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// Trigger names what caused a dispatch.
type Trigger string

const (
	TriggerPointer     Trigger = "pointer"
	TriggerViewport    Trigger = "viewport"
	TriggerTick        Trigger = "tick"
	TriggerPrefetchAll Trigger = "prefetch-all"
)

// Dispatch is one inserted hint.
type Dispatch struct {
	Href    string
	At      time.Duration // since page ready
	Trigger Trigger
	Markup  string // the inserted <link> element

	// Distance from the tracked position to the link center. It is only
	// meaningful when HasPosition is set; prefetch-all can fire before any
	// input.
	Distance    float64
	HasPosition bool
}

// Failure is one hint insertion that failed.
type Failure struct {
	Href string
	At   time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Scenario   string
	TrackerID  string
	Config     prefetch.Config
	Until      time.Duration
	Dispatches []Dispatch
	Failures   []Failure
	Stats      prefetch.Stats
}

// Options tunes a run.
type Options struct {
	// Logger receives the tracker's trace output. Nil discards it unless
	// the scenario enables debug.
	Logger *log.Logger

	// Override is merged over the scenario options.
	Override prefetch.Options
}

// epoch is the virtual instant of page readiness.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type action struct {
	at    time.Duration
	order int // steps, ticks, prefetch-all
	seq   int
	step  *Step
	kind  Trigger
}

// Run replays s and returns the report.
func Run(s *Scenario, opts Options) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg, err := prefetch.Resolve(s.Options.Merge(opts.Override))
	if err != nil {
		return nil, err
	}

	clock := NewClock(epoch)
	page := NewPage(s.Links)
	trackerOpts := []prefetch.Option{prefetch.WithClock(clock)}
	if opts.Logger != nil {
		trackerOpts = append(trackerOpts, prefetch.WithLogger(opts.Logger))
	}
	tr := prefetch.New(page, cfg, trackerOpts...)

	until := runLength(s, cfg)
	actions := schedule(s, cfg, until)

	report := &Report{
		Scenario:  s.Name,
		TrackerID: tr.ID(),
		Config:    cfg,
		Until:     until,
	}

	for _, a := range actions {
		clock.Set(epoch.Add(a.at))
		hintsBefore := len(page.Hints())
		failedBefore := len(page.Failed())

		trigger := a.kind
		switch a.kind {
		case TriggerPointer:
			tr.PointerMove(*a.step.Pointer)
		case TriggerViewport:
			tr.ViewportChange(*a.step.Viewport)
		case TriggerTick:
			tr.Tick()
		case TriggerPrefetchAll:
			tr.PrefetchAll()
		}

		pos, _, known := tr.Position()
		for _, h := range page.Hints()[hintsBefore:] {
			d := Dispatch{Href: h.Href, At: a.at, Trigger: trigger, Markup: h.HTML(), HasPosition: known}
			if l, ok := page.Link(h.Href); ok && known {
				d.Distance = geom.Distance(pos, l.Rect.Center())
			}
			report.Dispatches = append(report.Dispatches, d)
		}
		for _, href := range page.Failed()[failedBefore:] {
			report.Failures = append(report.Failures, Failure{Href: href, At: a.at})
		}
	}

	report.Stats = tr.Stats()
	return report, nil
}

// runLength is Scenario.Until, or the last scheduled input plus one
// evaluation window so trailing interval ticks are observed.
func runLength(s *Scenario, cfg prefetch.Config) time.Duration {
	if s.Until > 0 {
		return time.Duration(s.Until) * time.Millisecond
	}
	var last time.Duration
	for _, st := range s.Steps {
		if at := time.Duration(st.At) * time.Millisecond; at > last {
			last = at
		}
	}
	if cfg.PrefetchAllLinks && cfg.PrefetchAllLinksDelay > last {
		last = cfg.PrefetchAllLinksDelay
	}
	tail := prefetch.MinEvaluationInterval
	if cfg.PredictionInterval > tail {
		tail = cfg.PredictionInterval
	}
	return last + tail
}

func schedule(s *Scenario, cfg prefetch.Config, until time.Duration) []action {
	var actions []action
	for i := range s.Steps {
		st := &s.Steps[i]
		kind := TriggerPointer
		if st.Viewport != nil {
			kind = TriggerViewport
		}
		actions = append(actions, action{
			at:    time.Duration(st.At) * time.Millisecond,
			order: 0,
			seq:   i,
			step:  st,
			kind:  kind,
		})
	}
	if !cfg.EventDriven() {
		for k := 1; time.Duration(k)*cfg.PredictionInterval <= until; k++ {
			actions = append(actions, action{
				at:    time.Duration(k) * cfg.PredictionInterval,
				order: 1,
				seq:   k,
				kind:  TriggerTick,
			})
		}
	}
	if cfg.PrefetchAllLinks && cfg.PrefetchAllLinksDelay <= until {
		actions = append(actions, action{at: cfg.PrefetchAllLinksDelay, order: 2, kind: TriggerPrefetchAll})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.at != b.at {
			return a.at < b.at
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.seq < b.seq
	})

	var out []action
	for _, a := range actions {
		if a.at <= until {
			out = append(out, a)
		}
	}
	return out
}
