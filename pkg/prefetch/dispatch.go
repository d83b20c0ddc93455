package prefetch

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxprefetch/pkg/errors"
	"github.com/matzehuels/proxprefetch/pkg/observability"
)

// Dispatcher inserts prefetch hints into a document, at most once per href.
type Dispatcher struct {
	doc       Document
	seen      *PrefetchedSet
	logger    *log.Logger
	trackerID string
}

// NewDispatcher returns a dispatcher writing to doc and recording into seen.
func NewDispatcher(doc Document, seen *PrefetchedSet, logger *log.Logger, trackerID string) *Dispatcher {
	if seen == nil {
		seen = NewPrefetchedSet()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{doc: doc, seen: seen, logger: logger, trackerID: trackerID}
}

// DispatchResult summarizes one Dispatch call.
type DispatchResult struct {
	Dispatched []string
	Skipped    int
	Failed     int
}

// Dispatch inserts a hint for every href not yet in the prefetched set.
// A failure on one href is logged and does not stop the others; the failed
// href stays out of the set so a later pass may retry it.
func (d *Dispatcher) Dispatch(hrefs []string) DispatchResult {
	var res DispatchResult
	for _, href := range hrefs {
		if d.seen.Has(href) {
			res.Skipped++
			continue
		}

		d.logger.Debug("prefetching route", "href", href)

		if err := d.insert(href); err != nil {
			res.Failed++
			d.logger.Warn("error prefetching route", "href", href, "err", err)
			observability.Tracker().OnDispatchError(d.trackerID, href, err)
			continue
		}

		d.seen.Add(href)
		res.Dispatched = append(res.Dispatched, href)
		observability.Tracker().OnDispatch(d.trackerID, href)
	}
	return res
}

// insert creates one hint. Host bindings such as syscall/js report element
// creation failures by panicking, so a panic is converted into an error
// confined to this href.
func (d *Dispatcher) insert(href string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "insert hint: %v", r)
		}
	}()

	if err := errors.ValidateHref(href); err != nil {
		return err
	}
	if err := d.doc.InsertHint(NewHint(href)); err != nil {
		return fmt.Errorf("insert hint: %w", err)
	}
	return nil
}
