package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// ErrBroken is returned by Page.InsertHint for links marked broken.
var ErrBroken = errors.New("link element could not be created")

// Clock is a manually advanced prefetch.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock { return &Clock{now: start} }

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Page is an in-memory prefetch.Document: a fixed set of anchors and the
// head element the hints are appended to.
type Page struct {
	mu     sync.Mutex
	links  []Link
	hints  []prefetch.Hint
	failed []string
}

// NewPage returns a page with links in DOM order.
func NewPage(links []Link) *Page {
	return &Page{links: append([]Link(nil), links...)}
}

// Anchors implements prefetch.Document.
func (p *Page) Anchors() []prefetch.Anchor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]prefetch.Anchor, len(p.links))
	for i, l := range p.links {
		out[i] = prefetch.Anchor{Href: l.Href, Rect: l.Rect}
	}
	return out
}

// InsertHint implements prefetch.Document.
func (p *Page) InsertHint(h prefetch.Hint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.links {
		if l.Href == h.Href && l.Broken {
			p.failed = append(p.failed, h.Href)
			return ErrBroken
		}
	}
	p.hints = append(p.hints, h)
	return nil
}

// Hints returns the inserted hints in insertion order.
func (p *Page) Hints() []prefetch.Hint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]prefetch.Hint(nil), p.hints...)
}

// Failed returns the hrefs whose insertion failed, once per attempt.
func (p *Page) Failed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.failed...)
}

// Link returns the link with href, if any.
func (p *Page) Link(href string) (Link, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.links {
		if l.Href == href {
			return l, true
		}
	}
	return Link{}, false
}
