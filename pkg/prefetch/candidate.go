package prefetch

import (
	"strings"

	"github.com/matzehuels/proxprefetch/pkg/geom"
)

// Candidate is an eligible anchor paired with the center of its rectangle.
// It is derived on every pass and never stored.
type Candidate struct {
	Href   string
	Rect   geom.Rect
	Center geom.Point
}

// Eligible reports whether href navigates to another document of the same
// site: it must be present, must not be a fragment-only link, and must
// either start with "/" or carry no "://" scheme separator.
func Eligible(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	return strings.HasPrefix(href, "/") || !strings.Contains(href, "://")
}

// Discover returns the eligible anchors of doc in document order.
func Discover(doc Document) []Candidate {
	anchors := doc.Anchors()
	if len(anchors) == 0 {
		return nil
	}

	out := make([]Candidate, 0, len(anchors))
	for _, a := range anchors {
		if !Eligible(a.Href) {
			continue
		}
		out = append(out, Candidate{
			Href:   a.Href,
			Rect:   a.Rect,
			Center: a.Rect.Center(),
		})
	}
	return out
}

// withinViewport keeps candidates whose rectangle intersects viewport
// grown by margin.
func withinViewport(cands []Candidate, viewport geom.Rect, margin float64) []Candidate {
	area := viewport.Inflate(margin)
	out := cands[:0:0]
	for _, c := range cands {
		if c.Rect.Intersects(area) {
			out = append(out, c)
		}
	}
	return out
}
