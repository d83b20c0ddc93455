package prefetch

import (
	"html"

	"github.com/matzehuels/proxprefetch/pkg/geom"
)

// Resource hint attributes for document prefetch. The serving layer keys
// document prefetches on exactly this rel/as pair.
const (
	HintRel = "prefetch"
	HintAs  = "document"
)

// Anchor is a link element as seen by the host: its raw href attribute and
// its current bounding rectangle. An empty Href means the attribute is
// missing.
type Anchor struct {
	Href string
	Rect geom.Rect
}

// Hint is a resource hint to be inserted into the document head.
type Hint struct {
	Rel  string
	As   string
	Href string
}

// NewHint returns the document prefetch hint for href.
func NewHint(href string) Hint {
	return Hint{Rel: HintRel, As: HintAs, Href: href}
}

// HTML renders the hint as a link element.
func (h Hint) HTML() string {
	return `<link rel="` + html.EscapeString(h.Rel) +
		`" href="` + html.EscapeString(h.Href) +
		`" as="` + html.EscapeString(h.As) + `">`
}

// Document is the host page a tracker observes and mutates.
//
// Anchors is called once per evaluation pass and must report current
// geometry; rectangles are never cached across passes because layout can
// change between them. InsertHint appends a hint to the document head.
type Document interface {
	Anchors() []Anchor
	InsertHint(h Hint) error
}
