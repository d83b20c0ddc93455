package prefetch

import "github.com/matzehuels/proxprefetch/pkg/geom"

// Event is an input delivered to [Tracker.Run].
type Event interface {
	isEvent()
}

// PointerMove reports a pointer position in viewport coordinates.
type PointerMove struct {
	Point geom.Point
}

// ViewportChange reports the viewport rectangle after a scroll or resize.
type ViewportChange struct {
	Viewport geom.Rect
}

// Ready reports that the document finished parsing. It starts the
// prefetch-all delay.
type Ready struct{}

func (PointerMove) isEvent()    {}
func (ViewportChange) isEvent() {}
func (Ready) isEvent()          {}
