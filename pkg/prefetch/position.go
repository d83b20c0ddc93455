package prefetch

import "github.com/matzehuels/proxprefetch/pkg/geom"

// Source identifies where the tracked position came from.
type Source int

const (
	// SourceNone means no input has been recorded yet. The origin is a
	// valid pointer position, so "unset" is tracked separately from it.
	SourceNone Source = iota
	SourcePointer
	SourceViewport
)

func (s Source) String() string {
	switch s {
	case SourcePointer:
		return "pointer"
	case SourceViewport:
		return "viewport"
	default:
		return "none"
	}
}

// position holds the latest tracked point, overwritten in place.
type position struct {
	point    geom.Point
	source   Source
	viewport geom.Rect
}

func (p *position) setPointer(pt geom.Point) {
	p.point = pt
	p.source = SourcePointer
}

// setViewport derives a synthetic position at the viewport center.
func (p *position) setViewport(vp geom.Rect) {
	p.viewport = vp
	p.point = vp.Center()
	p.source = SourceViewport
}

func (p *position) known() bool { return p.source != SourceNone }
