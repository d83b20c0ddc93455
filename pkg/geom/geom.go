// Package geom provides the 2D viewport geometry used by the proximity
// heuristic: points, rectangles, centers and Euclidean distance.
//
// All coordinates are CSS pixels in viewport space, the same space the
// browser reports for pointer events and element bounding rectangles.
package geom

import "math"

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x" toml:"x" yaml:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y"`
}

// Rect is an axis-aligned rectangle as reported by getBoundingClientRect.
type Rect struct {
	Left   float64 `json:"left" toml:"left" yaml:"left"`
	Top    float64 `json:"top" toml:"top" yaml:"top"`
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Center returns {left + width/2, top + height/2}.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inflate grows the rectangle by margin on every side.
// A negative margin shrinks it; the result never has negative size.
func (r Rect) Inflate(margin float64) Rect {
	out := Rect{
		Left:   r.Left - margin,
		Top:    r.Top - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Intersects reports whether r and o overlap or touch.
// Zero-size rectangles still intersect when they lie on or inside o,
// since a collapsed element is a degenerate but valid position.
func (r Rect) Intersects(o Rect) bool {
	return r.Left <= o.Right() && o.Left <= r.Right() &&
		r.Top <= o.Bottom() && o.Top <= r.Bottom()
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
