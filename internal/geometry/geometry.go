// Package geometry provides the planar primitives used to lay out raster
// grids and clip rendered fields to a study-area boundary. Coordinates are
// geographic (X = longitude, Y = latitude) treated as planar, which is the
// approximation the whole engine works in at lagoon/lake scale.
package geometry

import "math"

// Point is a (longitude, latitude) pair.
type Point struct {
	X float64 // longitude
	Y float64 // latitude
}

// Rect is an axis-aligned bounding rectangle. It doubles as the fallback
// Region when no boundary polygon is supplied.
type Rect struct {
	Min Point
	Max Point
}

// EmptyRect is the identity for Extend.
var EmptyRect = Rect{
	Min: Point{X: math.Inf(1), Y: math.Inf(1)},
	Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
}

// Extend grows the rectangle to include point.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, p.X), Y: math.Min(r.Min.Y, p.Y)},
		Max: Point{X: math.Max(r.Max.X, p.X), Y: math.Max(r.Max.Y, p.Y)},
	}
}

// Inflate expands the rectangle by margin on every side.
func (r Rect) Inflate(margin float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - margin, Y: r.Min.Y - margin},
		Max: Point{X: r.Max.X + margin, Y: r.Max.Y + margin},
	}
}

// Width returns the longitudinal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the latitudinal extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle encloses no area.
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Contains reports whether p lies inside the rectangle (borders inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Bounds returns the rectangle itself, satisfying Region.
func (r Rect) Bounds() Rect { return r }

// Region is the pure geometric predicate the rendering pipeline clips
// against. Rect (fallback extent) and Polygon (study-area boundary) are
// interchangeable behind it.
type Region interface {
	Contains(p Point) bool
	Bounds() Rect
}
