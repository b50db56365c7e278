// Package geometry provides the floating-point points, sizes and rectangles
// the layout engine computes in, plus helpers for snapping logical
// coordinates to physical device pixels.
//
// All layout math runs in logical f64 coordinates. Rounding to the device
// pixel grid happens once, at the final output stage, so repeated resizes
// never accumulate rounding drift.
package geometry

import "math"

// Point is a location in logical coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in logical coordinates.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle in logical coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewRect builds a Rect from a corner point and a size.
func NewRect(loc Point, size Size) Rect {
	return Rect{X: loc.X, Y: loc.Y, W: size.W, H: size.H}
}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p shifted by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Loc returns the top-left corner.
func (r Rect) Loc() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rectangle's size.
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersects reports whether r and s overlap in a region of nonzero area.
func (r Rect) Intersects(s Rect) bool {
	return r.X < s.Right() && s.X < r.Right() && r.Y < s.Bottom() && s.Y < r.Bottom()
}

// Intersection returns the overlapping region of r and s, or a zero Rect
// when they do not overlap.
func (r Rect) Intersection(s Rect) Rect {
	x := math.Max(r.X, s.X)
	y := math.Max(r.Y, s.Y)
	right := math.Min(r.Right(), s.Right())
	bottom := math.Min(r.Bottom(), s.Bottom())
	if right <= x || bottom <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, W: right - x, H: bottom - y}
}

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// RoundToPixel rounds a logical coordinate to the nearest physical pixel
// boundary at the given scale.
func RoundToPixel(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}

// FloorToPixel rounds a logical coordinate down to a physical pixel boundary.
func FloorToPixel(v, scale float64) float64 {
	return math.Floor(v*scale) / scale
}

// CeilToPixel rounds a logical coordinate up to a physical pixel boundary.
func CeilToPixel(v, scale float64) float64 {
	return math.Ceil(v*scale) / scale
}

// SnapToPixels snaps a rectangle to the physical pixel grid. Edges are
// snapped independently so adjacent snapped rectangles still share edges.
func (r Rect) SnapToPixels(scale float64) Rect {
	x := RoundToPixel(r.X, scale)
	y := RoundToPixel(r.Y, scale)
	right := RoundToPixel(r.Right(), scale)
	bottom := RoundToPixel(r.Bottom(), scale)
	return Rect{X: x, Y: y, W: right - x, H: bottom - y}
}
