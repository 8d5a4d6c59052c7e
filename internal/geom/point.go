// Package geom provides the value types shared by every drawing backend:
// points, sizes, rectangles and 2D affine transforms.
//
// All types have value semantics. Operations return new values and never
// mutate their receiver.
package geom

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used by the approximate comparisons in this package.
const Epsilon = 1e-9

// Point is a location in a 2D coordinate space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p with both coordinates multiplied by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Offset returns p translated by (dx, dy).
func (p Point) Offset(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp interpolates linearly between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// ApplyTransform returns p mapped through t.
func (p Point) ApplyTransform(t Transform) Point {
	return t.Apply(p)
}

// ApproxEqual reports whether p and q are equal within Epsilon, scaled by
// the magnitude of the coordinates.
func (p Point) ApproxEqual(q Point) bool {
	return approxEqual(p.X, q.X) && approxEqual(p.Y, q.Y)
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// Inflate grows the size by (dw, dh). Negative deltas shrink it.
func (s Size) Inflate(dw, dh float64) Size {
	return Size{Width: s.Width + dw, Height: s.Height + dh}
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Epsilon*scale
}
