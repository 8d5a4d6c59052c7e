package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle given by its top-left corner and size.
// Width and Height may be negative after shrinking; such rects are empty.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// R is shorthand for Rect{X: x, Y: y, Width: w, Height: h}.
func R(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// RectFromPoints returns the smallest rect containing every point.
// It returns the zero Rect when pts is empty.
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rect's dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corners returns the four corners clockwise from the top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r. The left and top edges are
// inclusive, the right and bottom edges exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Inflate grows the rect by dw horizontally and dh vertically, keeping the
// center fixed. Negative deltas shrink it.
func (r Rect) Inflate(dw, dh float64) Rect {
	return Rect{
		X:      r.X - dw/2,
		Y:      r.Y - dh/2,
		Width:  r.Width + dw,
		Height: r.Height + dh,
	}
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Intersect returns the overlap of r and o. The result is empty when the
// rects do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Union returns the smallest rect containing both r and o. Empty rects are
// ignored.
func (r Rect) Union(o Rect) Rect {
	switch {
	case r.IsEmpty():
		return o
	case o.IsEmpty():
		return r
	}
	return RectFromPoints(r.Origin(), Point{X: r.Right(), Y: r.Bottom()}, o.Origin(), Point{X: o.Right(), Y: o.Bottom()})
}

// TransformBounds returns the axis-aligned bounds of r after mapping its
// corners through t.
func (r Rect) TransformBounds(t Transform) Rect {
	c := r.Corners()
	return RectFromPoints(t.Apply(c[0]), t.Apply(c[1]), t.Apply(c[2]), t.Apply(c[3]))
}

// ApproxEqual reports whether all fields match within tolerance.
func (r Rect) ApproxEqual(o Rect) bool {
	return approxEqual(r.X, o.X) && approxEqual(r.Y, o.Y) &&
		approxEqual(r.Width, o.Width) && approxEqual(r.Height, o.Height)
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}
