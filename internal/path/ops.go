// Package path describes outlines as an ordered sequence of drawing
// operations and translates them for backends.
//
// Op is a closed set of variants. Backends never inspect ops directly; they
// implement Sink and let Walk resolve current points and arcs.
package path

import (
	"fmt"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// Kind identifies an Op variant.
type Kind int

const (
	// KindMoveTo starts a new contour.
	KindMoveTo Kind = iota
	// KindLineTo draws a straight segment.
	KindLineTo
	// KindCurveTo draws a cubic bezier segment.
	KindCurveTo
	// KindArcTo draws a circular arc segment.
	KindArcTo
	// KindClosePath closes the contour back to its starting point.
	KindClosePath
)

// String returns the operation name.
func (k Kind) String() string {
	switch k {
	case KindMoveTo:
		return "MoveTo"
	case KindLineTo:
		return "LineTo"
	case KindCurveTo:
		return "CurveTo"
	case KindArcTo:
		return "ArcTo"
	case KindClosePath:
		return "ClosePath"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Op is one path instruction. The set of implementations is closed: only
// the types in this package satisfy it.
type Op interface {
	Kind() Kind
	op()
}

// MoveTo starts a new contour at Point.
type MoveTo struct {
	Point geom.Point
}

// LineTo draws a straight line from the current point to Point.
type LineTo struct {
	Point geom.Point
}

// CurveTo draws a cubic bezier from the current point to Point using two
// control points.
type CurveTo struct {
	Point    geom.Point
	Control1 geom.Point
	Control2 geom.Point
}

// ArcTo draws a circular arc of the given radius from the current point to
// Point. Of the (up to) four candidate arcs, LargeArc picks the one spanning
// more than 180 degrees and SweepClockwise picks the direction of travel on a
// y-down surface. A radius too small to reach Point is scaled up until the
// arc is a half circle.
type ArcTo struct {
	Point          geom.Point
	Radius         float64
	LargeArc       bool
	SweepClockwise bool
}

// ClosePath draws a straight segment back to the contour's MoveTo point.
type ClosePath struct{}

func (MoveTo) Kind() Kind    { return KindMoveTo }
func (LineTo) Kind() Kind    { return KindLineTo }
func (CurveTo) Kind() Kind   { return KindCurveTo }
func (ArcTo) Kind() Kind     { return KindArcTo }
func (ClosePath) Kind() Kind { return KindClosePath }

func (MoveTo) op()    {}
func (LineTo) op()    {}
func (CurveTo) op()   {}
func (ArcTo) op()     {}
func (ClosePath) op() {}

// Builder accumulates ops with a fluent API.
//
//	ops := new(path.Builder).MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10).Close().Ops()
type Builder struct {
	ops []Op
}

// MoveTo appends a MoveTo op.
func (b *Builder) MoveTo(x, y float64) *Builder {
	b.ops = append(b.ops, MoveTo{Point: geom.Pt(x, y)})
	return b
}

// LineTo appends a LineTo op.
func (b *Builder) LineTo(x, y float64) *Builder {
	b.ops = append(b.ops, LineTo{Point: geom.Pt(x, y)})
	return b
}

// CurveTo appends a cubic segment ending at (x, y).
func (b *Builder) CurveTo(c1x, c1y, c2x, c2y, x, y float64) *Builder {
	b.ops = append(b.ops, CurveTo{
		Point:    geom.Pt(x, y),
		Control1: geom.Pt(c1x, c1y),
		Control2: geom.Pt(c2x, c2y),
	})
	return b
}

// ArcTo appends an arc segment ending at (x, y).
func (b *Builder) ArcTo(x, y, radius float64, largeArc, sweepClockwise bool) *Builder {
	b.ops = append(b.ops, ArcTo{
		Point:          geom.Pt(x, y),
		Radius:         radius,
		LargeArc:       largeArc,
		SweepClockwise: sweepClockwise,
	})
	return b
}

// Close appends a ClosePath op.
func (b *Builder) Close() *Builder {
	b.ops = append(b.ops, ClosePath{})
	return b
}

// Append adds arbitrary ops.
func (b *Builder) Append(ops ...Op) *Builder {
	b.ops = append(b.ops, ops...)
	return b
}

// Rect appends a closed rectangle contour.
func (b *Builder) Rect(r geom.Rect) *Builder {
	return b.Append(RectOps(r)...)
}

// Ellipse appends a closed ellipse contour inscribed in r.
func (b *Builder) Ellipse(r geom.Rect) *Builder {
	return b.Append(EllipseOps(r)...)
}

// Len returns the number of ops added so far.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Reset discards all ops.
func (b *Builder) Reset() {
	b.ops = b.ops[:0]
}

// Ops returns a copy of the accumulated ops.
func (b *Builder) Ops() []Op {
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// RectOps returns the contour used for rectangle shorthands, clockwise from
// the top-left corner.
func RectOps(r geom.Rect) []Op {
	c := r.Corners()
	return []Op{
		MoveTo{Point: c[0]},
		LineTo{Point: c[1]},
		LineTo{Point: c[2]},
		LineTo{Point: c[3]},
		ClosePath{},
	}
}

// kappa is the control point distance for a quarter circle cubic.
const kappa = 0.5522847498307936

// EllipseOps returns four cubic segments approximating the ellipse
// inscribed in r.
func EllipseOps(r geom.Rect) []Op {
	cx, cy := r.Center().X, r.Center().Y
	rx, ry := r.Width/2, r.Height/2
	ox, oy := rx*kappa, ry*kappa
	return []Op{
		MoveTo{Point: geom.Pt(cx+rx, cy)},
		CurveTo{Control1: geom.Pt(cx+rx, cy+oy), Control2: geom.Pt(cx+ox, cy+ry), Point: geom.Pt(cx, cy+ry)},
		CurveTo{Control1: geom.Pt(cx-ox, cy+ry), Control2: geom.Pt(cx-rx, cy+oy), Point: geom.Pt(cx-rx, cy)},
		CurveTo{Control1: geom.Pt(cx-rx, cy-oy), Control2: geom.Pt(cx-ox, cy-ry), Point: geom.Pt(cx, cy-ry)},
		CurveTo{Control1: geom.Pt(cx+ox, cy-ry), Control2: geom.Pt(cx+rx, cy-oy), Point: geom.Pt(cx+rx, cy)},
		ClosePath{},
	}
}
