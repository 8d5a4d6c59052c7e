package path

import (
	"errors"
	"fmt"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// ErrMalformed is returned when a segment op appears without a current
// point, for example a LineTo before any MoveTo.
var ErrMalformed = errors.New("malformed path")

// Sink receives a validated path. Walk calls ArcTo only with arcs that draw
// something; degenerate arcs are reported as LineTo or dropped.
type Sink interface {
	MoveTo(p geom.Point)
	LineTo(p geom.Point)
	CubicTo(c1, c2, p geom.Point)
	ArcTo(a ArcSegment)
	Close()
}

// Validate checks that every segment op has a current point to start from
// and is one of the five op values. Pointers to ops are rejected. The error
// wraps ErrMalformed and names the offending op and index.
func Validate(ops []Op) error {
	current := false
	for i, op := range ops {
		switch op.(type) {
		case MoveTo:
			current = true
		case LineTo, CurveTo, ArcTo, ClosePath:
			if !current {
				return fmt.Errorf("%w: %s at index %d has no current point", ErrMalformed, op.Kind(), i)
			}
		case nil:
			return fmt.Errorf("%w: nil op at index %d", ErrMalformed, i)
		default:
			return fmt.Errorf("%w: unsupported op %T at index %d", ErrMalformed, op, i)
		}
	}
	return nil
}

// Walk validates ops and replays them into s. Nothing reaches s when
// validation fails.
func Walk(ops []Op, s Sink) error {
	if err := Validate(ops); err != nil {
		return err
	}
	var current, start geom.Point
	for _, op := range ops {
		switch o := op.(type) {
		case MoveTo:
			s.MoveTo(o.Point)
			current, start = o.Point, o.Point
		case LineTo:
			s.LineTo(o.Point)
			current = o.Point
		case CurveTo:
			s.CubicTo(o.Control1, o.Control2, o.Point)
			current = o.Point
		case ArcTo:
			seg, res := resolveArc(current, o)
			switch res {
			case arcLine:
				s.LineTo(o.Point)
			case arcCurve:
				s.ArcTo(seg)
			}
			current = o.Point
		case ClosePath:
			s.Close()
			current = start
		}
	}
	return nil
}

// CubicSink adapts a backend without native arcs: ArcTo is forwarded as a
// run of CubicTo calls.
type CubicSink struct {
	Sink
}

// ArcTo implements Sink.
func (c CubicSink) ArcTo(a ArcSegment) {
	for _, cb := range a.Cubics() {
		c.Sink.CubicTo(cb.Control1, cb.Control2, cb.Point)
	}
}

// Bounds returns the bounds of every on-curve and control point of ops,
// with arcs expanded to cubics. ok is false for an empty or malformed path.
func Bounds(ops []Op) (r geom.Rect, ok bool) {
	var b boundsSink
	if err := Walk(ops, CubicSink{Sink: &b}); err != nil || len(b.pts) == 0 {
		return geom.Rect{}, false
	}
	return geom.RectFromPoints(b.pts...), true
}

type boundsSink struct {
	pts []geom.Point
}

func (b *boundsSink) MoveTo(p geom.Point)          { b.pts = append(b.pts, p) }
func (b *boundsSink) LineTo(p geom.Point)          { b.pts = append(b.pts, p) }
func (b *boundsSink) CubicTo(c1, c2, p geom.Point) { b.pts = append(b.pts, c1, c2, p) }
func (b *boundsSink) ArcTo(ArcSegment)             {}
func (b *boundsSink) Close()                       {}

// Transform returns ops with every point mapped through t. Arc radii are
// scaled by t's ScaleFactor, which is exact only for similarity transforms.
func Transform(ops []Op, t geom.Transform) []Op {
	out := make([]Op, len(ops))
	for i, op := range ops {
		switch o := op.(type) {
		case MoveTo:
			out[i] = MoveTo{Point: t.Apply(o.Point)}
		case LineTo:
			out[i] = LineTo{Point: t.Apply(o.Point)}
		case CurveTo:
			out[i] = CurveTo{Point: t.Apply(o.Point), Control1: t.Apply(o.Control1), Control2: t.Apply(o.Control2)}
		case ArcTo:
			sweep := o.SweepClockwise
			if t.Determinant() < 0 {
				sweep = !sweep
			}
			out[i] = ArcTo{Point: t.Apply(o.Point), Radius: o.Radius * t.ScaleFactor(), LargeArc: o.LargeArc, SweepClockwise: sweep}
		default:
			out[i] = op
		}
	}
	return out
}
