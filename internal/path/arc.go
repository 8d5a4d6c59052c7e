package path

import (
	"math"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// ArcSegment is an ArcTo resolved against its starting point into center
// form. Angles are in radians measured from the positive x axis; a positive
// Sweep turns clockwise on a y-down surface.
type ArcSegment struct {
	From   geom.Point
	To     geom.Point
	Center geom.Point
	Radius float64
	Start  float64
	Sweep  float64
}

// Clockwise reports the direction of travel.
func (a ArcSegment) Clockwise() bool {
	return a.Sweep > 0
}

// End returns the end angle.
func (a ArcSegment) End() float64 {
	return a.Start + a.Sweep
}

// PointAt returns the point at fraction t of the sweep.
func (a ArcSegment) PointAt(t float64) geom.Point {
	s, c := math.Sincos(a.Start + a.Sweep*t)
	return geom.Pt(a.Center.X+a.Radius*c, a.Center.Y+a.Radius*s)
}

// Cubic is one cubic bezier piece starting at the previous piece's end.
type Cubic struct {
	Control1 geom.Point
	Control2 geom.Point
	Point    geom.Point
}

// Cubics approximates the arc with cubic pieces spanning at most a quarter
// turn each. The last piece ends exactly at To.
func (a ArcSegment) Cubics() []Cubic {
	n := int(math.Ceil(math.Abs(a.Sweep) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := a.Sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	out := make([]Cubic, 0, n)
	angle := a.Start
	for i := 0; i < n; i++ {
		next := angle + step
		s0, c0 := math.Sincos(angle)
		s1, c1 := math.Sincos(next)
		p0 := geom.Pt(a.Center.X+a.Radius*c0, a.Center.Y+a.Radius*s0)
		p3 := geom.Pt(a.Center.X+a.Radius*c1, a.Center.Y+a.Radius*s1)
		if i == n-1 {
			p3 = a.To
		}
		out = append(out, Cubic{
			Control1: geom.Pt(p0.X-k*a.Radius*s0, p0.Y+k*a.Radius*c0),
			Control2: geom.Pt(p3.X+k*a.Radius*s1, p3.Y-k*a.Radius*c1),
			Point:    p3,
		})
		angle = next
	}
	return out
}

// arcResolution describes how an ArcTo degenerates.
type arcResolution int

const (
	arcNone arcResolution = iota // endpoints coincide: nothing to draw
	arcLine                      // zero radius: straight segment
	arcCurve
)

// ResolveArc converts op into center form starting from the current point
// from. ok is false when the arc draws nothing because the endpoints
// coincide. A non-positive radius resolves to a straight segment, reported
// as an ArcSegment with zero Radius.
func ResolveArc(from geom.Point, op ArcTo) (seg ArcSegment, ok bool) {
	seg, res := resolveArc(from, op)
	return seg, res != arcNone
}

func resolveArc(from geom.Point, op ArcTo) (ArcSegment, arcResolution) {
	to := op.Point
	seg := ArcSegment{From: from, To: to}
	if from.ApproxEqual(to) {
		return seg, arcNone
	}
	r := math.Abs(op.Radius)
	if r < geom.Epsilon || math.IsNaN(r) || math.IsInf(r, 0) {
		return seg, arcLine
	}

	// Endpoint to center conversion, restricted to circles.
	x1p := (from.X - to.X) / 2
	y1p := (from.Y - to.Y) / 2
	d2 := x1p*x1p + y1p*y1p
	if lambda := d2 / (r * r); lambda > 1 {
		r *= math.Sqrt(lambda)
	}
	coef := math.Sqrt(math.Max(0, (r*r-d2)/d2))
	if op.LargeArc == op.SweepClockwise {
		coef = -coef
	}
	cxp := coef * y1p
	cyp := -coef * x1p

	center := geom.Pt(cxp+(from.X+to.X)/2, cyp+(from.Y+to.Y)/2)
	start := math.Atan2(y1p-cyp, x1p-cxp)
	end := math.Atan2(-y1p-cyp, -x1p-cxp)
	sweep := end - start
	switch {
	case op.SweepClockwise && sweep < 0:
		sweep += 2 * math.Pi
	case !op.SweepClockwise && sweep > 0:
		sweep -= 2 * math.Pi
	}

	seg.Center = center
	seg.Radius = r
	seg.Start = start
	seg.Sweep = sweep
	return seg, arcCurve
}
