package path

import (
	"math"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// Polyline is a flattened contour.
type Polyline struct {
	Points []geom.Point
	Closed bool
}

// DefaultTolerance is the flattening tolerance in user units.
const DefaultTolerance = 0.25

// Flatten converts ops into polylines, subdividing curves and arcs so that
// no chord deviates much more than tolerance from the curve.
func Flatten(ops []Op, tolerance float64) ([]Polyline, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	f := &flattener{tolerance: tolerance}
	if err := Walk(ops, CubicSink{Sink: f}); err != nil {
		return nil, err
	}
	f.flush()
	return f.lines, nil
}

type flattener struct {
	tolerance float64
	lines     []Polyline
	cur       Polyline
}

func (f *flattener) flush() {
	if len(f.cur.Points) > 1 {
		f.lines = append(f.lines, f.cur)
	}
	f.cur = Polyline{}
}

func (f *flattener) last() geom.Point {
	return f.cur.Points[len(f.cur.Points)-1]
}

func (f *flattener) MoveTo(p geom.Point) {
	f.flush()
	f.cur.Points = append(f.cur.Points, p)
}

func (f *flattener) LineTo(p geom.Point) {
	f.cur.Points = append(f.cur.Points, p)
}

func (f *flattener) CubicTo(c1, c2, p geom.Point) {
	p0 := f.last()
	hull := p0.Distance(c1) + c1.Distance(c2) + c2.Distance(p)
	n := int(math.Ceil(math.Sqrt(hull / f.tolerance)))
	n = max(1, min(n, 256))
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		f.cur.Points = append(f.cur.Points, cubicAt(p0, c1, c2, p, t))
	}
}

func (f *flattener) ArcTo(ArcSegment) {}

func (f *flattener) Close() {
	start := f.cur.Points[0]
	f.cur.Closed = true
	f.flush()
	f.cur.Points = append(f.cur.Points, start)
}

func cubicAt(p0, p1, p2, p3 geom.Point, t float64) geom.Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return geom.Pt(
		a*p0.X+b*p1.X+c*p2.X+d*p3.X,
		a*p0.Y+b*p1.Y+c*p2.Y+d*p3.Y,
	)
}

// Dash splits ops into the "on" intervals of pattern, starting offset units
// into the pattern. The result is a list of open MoveTo/LineTo contours.
//
// Odd-length patterns are repeated once, as in SVG. Empty, all-zero or
// negative patterns yield the flattened path without dashing.
func Dash(ops []Op, pattern []float64, offset float64) ([]Op, error) {
	lines, err := Flatten(ops, DefaultTolerance)
	if err != nil {
		return nil, err
	}
	pattern = normalizeDash(pattern)
	if pattern == nil {
		return polylineOps(lines), nil
	}

	var total float64
	for _, v := range pattern {
		total += v
	}
	var out []Op
	for _, line := range lines {
		pts := line.Points
		if line.Closed {
			pts = append(pts[:len(pts):len(pts)], pts[0])
		}
		idx, remaining := dashStart(pattern, math.Mod(offset, total))
		on := idx%2 == 0
		penDown := false
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			segLen := a.Distance(b)
			pos := 0.0
			for segLen-pos > 0 {
				step := math.Min(remaining, segLen-pos)
				from := a.Lerp(b, pos/segLen)
				to := a.Lerp(b, (pos+step)/segLen)
				if on {
					if !penDown {
						out = append(out, MoveTo{Point: from})
						penDown = true
					}
					out = append(out, LineTo{Point: to})
				}
				pos += step
				remaining -= step
				if remaining <= 1e-12 {
					idx = (idx + 1) % len(pattern)
					remaining = pattern[idx]
					on = idx%2 == 0
					penDown = false
				}
			}
		}
	}
	return out, nil
}

func normalizeDash(pattern []float64) []float64 {
	if len(pattern) == 0 {
		return nil
	}
	var sum float64
	for _, v := range pattern {
		if v < 0 {
			return nil
		}
		sum += v
	}
	if sum <= 0 {
		return nil
	}
	if len(pattern)%2 == 1 {
		doubled := make([]float64, 0, len(pattern)*2)
		doubled = append(doubled, pattern...)
		return append(doubled, pattern...)
	}
	return pattern
}

func dashStart(pattern []float64, offset float64) (idx int, remaining float64) {
	if offset < 0 {
		var total float64
		for _, v := range pattern {
			total += v
		}
		offset += total
	}
	for {
		if offset < pattern[idx] {
			return idx, pattern[idx] - offset
		}
		offset -= pattern[idx]
		idx = (idx + 1) % len(pattern)
	}
}

func polylineOps(lines []Polyline) []Op {
	var out []Op
	for _, l := range lines {
		out = append(out, MoveTo{Point: l.Points[0]})
		for _, p := range l.Points[1:] {
			out = append(out, LineTo{Point: p})
		}
		if l.Closed {
			out = append(out, ClosePath{})
		}
	}
	return out
}
