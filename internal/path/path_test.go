package path

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// recordSink captures the calls made by Walk.
type recordSink struct {
	calls []string
	arcs  []ArcSegment
	pts   []geom.Point
}

func (r *recordSink) MoveTo(p geom.Point) {
	r.calls = append(r.calls, "move")
	r.pts = append(r.pts, p)
}

func (r *recordSink) LineTo(p geom.Point) {
	r.calls = append(r.calls, "line")
	r.pts = append(r.pts, p)
}

func (r *recordSink) CubicTo(c1, c2, p geom.Point) {
	r.calls = append(r.calls, "cubic")
	r.pts = append(r.pts, p)
}

func (r *recordSink) ArcTo(a ArcSegment) {
	r.calls = append(r.calls, "arc")
	r.arcs = append(r.arcs, a)
	r.pts = append(r.pts, a.To)
}

func (r *recordSink) Close() {
	r.calls = append(r.calls, "close")
}

func TestWalkTriangle(t *testing.T) {
	ops := new(Builder).MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10).Close().Ops()
	var s recordSink
	if err := Walk(ops, &s); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got := strings.Join(s.calls, ","); got != "move,line,line,close" {
		t.Errorf("calls = %s", got)
	}
	want := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10)}
	for i, p := range want {
		if s.pts[i] != p {
			t.Errorf("vertex %d = %v, want %v", i, s.pts[i], p)
		}
	}
}

func TestValidateMalformed(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		ok   bool
	}{
		{"empty", nil, true},
		{"line first", []Op{LineTo{Point: geom.Pt(1, 1)}}, false},
		{"curve first", []Op{CurveTo{}}, false},
		{"arc first", []Op{ArcTo{Radius: 2}}, false},
		{"close first", []Op{ClosePath{}}, false},
		{"nil op", []Op{MoveTo{}, nil}, false},
		{"pointer op", []Op{MoveTo{}, &LineTo{Point: geom.Pt(1, 0)}, &LineTo{Point: geom.Pt(0, 1)}}, false},
		{"pointer move", []Op{&MoveTo{}}, false},
		{"line after close", []Op{MoveTo{}, LineTo{Point: geom.Pt(1, 0)}, ClosePath{}, LineTo{Point: geom.Pt(0, 1)}}, true},
		{"move only", []Op{MoveTo{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.ops)
			if tt.ok && err != nil {
				t.Errorf("Validate = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformed) {
				t.Errorf("Validate = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestWalkMalformedIssuesNothing(t *testing.T) {
	var s recordSink
	err := Walk([]Op{MoveTo{}, LineTo{Point: geom.Pt(1, 1)}, ClosePath{}, nil}, &s)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Walk = %v, want ErrMalformed", err)
	}
	if len(s.calls) != 0 {
		t.Errorf("sink received %v before the error", s.calls)
	}
}

func TestWalkRejectsPointerOps(t *testing.T) {
	var s recordSink
	err := Walk([]Op{MoveTo{}, &LineTo{Point: geom.Pt(1, 1)}, &ClosePath{}}, &s)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Walk = %v, want ErrMalformed", err)
	}
	if len(s.calls) != 0 {
		t.Errorf("sink received %v", s.calls)
	}
}

func TestResolveArcHalfCircle(t *testing.T) {
	seg, ok := ResolveArc(geom.Pt(0, 0), ArcTo{Point: geom.Pt(10, 0), Radius: 5, SweepClockwise: true})
	if !ok {
		t.Fatal("ResolveArc reported degenerate")
	}
	if !seg.Center.ApproxEqual(geom.Pt(5, 0)) {
		t.Errorf("center = %v, want (5,0)", seg.Center)
	}
	if math.Abs(seg.Sweep-math.Pi) > 1e-9 {
		t.Errorf("sweep = %v, want pi", seg.Sweep)
	}
	// Clockwise from the left end passes over the top on a y-down surface.
	mid := seg.PointAt(0.5)
	if math.Abs(mid.X-5) > 1e-9 || math.Abs(mid.Y+5) > 1e-9 {
		t.Errorf("midpoint = %v, want (5,-5)", mid)
	}
}

func TestResolveArcFlags(t *testing.T) {
	from, to := geom.Pt(0, 0), geom.Pt(10, 0)
	tests := []struct {
		name      string
		large     bool
		clockwise bool
		wantLarge bool
	}{
		{"small ccw", false, false, false},
		{"small cw", false, true, false},
		{"large ccw", true, false, true},
		{"large cw", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := ResolveArc(from, ArcTo{Point: to, Radius: 8, LargeArc: tt.large, SweepClockwise: tt.clockwise})
			if !ok {
				t.Fatal("degenerate")
			}
			if seg.Clockwise() != tt.clockwise {
				t.Errorf("Clockwise = %v, want %v", seg.Clockwise(), tt.clockwise)
			}
			if got := math.Abs(seg.Sweep) > math.Pi; got != tt.wantLarge {
				t.Errorf("large = %v (sweep %v), want %v", got, seg.Sweep, tt.wantLarge)
			}
			end := seg.PointAt(1)
			if math.Abs(end.X-to.X) > 1e-9 || math.Abs(end.Y-to.Y) > 1e-9 {
				t.Errorf("end = %v, want %v", end, to)
			}
		})
	}
}

func TestResolveArcDegenerate(t *testing.T) {
	if _, ok := ResolveArc(geom.Pt(3, 3), ArcTo{Point: geom.Pt(3, 3), Radius: 4}); ok {
		t.Error("coincident endpoints should draw nothing")
	}

	var s recordSink
	ops := []Op{MoveTo{}, ArcTo{Point: geom.Pt(4, 0)}, ArcTo{Point: geom.Pt(4, 0), Radius: 2}}
	if err := Walk(ops, &s); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(s.calls, ","); got != "move,line" {
		t.Errorf("calls = %s, want move,line", got)
	}
}

func TestArcCubicsEndExactly(t *testing.T) {
	seg, _ := ResolveArc(geom.Pt(0, 0), ArcTo{Point: geom.Pt(0, 20), Radius: 10, LargeArc: true, SweepClockwise: false})
	cubics := seg.Cubics()
	if len(cubics) < 2 {
		t.Fatalf("half circle split into %d pieces, want >= 2", len(cubics))
	}
	if last := cubics[len(cubics)-1].Point; last != geom.Pt(0, 20) {
		t.Errorf("last point = %v, want (0,20)", last)
	}
	for i, c := range cubics {
		if d := c.Point.Distance(seg.Center); math.Abs(d-seg.Radius) > 1e-6 {
			t.Errorf("piece %d ends off the circle: %v", i, d)
		}
	}
}

func TestBounds(t *testing.T) {
	r, ok := Bounds(RectOps(geom.R(2, 3, 4, 5)))
	if !ok || r != geom.R(2, 3, 4, 5) {
		t.Errorf("Bounds = %v, %v", r, ok)
	}
	if _, ok := Bounds(nil); ok {
		t.Error("Bounds(nil) ok = true")
	}
	e, ok := Bounds(EllipseOps(geom.R(0, 0, 20, 10)))
	if !ok || !e.ApproxEqual(geom.R(0, 0, 20, 10)) {
		t.Errorf("ellipse Bounds = %v", e)
	}
}

func TestTransformOps(t *testing.T) {
	ops := []Op{MoveTo{Point: geom.Pt(1, 1)}, ArcTo{Point: geom.Pt(3, 1), Radius: 1, SweepClockwise: true}, ClosePath{}}
	out := Transform(ops, geom.Scale(2, -2))
	arc := out[1].(ArcTo)
	if arc.Point != geom.Pt(6, -2) || arc.Radius != 2 {
		t.Errorf("arc = %+v", arc)
	}
	if arc.SweepClockwise {
		t.Error("mirroring transform should flip the sweep direction")
	}
	if out[0].(MoveTo).Point != geom.Pt(2, -2) {
		t.Errorf("move = %v", out[0])
	}
}

func TestDash(t *testing.T) {
	ops := new(Builder).MoveTo(0, 0).LineTo(10, 0).Ops()
	out, err := Dash(ops, []float64{2, 3}, 0)
	if err != nil {
		t.Fatal(err)
	}
	var moves int
	for _, op := range out {
		if op.Kind() == KindMoveTo {
			moves++
		}
	}
	// on [0,2] [5,7]; the pattern restarts at 10.
	if moves != 2 {
		t.Errorf("dash count = %d, want 2 (%v)", moves, out)
	}
	if first := out[1].(LineTo).Point; math.Abs(first.X-2) > 1e-9 {
		t.Errorf("first dash ends at %v, want x=2", first)
	}
}

func TestDashInvalidPattern(t *testing.T) {
	ops := new(Builder).MoveTo(0, 0).LineTo(10, 0).Ops()
	for _, pattern := range [][]float64{nil, {0, 0}, {-1, 2}} {
		out, err := Dash(ops, pattern, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 2 {
			t.Errorf("pattern %v: got %d ops, want undashed line", pattern, len(out))
		}
	}
}

func TestFlattenClosed(t *testing.T) {
	lines, err := Flatten(EllipseOps(geom.R(0, 0, 100, 100)), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !lines[0].Closed {
		t.Fatalf("Flatten = %d lines", len(lines))
	}
	for _, p := range lines[0].Points {
		if d := p.Distance(geom.Pt(50, 50)); math.Abs(d-50) > 0.5 {
			t.Errorf("point %v is %v from center", p, d)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindArcTo.String() != "ArcTo" || Kind(42).String() != "Kind(42)" {
		t.Error("Kind.String mismatch")
	}
}
