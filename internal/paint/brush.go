package paint

import (
	"math"
	"slices"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// Brush describes how a shape is filled. The implementations are
// SolidBrush, *LinearGradientBrush and *RadialGradientBrush.
type Brush interface {
	brush()
}

// SolidBrush fills with a single color.
type SolidBrush struct {
	Color Color
}

// Solid returns a SolidBrush.
func Solid(c Color) SolidBrush {
	return SolidBrush{Color: c}
}

// GradientStop is a color at a position along a gradient, Offset in [0,1].
type GradientStop struct {
	Offset float64
	Color  Color
}

// LinearGradientBrush fills along a line through the shape's bounds.
// Angle is in degrees: 0 runs left to right, 90 runs top to bottom.
type LinearGradientBrush struct {
	Stops []GradientStop
	Angle float64
}

// RadialGradientBrush fills outwards from a center point. Center is in
// unit coordinates of the shape's bounds ((0.5, 0.5) is the middle) and
// Radius is a fraction of the larger side of the bounds.
type RadialGradientBrush struct {
	Stops  []GradientStop
	Center geom.Point
	Radius float64
}

func (SolidBrush) brush()           {}
func (*LinearGradientBrush) brush() {}
func (*RadialGradientBrush) brush() {}

// NewLinearGradient returns a linear gradient with stops sorted by offset.
func NewLinearGradient(angle float64, stops ...GradientStop) *LinearGradientBrush {
	return &LinearGradientBrush{Stops: SortStops(stops), Angle: angle}
}

// NewRadialGradient returns a radial gradient with stops sorted by offset.
func NewRadialGradient(center geom.Point, radius float64, stops ...GradientStop) *RadialGradientBrush {
	return &RadialGradientBrush{Stops: SortStops(stops), Center: center, Radius: radius}
}

// SortStops returns a copy of stops ordered by ascending offset, with
// offsets clamped to [0,1]. Stops sharing an offset keep their order.
func SortStops(stops []GradientStop) []GradientStop {
	out := make([]GradientStop, len(stops))
	for i, s := range stops {
		s.Offset = clamp01(s.Offset)
		out[i] = s
	}
	slices.SortStableFunc(out, func(a, b GradientStop) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return out
}

// Renderable reports whether stops can produce a gradient. Fewer than two
// stops fill nothing.
func Renderable(stops []GradientStop) bool {
	return len(stops) >= 2
}

// ColorAt interpolates sorted stops at t. Positions outside the first and
// last stop take the color of that stop.
func ColorAt(stops []GradientStop, t float64) Color {
	switch len(stops) {
	case 0:
		return Transparent
	case 1:
		return stops[0].Color
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		return a.Color.Lerp(b.Color, (t-a.Offset)/span)
	}
	return last.Color
}

// Endpoints resolves the gradient line against bounds. The line passes
// through the center of bounds; its ends are the projections of the two
// corners farthest along the gradient direction.
func (g *LinearGradientBrush) Endpoints(bounds geom.Rect) (start, end geom.Point) {
	s, c := math.Sincos(g.Angle * math.Pi / 180)
	half := (math.Abs(bounds.Width*c) + math.Abs(bounds.Height*s)) / 2
	center := bounds.Center()
	d := geom.Pt(c*half, s*half)
	return center.Sub(d), center.Add(d)
}

// ColorAtPoint evaluates the gradient at p for a shape with the given bounds.
func (g *LinearGradientBrush) ColorAtPoint(bounds geom.Rect, p geom.Point) Color {
	start, end := g.Endpoints(bounds)
	d := end.Sub(start)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 < geom.Epsilon {
		return ColorAt(g.Stops, 0)
	}
	v := p.Sub(start)
	return ColorAt(g.Stops, (v.X*d.X+v.Y*d.Y)/l2)
}

// Geometry resolves the center and radius against bounds.
func (g *RadialGradientBrush) Geometry(bounds geom.Rect) (center geom.Point, radius float64) {
	center = geom.Pt(bounds.X+g.Center.X*bounds.Width, bounds.Y+g.Center.Y*bounds.Height)
	return center, g.Radius * math.Max(bounds.Width, bounds.Height)
}

// ColorAtPoint evaluates the gradient at p for a shape with the given bounds.
func (g *RadialGradientBrush) ColorAtPoint(bounds geom.Rect, p geom.Point) Color {
	center, r := g.Geometry(bounds)
	if r < geom.Epsilon {
		return ColorAt(g.Stops, 1)
	}
	return ColorAt(g.Stops, p.Distance(center)/r)
}

// BrushColor returns a representative flat color for b: the solid color,
// or the first stop of a gradient. ok is false for a nil brush or an
// empty gradient.
func BrushColor(b Brush) (c Color, ok bool) {
	switch v := b.(type) {
	case SolidBrush:
		return v.Color, true
	case *LinearGradientBrush:
		if v != nil && len(v.Stops) > 0 {
			return v.Stops[0].Color, true
		}
	case *RadialGradientBrush:
		if v != nil && len(v.Stops) > 0 {
			return v.Stops[0].Color, true
		}
	}
	return Color{}, false
}
