package paint

import (
	"image/color"
	"math"
	"testing"

	"github.com/opd-ai/ncontrol/internal/geom"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{"named", "red", RGB(255, 0, 0), false},
		{"named uppercase", "  Red ", RGB(255, 0, 0), false},
		{"transparent", "transparent", Transparent, false},
		{"hex #RRGGBB", "#1A2B3C", RGB(26, 43, 60), false},
		{"hex without #", "ff0000", RGB(255, 0, 0), false},
		{"hex #RGB", "#f00", RGB(255, 0, 0), false},
		{"hex #RGBA", "#f008", RGBA(255, 0, 0, 0x88), false},
		{"hex #RRGGBBAA", "#00FF0080", RGBA(0, 255, 0, 128), false},
		{"rgb", "rgb(1, 2, 3)", RGB(1, 2, 3), false},
		{"rgba int", "rgba(1, 2, 3, 128)", RGBA(1, 2, 3, 128), false},
		{"rgba float", "rgba(1, 2, 3, 0.5)", RGBA(1, 2, 3, 128), false},
		{"rgba float clamped", "rgba(1, 2, 3, 1.5)", RGBA(1, 2, 3, 255), false},
		{"empty", "", Color{}, true},
		{"bad hex", "#ggg", Color{}, true},
		{"bad length", "#12345", Color{}, true},
		{"rgb wrong arity", "rgb(1, 2)", Color{}, true},
		{"rgb overflow", "rgb(256, 0, 0)", Color{}, true},
		{"unknown", "notacolor", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestColorConversions(t *testing.T) {
	c := RGBA(255, 0, 0, 128)
	if got := c.Hex(); got != "#FF000080" {
		t.Errorf("Hex = %s, want #FF000080", got)
	}
	if got := RGB(1, 2, 3).Hex(); got != "#010203" {
		t.Errorf("Hex = %s, want #010203", got)
	}
	if back := FromColor(c); back != c {
		t.Errorf("FromColor(Color) = %v, want %v", back, c)
	}
	if got := FromColor(color.NRGBA{R: 10, G: 20, B: 30, A: 255}); got != RGB(10, 20, 30) {
		t.Errorf("FromColor(NRGBA) = %v", got)
	}
	_, _, _, a := c.RGBA()
	if a != 128*257 {
		t.Errorf("RGBA alpha = %d, want %d", a, 128*257)
	}
	if r, _, _, fa := c.Floats(); r != 1 || math.Abs(fa-128.0/255) > 1e-12 {
		t.Errorf("Floats = %v, %v", r, fa)
	}
	if !Transparent.IsTransparent() || Black.IsTransparent() {
		t.Error("IsTransparent mismatch")
	}
	if got := White.WithOpacity(0.5).A; got != 128 {
		t.Errorf("WithOpacity(0.5).A = %d, want 128", got)
	}
}

func TestColorLerp(t *testing.T) {
	a, b := RGB(0, 0, 0), RGB(200, 100, 50)
	tests := []struct {
		t    float64
		want Color
	}{
		{0, a},
		{1, b},
		{0.5, RGB(100, 50, 25)},
		{-1, a},
		{2, b},
	}
	for _, tt := range tests {
		if got := a.Lerp(b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestPenVisible(t *testing.T) {
	var nilPen *Pen
	tests := []struct {
		name string
		pen  *Pen
		want bool
	}{
		{"nil", nilPen, false},
		{"zero width", NewPen(Black, 0), false},
		{"transparent", NewPen(Transparent, 2), false},
		{"visible", NewPen(Black, 1), true},
	}
	for _, tt := range tests {
		if got := tt.pen.Visible(); got != tt.want {
			t.Errorf("%s: Visible = %v, want %v", tt.name, got, tt.want)
		}
	}
	p := NewPen(Black, 1)
	p.Dash = []float64{0, 0}
	if p.Dashed() {
		t.Error("all-zero dash should not be Dashed")
	}
	p.Dash = []float64{4, 2}
	if !p.Dashed() {
		t.Error("Dashed = false, want true")
	}
}

func TestParseCapJoin(t *testing.T) {
	if c, err := ParseLineCap("Round"); err != nil || c != CapRound {
		t.Errorf("ParseLineCap = %v, %v", c, err)
	}
	if _, err := ParseLineCap("pointy"); err == nil {
		t.Error("ParseLineCap(pointy) error = nil")
	}
	if j, err := ParseLineJoin("bevel"); err != nil || j != JoinBevel || j.String() != "bevel" {
		t.Errorf("ParseLineJoin = %v, %v", j, err)
	}
}

func TestSortStops(t *testing.T) {
	in := []GradientStop{
		{Offset: 1.5, Color: White},
		{Offset: 0.5, Color: RGB(1, 0, 0)},
		{Offset: -1, Color: Black},
		{Offset: 0.5, Color: RGB(2, 0, 0)},
	}
	got := SortStops(in)
	want := []float64{0, 0.5, 0.5, 1}
	for i, s := range got {
		if s.Offset != want[i] {
			t.Errorf("stop %d offset = %v, want %v", i, s.Offset, want[i])
		}
	}
	if got[1].Color != RGB(1, 0, 0) || got[2].Color != RGB(2, 0, 0) {
		t.Error("equal offsets lost their order")
	}
	if in[0].Offset != 1.5 {
		t.Error("SortStops modified its input")
	}
}

func TestColorAt(t *testing.T) {
	stops := []GradientStop{{0.25, Black}, {0.75, RGB(200, 200, 200)}}
	tests := []struct {
		t    float64
		want Color
	}{
		{0, Black},
		{0.25, Black},
		{0.5, RGB(100, 100, 100)},
		{0.75, RGB(200, 200, 200)},
		{1, RGB(200, 200, 200)},
	}
	for _, tt := range tests {
		if got := ColorAt(stops, tt.t); got != tt.want {
			t.Errorf("ColorAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if got := ColorAt(nil, 0.5); got != Transparent {
		t.Errorf("ColorAt(nil) = %v", got)
	}
	if Renderable(stops[:1]) || !Renderable(stops) {
		t.Error("Renderable mismatch")
	}
}

func TestLinearEndpoints(t *testing.T) {
	bounds := geom.R(0, 0, 100, 50)
	tests := []struct {
		angle      float64
		start, end geom.Point
	}{
		{0, geom.Pt(0, 25), geom.Pt(100, 25)},
		{90, geom.Pt(50, 0), geom.Pt(50, 50)},
		{180, geom.Pt(100, 25), geom.Pt(0, 25)},
	}
	for _, tt := range tests {
		g := NewLinearGradient(tt.angle, GradientStop{0, Black}, GradientStop{1, White})
		s, e := g.Endpoints(bounds)
		if !s.ApproxEqual(tt.start) || !e.ApproxEqual(tt.end) {
			t.Errorf("angle %v: Endpoints = %v, %v, want %v, %v", tt.angle, s, e, tt.start, tt.end)
		}
	}

	g := NewLinearGradient(0, GradientStop{0, Black}, GradientStop{1, RGB(254, 254, 254)})
	if got := g.ColorAtPoint(bounds, geom.Pt(50, 10)); got != RGB(127, 127, 127) {
		t.Errorf("ColorAtPoint(mid) = %v", got)
	}
}

func TestRadialGeometry(t *testing.T) {
	g := NewRadialGradient(geom.Pt(0.5, 0.5), 0.5, GradientStop{0, White}, GradientStop{1, Black})
	c, r := g.Geometry(geom.R(10, 10, 100, 40))
	if c != geom.Pt(60, 30) || r != 50 {
		t.Errorf("Geometry = %v, %v", c, r)
	}
	if got := g.ColorAtPoint(geom.R(10, 10, 100, 40), geom.Pt(60, 30)); got != White {
		t.Errorf("ColorAtPoint(center) = %v, want white", got)
	}
	if got := g.ColorAtPoint(geom.R(10, 10, 100, 40), geom.Pt(200, 30)); got != Black {
		t.Errorf("ColorAtPoint(outside) = %v, want black", got)
	}
}

func TestBrushColor(t *testing.T) {
	if c, ok := BrushColor(Solid(White)); !ok || c != White {
		t.Errorf("BrushColor(solid) = %v, %v", c, ok)
	}
	if _, ok := BrushColor(nil); ok {
		t.Error("BrushColor(nil) ok = true")
	}
	if _, ok := BrushColor(&LinearGradientBrush{}); ok {
		t.Error("BrushColor(empty gradient) ok = true")
	}
}
