package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

var (
	red   = paint.RGB(255, 0, 0)
	blue  = paint.RGB(0, 0, 255)
	green = paint.RGB(0, 255, 0)
)

func newCanvas(t *testing.T, w, h float64) *Canvas {
	t.Helper()
	c, err := NewPlatform(nil, nil).NewCanvas(geom.Sz(w, h), 1, false)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func near(got color.RGBA, want paint.Color, tol int) bool {
	d := func(a, b uint8) bool {
		x := int(a) - int(b)
		return x <= tol && x >= -tol
	}
	return d(got.R, want.R) && d(got.G, want.G) && d(got.B, want.B) && d(got.A, want.A)
}

func pixels(t *testing.T, c *Canvas) *image.RGBA {
	t.Helper()
	img, err := c.RGBA()
	if err != nil {
		t.Fatalf("RGBA() error = %v", err)
	}
	return img
}

func pixel(t *testing.T, c *Canvas, x, y int) color.RGBA {
	t.Helper()
	return pixels(t, c).RGBAAt(x, y)
}

func TestFillRectangle(t *testing.T) {
	c := newCanvas(t, 50, 50)
	if err := c.DrawRectangle(geom.R(10, 10, 20, 20), nil, paint.Solid(red)); err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, c, 20, 20); !near(got, red, 2) {
		t.Errorf("inside pixel = %v, want red", got)
	}
	if got := pixel(t, c, 5, 5); !near(got, paint.White, 2) {
		t.Errorf("outside pixel = %v, want white", got)
	}
	if s := c.Stats(); s.Fills != 1 || s.Strokes != 0 {
		t.Errorf("Stats = %+v, want one fill", s)
	}
}

func TestTransformedFill(t *testing.T) {
	c := newCanvas(t, 50, 50)
	c.Transform(geom.Translate(30, 0))
	if err := c.DrawRectangle(geom.R(0, 0, 10, 10), nil, paint.Solid(red)); err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, c, 35, 5); !near(got, red, 2) {
		t.Errorf("translated pixel = %v, want red", got)
	}
	if got := pixel(t, c, 5, 5); !near(got, paint.White, 2) {
		t.Errorf("origin pixel = %v, want white", got)
	}
}

func TestScaledCanvas(t *testing.T) {
	c, err := NewPlatform(nil, nil).NewCanvas(geom.Sz(10, 10), 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if b := pixels(t, c).Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("pixel bounds = %v, want 20x20", b)
	}
	if c.Size() != geom.Sz(10, 10) {
		t.Errorf("Size() = %v, want logical 10x10", c.Size())
	}
	c.DrawRectangle(geom.R(0, 0, 5, 5), nil, paint.Solid(blue))
	if got := pixel(t, c, 8, 8); !near(got, blue, 2) {
		t.Errorf("scaled pixel = %v, want blue", got)
	}
	if got := pixel(t, c, 12, 12); got.A != 0 {
		t.Errorf("transparent background pixel = %v, want clear", got)
	}
}

func TestClipAndRestore(t *testing.T) {
	c := newCanvas(t, 50, 50)
	c.SaveState()
	c.ClipRect(geom.R(0, 0, 10, 50))
	c.DrawRectangle(geom.R(0, 0, 50, 50), nil, paint.Solid(red))
	if err := c.RestoreState(); err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, c, 20, 5); !near(got, paint.White, 2) {
		t.Errorf("clipped-out pixel = %v, want white", got)
	}
	c.DrawRectangle(geom.R(30, 30, 10, 10), nil, paint.Solid(blue))
	if got := pixel(t, c, 35, 35); !near(got, blue, 2) {
		t.Errorf("pixel after restore = %v, want blue", got)
	}
}

func TestStroke(t *testing.T) {
	c := newCanvas(t, 50, 50)
	line := new(path.Builder).MoveTo(0, 25).LineTo(50, 25).Ops()
	if err := c.DrawPath(line, paint.NewPen(red, 4), nil); err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, c, 25, 25); !near(got, red, 8) {
		t.Errorf("stroke pixel = %v, want red", got)
	}
	if got := pixel(t, c, 25, 10); !near(got, paint.White, 2) {
		t.Errorf("off-stroke pixel = %v, want white", got)
	}
}

func TestLinearGradient(t *testing.T) {
	c := newCanvas(t, 100, 20)
	lin := paint.NewLinearGradient(0,
		paint.GradientStop{Offset: 0, Color: red},
		paint.GradientStop{Offset: 1, Color: blue})
	if err := c.DrawRectangle(geom.R(0, 0, 100, 20), nil, lin); err != nil {
		t.Fatal(err)
	}
	left, right := pixel(t, c, 1, 10), pixel(t, c, 98, 10)
	if left.R < 200 || left.B > 55 {
		t.Errorf("left pixel = %v, want mostly red", left)
	}
	if right.B < 200 || right.R > 55 {
		t.Errorf("right pixel = %v, want mostly blue", right)
	}
	if c.Stats().Gradients != 1 {
		t.Errorf("Gradients = %d, want 1", c.Stats().Gradients)
	}
}

func TestRadialGradient(t *testing.T) {
	c := newCanvas(t, 40, 40)
	radial := paint.NewRadialGradient(geom.Pt(0.5, 0.5), 0.5,
		paint.GradientStop{Offset: 0, Color: green},
		paint.GradientStop{Offset: 1, Color: blue})
	if err := c.DrawEllipse(geom.R(0, 0, 40, 40), nil, radial); err != nil {
		t.Fatalf("radial fill: %v", err)
	}
	if got := pixel(t, c, 20, 20); got.G < 200 {
		t.Errorf("center pixel = %v, want mostly green", got)
	}
}

func TestSingleStopGradientIsNoop(t *testing.T) {
	c := newCanvas(t, 20, 20)
	one := paint.NewLinearGradient(0, paint.GradientStop{Color: red})
	if err := c.DrawRectangle(geom.R(0, 0, 20, 20), nil, one); err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Gradients != 0 || s.Fills != 0 {
		t.Errorf("Stats = %+v, want nothing issued", s)
	}
	if got := pixel(t, c, 10, 10); !near(got, paint.White, 0) {
		t.Errorf("pixel = %v, want untouched", got)
	}
}

func TestMalformedPath(t *testing.T) {
	c := newCanvas(t, 20, 20)
	bad := []path.Op{path.CurveTo{Point: geom.Pt(5, 5)}}
	if err := c.DrawPath(bad, nil, paint.Solid(red)); !errors.Is(err, path.ErrMalformed) {
		t.Errorf("DrawPath = %v, want ErrMalformed", err)
	}
	if c.Stats().Fills != 0 {
		t.Error("malformed path filled")
	}
}

func TestGetImageSnapshot(t *testing.T) {
	c := newCanvas(t, 10, 10)
	snap, err := c.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	c.DrawRectangle(geom.R(0, 0, 10, 10), nil, paint.Solid(red))
	r, g, b, _ := snap.Source().At(5, 5).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("snapshot changed after drawing")
	}
	if snap.Size() != geom.Sz(10, 10) {
		t.Errorf("snapshot size = %v", snap.Size())
	}
}

func TestRGBAReadsFlushedFrame(t *testing.T) {
	c := newCanvas(t, 10, 10)
	if err := c.DrawRectangle(geom.R(0, 0, 10, 10), nil, paint.Solid(blue)); err != nil {
		t.Fatal(err)
	}
	img, err := c.RGBA()
	if err != nil {
		t.Fatalf("RGBA() error = %v", err)
	}
	if got := img.RGBAAt(5, 5); !near(got, blue, 2) {
		t.Errorf("pixel = %v, want blue", got)
	}
}

func TestDrawImage(t *testing.T) {
	p := NewPlatform(nil, nil)
	img, err := p.CreateImage(2, 2, green)
	if err != nil {
		t.Fatal(err)
	}
	c := newCanvas(t, 20, 20)
	if err := c.DrawImage(img, geom.R(0, 0, 10, 10), 1); err != nil {
		t.Fatal(err)
	}
	if got := pixel(t, c, 5, 5); !near(got, green, 4) {
		t.Errorf("image pixel = %v, want green", got)
	}
	if err := c.DrawImage(img, geom.R(0, 0, 10, 10), 0); err != nil || c.Stats().Images != 1 {
		t.Errorf("zero alpha drew: err %v, images %d", err, c.Stats().Images)
	}
	if err := c.DrawImage(nil, geom.R(0, 0, 1, 1), 1); !errors.Is(err, canvas.ErrNoImage) {
		t.Errorf("DrawImage(nil) = %v, want ErrNoImage", err)
	}
}

func TestDrawText(t *testing.T) {
	c := newCanvas(t, 100, 40)
	font := canvas.Font{Size: 24}
	if err := c.DrawText("HH", geom.R(0, 0, 100, 40), font, canvas.AlignLeft, paint.NewPen(paint.Black, 1), nil); err != nil {
		t.Fatal(err)
	}
	if c.Stats().Texts != 1 {
		t.Fatalf("Texts = %d, want 1", c.Stats().Texts)
	}
	img := pixels(t, c)
	dark := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			if img.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("text produced no dark pixels")
	}

	if err := c.DrawText("x", geom.R(0, 0, 10, 10), font, canvas.AlignLeft, nil, nil); err != nil || c.Stats().Texts != 1 {
		t.Error("text without a color was drawn")
	}
}

func TestPlatformLoadImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	p := NewPlatform(nil, nil)
	img, err := p.LoadImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Size() != geom.Sz(3, 2) {
		t.Errorf("Size() = %v, want 3x2", img.Size())
	}
	if _, err := p.LoadImage(bytes.NewReader([]byte("junk"))); err == nil {
		t.Error("LoadImage accepted junk")
	}
}

func TestPlatformInvalidSizes(t *testing.T) {
	p := NewPlatform(nil, nil)
	if _, err := p.CreateImage(0, 5, red); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateImage(0,5) = %v, want ErrInvalidSize", err)
	}
	if _, err := p.CreateImageCanvas(geom.Sz(10, 10), 0, false); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateImageCanvas(scale 0) = %v, want ErrInvalidSize", err)
	}
}

func TestMeasureText(t *testing.T) {
	p := NewPlatform(nil, nil)
	font := canvas.Font{Size: 16}
	a, b := p.MeasureText("ab", font), p.MeasureText("abcd", font)
	if a.Width <= 0 || b.Width <= a.Width || a.Height <= 0 {
		t.Errorf("MeasureText = %v then %v", a, b)
	}
	if got := p.MeasureText("", font); got != (geom.Size{}) {
		t.Errorf("MeasureText(\"\") = %v, want zero", got)
	}
}

func TestFontSetFallback(t *testing.T) {
	fs := NewFontSet()
	if got := fs.Families(); len(got) != 2 {
		t.Errorf("Families() = %v, want the two Go families", got)
	}
	if fs.Source(canvas.Font{Family: "missing"}) != fs.Source(canvas.Font{Family: "GoSans"}) {
		t.Error("unknown family did not fall back to GoSans")
	}
	if err := fs.LoadFontFromData("bad", canvas.FontStyleRegular, nil); err == nil {
		t.Error("empty font data accepted")
	}
}
