// Package raster is the off-screen backend: a readable canvas.ImageCanvas
// rendered in software by gogpu/gg, and the canvas.Platform that creates
// such canvases, decodes images and measures text.
//
// The gg context always runs with an identity matrix. Geometry is mapped to
// device space by the canvas's own state stack before it reaches gg, which
// keeps stroke widths, gradients and clips under the same transform rules
// as the ebiten backend.
package raster

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

// BackendName identifies this adapter in errors.
const BackendName = "gg"

// Stats counts the native calls issued by a canvas.
type Stats struct {
	Fills     int
	Strokes   int
	Gradients int
	Texts     int
	Images    int
}

// Canvas draws into a gg pixmap.
type Canvas struct {
	canvas.StateStack

	dc    *gg.Context
	size  geom.Size
	scale float64
	fonts *FontSet
	stats Stats
}

var _ canvas.ImageCanvas = (*Canvas)(nil)

// NewCanvas returns a canvas of logical size at the given pixel scale. An
// opaque canvas starts white, a transparent one fully clear. A nil font
// set gets the embedded Go fonts.
func NewCanvas(size geom.Size, scale float64, transparent bool, fonts *FontSet) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	if fonts == nil {
		fonts = NewFontSet()
	}
	w := int(math.Ceil(size.Width * scale))
	h := int(math.Ceil(size.Height * scale))
	c := &Canvas{
		dc:    gg.NewContext(max(w, 1), max(h, 1)),
		size:  size,
		scale: scale,
		fonts: fonts,
	}
	if transparent {
		c.dc.Clear()
	} else {
		c.dc.ClearWithColor(gg.White)
	}
	c.Reset()
	return c
}

// Reset drops saved states and returns to the base scale transform. The
// pixels are kept.
func (c *Canvas) Reset() {
	c.StateStack.Reset()
	c.SetTransform(geom.Scale(c.scale, c.scale))
}

// Clear fills the whole surface with col, ignoring the clip.
func (c *Canvas) Clear(col paint.Color) {
	c.dc.ResetClip()
	c.dc.ClearWithColor(ggColor(col))
}

// Size implements canvas.ImageCanvas.
func (c *Canvas) Size() geom.Size {
	return c.size
}

// Scale returns the pixel scale.
func (c *Canvas) Scale() float64 {
	return c.scale
}

// Stats returns the native call counters.
func (c *Canvas) Stats() Stats {
	return c.stats
}

// Close releases the gg context.
func (c *Canvas) Close() error {
	return c.dc.Close()
}

// GetImage implements canvas.ImageCanvas. The snapshot does not change when
// the canvas is drawn on afterwards.
func (c *Canvas) GetImage() (*canvas.Image, error) {
	if err := c.dc.FlushGPU(); err != nil {
		return nil, err
	}
	return canvas.NewImage(c.dc.Image()), nil
}

// RGBA returns a copy of the current pixels. It fails when pending GPU
// work cannot be flushed.
func (c *Canvas) RGBA() (*image.RGBA, error) {
	if err := c.dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	img := c.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out, nil
}

// EncodePNG writes the pixels as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

// applyClip mirrors the state stack's clip onto the gg context. It reports
// false when the clip is empty.
func (c *Canvas) applyClip() bool {
	st := c.State()
	c.dc.ResetClip()
	if !st.Clipped {
		return true
	}
	if st.Clip.IsEmpty() {
		return false
	}
	c.dc.ClipRect(st.Clip.X, st.Clip.Y, st.Clip.Width, st.Clip.Height)
	return true
}

// DrawPath implements canvas.Canvas.
func (c *Canvas) DrawPath(ops []path.Op, pen *paint.Pen, brush paint.Brush) error {
	if canvas.Nothing(pen, brush) {
		return nil
	}
	if err := path.Validate(ops); err != nil {
		return err
	}
	if len(ops) == 0 || !c.applyClip() {
		return nil
	}
	t := c.CurrentTransform()
	if brush != nil {
		if err := c.fill(ops, t, brush); err != nil {
			return err
		}
	}
	if pen.Visible() {
		return c.stroke(ops, t, pen)
	}
	return nil
}

// buildPath replays ops into the gg path in device space.
func (c *Canvas) buildPath(ops []path.Op, t geom.Transform) error {
	c.dc.ClearPath()
	return path.Walk(ops, path.CubicSink{Sink: &ggSink{dc: c.dc, t: t}})
}

func (c *Canvas) fill(ops []path.Op, t geom.Transform, brush paint.Brush) error {
	b, ok, err := c.ggBrush(ops, t, brush)
	if err != nil || !ok {
		return err
	}
	if err := c.buildPath(ops, t); err != nil {
		return err
	}
	c.dc.SetFillRule(gg.FillRuleNonZero)
	c.dc.SetFillBrush(b)
	c.stats.Fills++
	return c.dc.Fill()
}

// ggBrush resolves brush against the path bounds in device space. ok is
// false for brushes that draw nothing.
func (c *Canvas) ggBrush(ops []path.Op, t geom.Transform, brush paint.Brush) (gg.Brush, bool, error) {
	switch b := brush.(type) {
	case paint.SolidBrush:
		return gg.Solid(ggColor(b.Color)), true, nil
	case *paint.LinearGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil, false, nil
		}
		bounds, _ := path.Bounds(ops)
		start, end := b.Endpoints(bounds)
		start, end = t.Apply(start), t.Apply(end)
		g := gg.NewLinearGradientBrush(start.X, start.Y, end.X, end.Y)
		for _, s := range paint.SortStops(b.Stops) {
			g.AddColorStop(s.Offset, ggColor(s.Color))
		}
		c.stats.Gradients++
		return g, true, nil
	case *paint.RadialGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil, false, nil
		}
		bounds, _ := path.Bounds(ops)
		center, radius := b.Geometry(bounds)
		center = t.Apply(center)
		g := gg.NewRadialGradientBrush(center.X, center.Y, 0, radius*t.ScaleFactor())
		for _, s := range paint.SortStops(b.Stops) {
			g.AddColorStop(s.Offset, ggColor(s.Color))
		}
		c.stats.Gradients++
		return g, true, nil
	}
	return nil, false, canvas.Unsupported(BackendName, "brush")
}

func (c *Canvas) stroke(ops []path.Op, t geom.Transform, pen *paint.Pen) error {
	if err := c.buildPath(ops, t); err != nil {
		return err
	}
	scale := t.ScaleFactor()
	s := gg.DefaultStroke().
		WithWidth(pen.Width * scale).
		WithCap(ggCap(pen.Cap)).
		WithJoin(ggJoin(pen.Join)).
		WithMiterLimit(10)
	if pen.Dashed() {
		lengths := make([]float64, len(pen.Dash))
		for i, d := range pen.Dash {
			lengths[i] = d * scale
		}
		s = s.WithDashPattern(lengths...)
	}
	c.dc.SetStroke(s)
	c.dc.SetStrokeBrush(gg.Solid(ggColor(pen.Color)))
	c.stats.Strokes++
	return c.dc.Stroke()
}

// DrawRectangle implements canvas.Canvas.
func (c *Canvas) DrawRectangle(r geom.Rect, pen *paint.Pen, brush paint.Brush) error {
	if r.IsEmpty() {
		return nil
	}
	return c.DrawPath(path.RectOps(r), pen, brush)
}

// DrawEllipse implements canvas.Canvas.
func (c *Canvas) DrawEllipse(r geom.Rect, pen *paint.Pen, brush paint.Brush) error {
	if r.IsEmpty() {
		return nil
	}
	return c.DrawPath(path.EllipseOps(r), pen, brush)
}

// DrawText implements canvas.Canvas. Text is laid out in user space and
// drawn upright at the transformed origin, scaled by the transform's scale
// factor.
func (c *Canvas) DrawText(s string, frame geom.Rect, font canvas.Font, align canvas.Alignment, pen *paint.Pen, brush paint.Brush) error {
	if s == "" {
		return nil
	}
	col, ok := canvas.TextColor(pen, brush)
	if !ok || !c.applyClip() {
		return nil
	}
	font = font.Normalized()
	t := c.CurrentTransform()
	origin := t.Apply(canvas.AlignText(frame, c.MeasureText(s, font), align))
	face := c.fonts.Face(font, font.Size*t.ScaleFactor())
	if face == nil {
		return nil
	}
	c.dc.SetFont(face)
	c.dc.SetColor(col)
	c.dc.DrawString(s, origin.X, origin.Y+face.Metrics().Ascent)
	c.stats.Texts++
	return nil
}

// DrawImage implements canvas.Canvas. The frame is mapped to its
// axis-aligned device bounds.
func (c *Canvas) DrawImage(img *canvas.Image, frame geom.Rect, alpha float64) error {
	if img.Empty() {
		return canvas.ErrNoImage
	}
	if frame.IsEmpty() || alpha <= 0 || !c.applyClip() {
		return nil
	}
	dev := frame.TransformBounds(c.CurrentTransform())
	c.dc.DrawImageEx(gg.ImageBufFromImage(img.Source()), gg.DrawImageOptions{
		X:             dev.X,
		Y:             dev.Y,
		DstWidth:      dev.Width,
		DstHeight:     dev.Height,
		Interpolation: gg.InterpBilinear,
		Opacity:       math.Min(alpha, 1),
	})
	c.stats.Images++
	return nil
}

// MeasureText implements canvas.Canvas. The size is in user space.
func (c *Canvas) MeasureText(s string, font canvas.Font) geom.Size {
	w, h := c.fonts.Measure(s, font)
	return geom.Sz(w, h)
}

// ggSink receives path callbacks and forwards device-space points to gg.
type ggSink struct {
	dc *gg.Context
	t  geom.Transform
}

func (s *ggSink) MoveTo(p geom.Point) {
	d := s.t.Apply(p)
	s.dc.MoveTo(d.X, d.Y)
}

func (s *ggSink) LineTo(p geom.Point) {
	d := s.t.Apply(p)
	s.dc.LineTo(d.X, d.Y)
}

func (s *ggSink) CubicTo(c1, c2, p geom.Point) {
	a, b, d := s.t.Apply(c1), s.t.Apply(c2), s.t.Apply(p)
	s.dc.CubicTo(a.X, a.Y, b.X, b.Y, d.X, d.Y)
}

// ArcTo is never reached behind path.CubicSink.
func (s *ggSink) ArcTo(path.ArcSegment) {}

func (s *ggSink) Close() {
	s.dc.ClosePath()
}

func ggColor(c paint.Color) gg.RGBA {
	r, g, b, a := c.Floats()
	return gg.RGBA{R: r, G: g, B: b, A: a}
}

func ggCap(c paint.LineCap) gg.LineCap {
	switch c {
	case paint.CapRound:
		return gg.LineCapRound
	case paint.CapSquare:
		return gg.LineCapSquare
	}
	return gg.LineCapButt
}

func ggJoin(j paint.LineJoin) gg.LineJoin {
	switch j {
	case paint.JoinRound:
		return gg.LineJoinRound
	case paint.JoinBevel:
		return gg.LineJoinBevel
	}
	return gg.LineJoinMiter
}
