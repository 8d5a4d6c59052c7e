package render

import (
	"errors"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

// BackendName identifies this adapter in errors.
const BackendName = "ebiten"

// ErrNoTarget is returned when drawing before Reset has set a frame target.
var ErrNoTarget = errors.New("render: canvas has no target image")

// emptySubImage is a 1x1 white image used for filling shapes.
var emptySubImage = func() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(paint.White)
	return img
}()

// Stats counts the native calls issued since the last Reset.
type Stats struct {
	// Batches is the number of DrawTriangles calls.
	Batches int
	// Gradients is the number of gradient textures used.
	Gradients int
	Texts     int
	Images    int
}

// Canvas draws onto an ebiten image. Paths are built in device space,
// triangulated by the vector package and issued with DrawTriangles.
//
// Radial gradients have no ebiten equivalent and fail with
// canvas.ErrUnsupported.
type Canvas struct {
	canvas.StateStack

	target    *ebiten.Image
	text      TextRendererInterface
	images    *ImageCache
	gradients *gradientCache
	antiAlias bool
	stats     Stats
}

var _ canvas.Canvas = (*Canvas)(nil)

// NewCanvas returns a canvas without a target. A nil text renderer or
// image cache gets a default one.
func NewCanvas(text TextRendererInterface, images *ImageCache) *Canvas {
	if text == nil {
		text = NewTextRenderer(nil)
	}
	if images == nil {
		images = NewImageCache()
	}
	return &Canvas{
		text:      text,
		images:    images,
		gradients: newGradientCache(),
		antiAlias: true,
	}
}

// Reset starts a new frame on target: the state stack returns to identity
// and the stats are cleared.
func (c *Canvas) Reset(target *ebiten.Image) {
	c.target = target
	c.StateStack.Reset()
	c.stats = Stats{}
}

// Stats returns the counters for the current frame.
func (c *Canvas) Stats() Stats {
	return c.stats
}

// SetAntiAlias toggles anti-aliased triangle rendering.
func (c *Canvas) SetAntiAlias(on bool) {
	c.antiAlias = on
}

// DrawPath implements canvas.Canvas.
func (c *Canvas) DrawPath(ops []path.Op, pen *paint.Pen, brush paint.Brush) error {
	if canvas.Nothing(pen, brush) {
		return nil
	}
	if err := path.Validate(ops); err != nil {
		return err
	}
	if err := checkBrush(brush); err != nil {
		return err
	}
	if c.target == nil {
		return ErrNoTarget
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

func checkBrush(brush paint.Brush) error {
	switch b := brush.(type) {
	case nil, paint.SolidBrush, *paint.LinearGradientBrush:
		return nil
	case *paint.RadialGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil
		}
		return canvas.Unsupported(BackendName, "radial gradient")
	default:
		return canvas.Unsupported(BackendName, "brush")
	}
}

// devicePath builds ops into a vector.Path in device space.
func devicePath(ops []path.Op, t geom.Transform) (*vector.Path, error) {
	var p vector.Path
	sink := &vectorSink{p: &p, t: t}
	var s path.Sink = sink
	if !conformal(t) {
		s = path.CubicSink{Sink: sink}
	}
	if err := path.Walk(ops, s); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Canvas) fill(ops []path.Op, t geom.Transform, brush paint.Brush) error {
	var (
		src   = emptySubImage
		color paint.Color
		grad  *paint.LinearGradientBrush
	)
	switch b := brush.(type) {
	case paint.SolidBrush:
		color = b.Color
	case *paint.LinearGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil
		}
		grad = b
	case *paint.RadialGradientBrush:
		// Only reachable with fewer than two stops.
		return nil
	}

	p, err := devicePath(ops, t)
	if err != nil {
		return err
	}
	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	if len(is) == 0 {
		return nil
	}

	if grad == nil {
		setVertexColors(vs, color)
	} else {
		inv, ok := t.Inverse()
		if !ok {
			return nil
		}
		bounds, _ := path.Bounds(ops)
		start, end := grad.Endpoints(bounds)
		src = c.gradients.texture(paint.SortStops(grad.Stops))
		setGradientCoords(vs, inv, start, end)
		c.stats.Gradients++
	}
	c.drawTriangles(vs, is, src, true)
	return nil
}

func (c *Canvas) stroke(ops []path.Op, t geom.Transform, pen *paint.Pen) error {
	if pen.Dashed() {
		dashed, err := path.Dash(ops, pen.Dash, 0)
		if err != nil {
			return err
		}
		ops = dashed
	}
	p, err := devicePath(ops, t)
	if err != nil {
		return err
	}
	opts := &vector.StrokeOptions{
		Width:      float32(pen.Width * t.ScaleFactor()),
		MiterLimit: 10,
	}
	switch pen.Cap {
	case paint.CapRound:
		opts.LineCap = vector.LineCapRound
	case paint.CapSquare:
		opts.LineCap = vector.LineCapSquare
	default:
		opts.LineCap = vector.LineCapButt
	}
	switch pen.Join {
	case paint.JoinRound:
		opts.LineJoin = vector.LineJoinRound
	case paint.JoinBevel:
		opts.LineJoin = vector.LineJoinBevel
	default:
		opts.LineJoin = vector.LineJoinMiter
	}
	vs, is := p.AppendVerticesAndIndicesForStroke(nil, nil, opts)
	if len(is) == 0 {
		return nil
	}
	setVertexColors(vs, pen.Color)
	c.drawTriangles(vs, is, emptySubImage, false)
	return nil
}

func (c *Canvas) drawTriangles(vs []ebiten.Vertex, is []uint16, src *ebiten.Image, fill bool) {
	dst, dx, dy, ok := c.clipped()
	if !ok {
		return
	}
	if dx != 0 || dy != 0 {
		for i := range vs {
			vs[i].DstX -= dx
			vs[i].DstY -= dy
		}
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: c.antiAlias}
	if fill {
		op.FillRule = ebiten.FillRuleNonZero
	}
	if src != emptySubImage {
		op.Filter = ebiten.FilterLinear
	}
	dst.DrawTriangles(vs, is, src, op)
	c.stats.Batches++
}

// clipped returns the destination for the current clip and the offset to
// subtract from device coordinates. ok is false when the clip is empty.
func (c *Canvas) clipped() (dst *ebiten.Image, dx, dy float32, ok bool) {
	st := c.State()
	if !st.Clipped {
		return c.target, 0, 0, true
	}
	r := image.Rect(
		int(math.Floor(st.Clip.Left())),
		int(math.Floor(st.Clip.Top())),
		int(math.Ceil(st.Clip.Right())),
		int(math.Ceil(st.Clip.Bottom())),
	).Intersect(c.target.Bounds())
	if r.Empty() {
		return nil, 0, 0, false
	}
	// SubImage of an *ebiten.Image is always an *ebiten.Image.
	return c.target.SubImage(r).(*ebiten.Image), float32(r.Min.X), float32(r.Min.Y), true
}

func setVertexColors(vs []ebiten.Vertex, col paint.Color) {
	r, g, b, a := col.Floats()
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 0, 0
		vs[i].ColorR = float32(r)
		vs[i].ColorG = float32(g)
		vs[i].ColorB = float32(b)
		vs[i].ColorA = float32(a)
	}
}

// setGradientCoords maps each device vertex back to user space and points
// it at the gradient texture texel for its position along start-end. The
// position is linear in the vertex, so interpolation across triangles is
// exact for any number of stops.
func setGradientCoords(vs []ebiten.Vertex, inv geom.Transform, start, end geom.Point) {
	d := end.Sub(start)
	l2 := d.X*d.X + d.Y*d.Y
	for i := range vs {
		var t float64
		if l2 > geom.Epsilon {
			v := inv.Apply(geom.Pt(float64(vs[i].DstX), float64(vs[i].DstY))).Sub(start)
			t = (v.X*d.X + v.Y*d.Y) / l2
		}
		t = math.Max(0, math.Min(1, t))
		vs[i].SrcX = float32(0.5 + t*(gradientWidth-1))
		vs[i].SrcY = 0.5
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = 1, 1, 1, 1
	}
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

// DrawText implements canvas.Canvas.
func (c *Canvas) DrawText(s string, frame geom.Rect, font canvas.Font, align canvas.Alignment, pen *paint.Pen, brush paint.Brush) error {
	if s == "" {
		return nil
	}
	col, ok := canvas.TextColor(pen, brush)
	if !ok {
		return nil
	}
	if c.target == nil {
		return ErrNoTarget
	}
	dst, dx, dy, visible := c.clipped()
	if !visible {
		return nil
	}
	origin := canvas.AlignText(frame, c.text.MeasureText(s, font), align)
	var g ebiten.GeoM
	g.Translate(origin.X, origin.Y)
	g.Concat(geoM(c.CurrentTransform()))
	g.Translate(-float64(dx), -float64(dy))
	c.text.DrawText(dst, s, font, g, col)
	c.stats.Texts++
	return nil
}

// DrawImage implements canvas.Canvas.
func (c *Canvas) DrawImage(img *canvas.Image, frame geom.Rect, alpha float64) error {
	if img.Empty() {
		return canvas.ErrNoImage
	}
	if frame.IsEmpty() || alpha <= 0 {
		return nil
	}
	if c.target == nil {
		return ErrNoTarget
	}
	dst, dx, dy, visible := c.clipped()
	if !visible {
		return nil
	}
	size := img.Size()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(frame.Width/size.Width, frame.Height/size.Height)
	op.GeoM.Translate(frame.X, frame.Y)
	op.GeoM.Concat(geoM(c.CurrentTransform()))
	op.GeoM.Translate(-float64(dx), -float64(dy))
	op.ColorScale.ScaleAlpha(float32(math.Min(alpha, 1)))
	dst.DrawImage(c.images.Texture(img), op)
	c.stats.Images++
	return nil
}

// MeasureText implements canvas.Canvas.
func (c *Canvas) MeasureText(s string, font canvas.Font) geom.Size {
	return c.text.MeasureText(s, font)
}

// geoM converts a transform to ebiten's matrix layout.
func geoM(t geom.Transform) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, t.A)
	g.SetElement(0, 1, t.C)
	g.SetElement(0, 2, t.E)
	g.SetElement(1, 0, t.B)
	g.SetElement(1, 1, t.D)
	g.SetElement(1, 2, t.F)
	return g
}

// conformal reports whether t maps circles to circles, so arcs can be
// drawn natively after transforming their center.
func conformal(t geom.Transform) bool {
	const eps = 1e-9
	rotation := math.Abs(t.A-t.D) < eps && math.Abs(t.B+t.C) < eps
	reflection := math.Abs(t.A+t.D) < eps && math.Abs(t.B-t.C) < eps
	return (rotation || reflection) && t.Invertible()
}

// vectorSink maps path callbacks onto a vector.Path in device space.
type vectorSink struct {
	p *vector.Path
	t geom.Transform
}

func (s *vectorSink) MoveTo(p geom.Point) {
	d := s.t.Apply(p)
	s.p.MoveTo(float32(d.X), float32(d.Y))
}

func (s *vectorSink) LineTo(p geom.Point) {
	d := s.t.Apply(p)
	s.p.LineTo(float32(d.X), float32(d.Y))
}

func (s *vectorSink) CubicTo(c1, c2, p geom.Point) {
	a, b, d := s.t.Apply(c1), s.t.Apply(c2), s.t.Apply(p)
	s.p.CubicTo(float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(d.X), float32(d.Y))
}

// ArcTo is only reached for conformal transforms.
func (s *vectorSink) ArcTo(a path.ArcSegment) {
	center := s.t.Apply(a.Center)
	angle := func(theta float64) float64 {
		v := s.t.ApplyVector(geom.Pt(math.Cos(theta), math.Sin(theta)))
		return math.Atan2(v.Y, v.X)
	}
	start, end := angle(a.Start), angle(a.End())
	clockwise := a.Clockwise() != (s.t.Determinant() < 0)
	dir := vector.CounterClockwise
	if clockwise {
		dir = vector.Clockwise
	}
	s.p.Arc(float32(center.X), float32(center.Y), float32(a.Radius*s.t.ScaleFactor()), float32(start), float32(end), dir)
}

func (s *vectorSink) Close() {
	s.p.Close()
}
