package script

import (
	"fmt"
	"log/slog"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

// Bindings exposes a canvas to Lua as nc_* globals. A canvas is bound only
// for the duration of one draw callback; drawing functions called at any
// other time raise ErrNoCanvas. Paint state (pen, dash, brush, font) and
// the current path start fresh on every Bind.
type Bindings struct {
	runtime    *Runtime
	logger     *slog.Logger
	images     assets.ImageSet
	measure    func(s string, f canvas.Font) geom.Size
	invalidate func(id string) bool

	canvas  canvas.Canvas
	base    int
	current string
	path    path.Builder
	pen     *paint.Pen
	dash    []float64
	brush   paint.Brush
	font    canvas.Font
}

// NewBindings registers the nc_* functions in r.
func NewBindings(r *Runtime, logger *slog.Logger) (*Bindings, error) {
	if r == nil {
		return nil, ErrNilRuntime
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Bindings{runtime: r, logger: logger, font: canvas.DefaultFont}
	b.registerFunctions()
	return b, nil
}

// SetImages sets the images nc_draw_image can name.
func (b *Bindings) SetImages(set assets.ImageSet) {
	b.images = set
}

// SetMeasurer sets the text measurer used by nc_measure_text outside a
// draw callback. Inside one the bound canvas measures.
func (b *Bindings) SetMeasurer(fn func(s string, f canvas.Font) geom.Size) {
	b.measure = fn
}

// SetInvalidator sets the function nc_invalidate calls with a view id. It
// reports whether the id named a view.
func (b *Bindings) SetInvalidator(fn func(id string) bool) {
	b.invalidate = fn
}

// Bind makes c the drawing target for the view named id.
func (b *Bindings) Bind(c canvas.Canvas, id string) {
	b.canvas = c
	b.base = c.StateDepth()
	b.current = id
	b.path.Reset()
	b.pen = nil
	b.dash = nil
	b.brush = nil
	b.font = canvas.DefaultFont
}

// Unbind releases the canvas. States the script saved and never restored
// are restored here; the count is returned and logged.
func (b *Bindings) Unbind() (unwound int, err error) {
	c := b.canvas
	if c == nil {
		return 0, nil
	}
	for c.StateDepth() > b.base {
		if err = c.RestoreState(); err != nil {
			break
		}
		unwound++
	}
	if unwound > 0 {
		b.logger.Warn("script left saved states on the stack", "view", b.current, "unwound", unwound)
	}
	b.canvas = nil
	b.current = ""
	return unwound, err
}

func (b *Bindings) bound(fn string) (canvas.Canvas, error) {
	if b.canvas == nil {
		return nil, fmt.Errorf("%s: %w", fn, ErrNoCanvas)
	}
	return b.canvas, nil
}

func (b *Bindings) strokePen() *paint.Pen {
	if b.pen == nil {
		return nil
	}
	p := *b.pen
	p.Dash = b.dash
	return &p
}

type binding struct {
	name    string
	fn      rt.GoFunctionFunc
	nArgs   int
	varArgs bool
}

func (b *Bindings) registerFunctions() {
	for _, f := range []binding{
		// Path building
		{"nc_new_path", b.newPath, 0, false},
		{"nc_move_to", b.moveTo, 2, false},
		{"nc_line_to", b.lineTo, 2, false},
		{"nc_curve_to", b.curveTo, 6, false},
		{"nc_arc_to", b.arcTo, 5, false},
		{"nc_close_path", b.closePath, 0, false},

		// Paint
		{"nc_set_pen", b.setPen, 4, false},
		{"nc_clear_pen", b.clearPen, 0, false},
		{"nc_set_dash", b.setDash, 1, false},
		{"nc_set_solid", b.setSolid, 1, false},
		{"nc_set_linear", b.setLinear, 2, false},
		{"nc_set_radial", b.setRadial, 4, false},
		{"nc_clear_brush", b.clearBrush, 0, false},
		{"nc_set_font", b.setFont, 3, false},

		// Drawing
		{"nc_draw_path", b.drawPath, 0, false},
		{"nc_draw_rectangle", b.drawRectangle, 4, false},
		{"nc_draw_ellipse", b.drawEllipse, 4, false},
		{"nc_draw_text", b.drawText, 6, false},
		{"nc_draw_image", b.drawImage, 6, false},
		{"nc_measure_text", b.measureText, 1, false},

		// State
		{"nc_save_state", b.saveState, 0, false},
		{"nc_restore_state", b.restoreState, 0, false},
		{"nc_transform", b.transform, 6, false},
		{"nc_translate", b.translate, 2, false},
		{"nc_scale", b.scale, 2, false},
		{"nc_rotate", b.rotate, 1, false},
		{"nc_clip_rect", b.clipRect, 4, false},

		{"nc_invalidate", b.invalidateView, 1, false},
	} {
		b.runtime.SetGoFunction(f.name, f.fn, f.nArgs, f.varArgs)
	}
}

// --- Path building ---

func (b *Bindings) newPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	b.path.Reset()
	return c.Next(), nil
}

func (b *Bindings) moveTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p, err := argsOf("nc_move_to", c).floats(0, 2)
	if err != nil {
		return nil, err
	}
	b.path.MoveTo(p[0], p[1])
	return c.Next(), nil
}

func (b *Bindings) lineTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p, err := argsOf("nc_line_to", c).floats(0, 2)
	if err != nil {
		return nil, err
	}
	b.path.LineTo(p[0], p[1])
	return c.Next(), nil
}

func (b *Bindings) curveTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p, err := argsOf("nc_curve_to", c).floats(0, 6)
	if err != nil {
		return nil, err
	}
	b.path.CurveTo(p[0], p[1], p[2], p[3], p[4], p[5])
	return c.Next(), nil
}

// arcTo handles nc_arc_to(x, y, radius, large_arc, clockwise).
func (b *Bindings) arcTo(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_arc_to", c)
	p, err := a.floats(0, 3)
	if err != nil {
		return nil, err
	}
	b.path.ArcTo(p[0], p[1], p[2], a.boolOr(3, false), a.boolOr(4, true))
	return c.Next(), nil
}

func (b *Bindings) closePath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	b.path.Close()
	return c.Next(), nil
}

// --- Paint ---

// setPen handles nc_set_pen(color, width[, cap[, join]]).
func (b *Bindings) setPen(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_set_pen", c)
	col, err := a.color(0)
	if err != nil {
		return nil, err
	}
	width, err := a.floatOr(1, 1)
	if err != nil {
		return nil, err
	}
	pen := paint.NewPen(col, width)
	capName, err := a.strOr(2, "")
	if err != nil {
		return nil, err
	}
	if pen.Cap, err = paint.ParseLineCap(capName); err != nil {
		return nil, a.errorf(2, "%v", err)
	}
	joinName, err := a.strOr(3, "")
	if err != nil {
		return nil, err
	}
	if pen.Join, err = paint.ParseLineJoin(joinName); err != nil {
		return nil, a.errorf(3, "%v", err)
	}
	b.pen = pen
	return c.Next(), nil
}

func (b *Bindings) clearPen(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	b.pen = nil
	return c.Next(), nil
}

// setDash handles nc_set_dash({on, off, ...}); nil clears the pattern.
func (b *Bindings) setDash(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_set_dash", c)
	if !a.has(0) {
		b.dash = nil
		return c.Next(), nil
	}
	tbl, err := a.table(0)
	if err != nil {
		return nil, err
	}
	var dash []float64
	for i := int64(1); ; i++ {
		e := tbl.Get(rt.IntValue(i))
		if e.IsNil() {
			break
		}
		f, err := toFloat(e, func() error { return a.errorf(0, "dash entry %d is not a number", i) })
		if err != nil {
			return nil, err
		}
		dash = append(dash, f)
	}
	b.dash = dash
	return c.Next(), nil
}

func (b *Bindings) setSolid(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	col, err := argsOf("nc_set_solid", c).color(0)
	if err != nil {
		return nil, err
	}
	b.brush = paint.Solid(col)
	return c.Next(), nil
}

// setLinear handles nc_set_linear(angle_degrees, stops).
func (b *Bindings) setLinear(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_set_linear", c)
	angle, err := a.float(0)
	if err != nil {
		return nil, err
	}
	tbl, err := a.table(1)
	if err != nil {
		return nil, err
	}
	stops, err := toStops(tbl)
	if err != nil {
		return nil, a.errorf(1, "%v", err)
	}
	b.brush = paint.NewLinearGradient(angle, stops...)
	return c.Next(), nil
}

// setRadial handles nc_set_radial(cx, cy, radius, stops) in unit
// coordinates of the shape's bounds.
func (b *Bindings) setRadial(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_set_radial", c)
	g, err := a.floats(0, 3)
	if err != nil {
		return nil, err
	}
	tbl, err := a.table(3)
	if err != nil {
		return nil, err
	}
	stops, err := toStops(tbl)
	if err != nil {
		return nil, a.errorf(3, "%v", err)
	}
	b.brush = paint.NewRadialGradient(geom.Pt(g[0], g[1]), g[2], stops...)
	return c.Next(), nil
}

func (b *Bindings) clearBrush(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	b.brush = nil
	return c.Next(), nil
}

// setFont handles nc_set_font(family, size[, style]).
func (b *Bindings) setFont(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("nc_set_font", c)
	family, err := a.strOr(0, "")
	if err != nil {
		return nil, err
	}
	size, err := a.floatOr(1, canvas.DefaultFontSize)
	if err != nil {
		return nil, err
	}
	styleName, err := a.strOr(2, "")
	if err != nil {
		return nil, err
	}
	style, err := canvas.ParseFontStyle(styleName)
	if err != nil {
		return nil, a.errorf(2, "%v", err)
	}
	b.font = canvas.Font{Family: family, Size: size, Style: style}
	return c.Next(), nil
}

// --- Drawing ---

func (b *Bindings) drawPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_draw_path")
	if err != nil {
		return nil, err
	}
	if err := cv.DrawPath(b.path.Ops(), b.strokePen(), b.brush); err != nil {
		return nil, fmt.Errorf("nc_draw_path: %w", err)
	}
	return c.Next(), nil
}

func (b *Bindings) drawRectangle(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_draw_rectangle")
	if err != nil {
		return nil, err
	}
	r, err := argsOf("nc_draw_rectangle", c).rect(0)
	if err != nil {
		return nil, err
	}
	if err := cv.DrawRectangle(r, b.strokePen(), b.brush); err != nil {
		return nil, fmt.Errorf("nc_draw_rectangle: %w", err)
	}
	return c.Next(), nil
}

func (b *Bindings) drawEllipse(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_draw_ellipse")
	if err != nil {
		return nil, err
	}
	r, err := argsOf("nc_draw_ellipse", c).rect(0)
	if err != nil {
		return nil, err
	}
	if err := cv.DrawEllipse(r, b.strokePen(), b.brush); err != nil {
		return nil, fmt.Errorf("nc_draw_ellipse: %w", err)
	}
	return c.Next(), nil
}

// drawText handles nc_draw_text(text, x, y, w, h[, align]).
func (b *Bindings) drawText(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_draw_text")
	if err != nil {
		return nil, err
	}
	a := argsOf("nc_draw_text", c)
	s, err := a.str(0)
	if err != nil {
		return nil, err
	}
	r, err := a.rect(1)
	if err != nil {
		return nil, err
	}
	alignName, err := a.strOr(5, "")
	if err != nil {
		return nil, err
	}
	align, err := canvas.ParseAlignment(alignName)
	if err != nil {
		return nil, a.errorf(5, "%v", err)
	}
	if err := cv.DrawText(s, r, b.font, align, b.strokePen(), b.brush); err != nil {
		return nil, fmt.Errorf("nc_draw_text: %w", err)
	}
	return c.Next(), nil
}

// drawImage handles nc_draw_image(name, x, y, w, h[, alpha]).
func (b *Bindings) drawImage(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_draw_image")
	if err != nil {
		return nil, err
	}
	a := argsOf("nc_draw_image", c)
	name, err := a.str(0)
	if err != nil {
		return nil, err
	}
	r, err := a.rect(1)
	if err != nil {
		return nil, err
	}
	alpha, err := a.floatOr(5, 1)
	if err != nil {
		return nil, err
	}
	img, ok := b.images.Get(name)
	if !ok {
		return nil, fmt.Errorf("nc_draw_image: %w: %q", ErrUnknownImage, name)
	}
	if err := cv.DrawImage(img, r, alpha); err != nil {
		return nil, fmt.Errorf("nc_draw_image: %w", err)
	}
	return c.Next(), nil
}

// measureText handles nc_measure_text(text) and returns width, height in
// the current font.
func (b *Bindings) measureText(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	s, err := argsOf("nc_measure_text", c).str(0)
	if err != nil {
		return nil, err
	}
	var size geom.Size
	switch {
	case b.canvas != nil:
		size = b.canvas.MeasureText(s, b.font)
	case b.measure != nil:
		size = b.measure(s, b.font)
	default:
		return nil, fmt.Errorf("nc_measure_text: %w", ErrNoCanvas)
	}
	return c.PushingNext(t.Runtime, rt.FloatValue(size.Width), rt.FloatValue(size.Height)), nil
}

// --- State ---

func (b *Bindings) saveState(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_save_state")
	if err != nil {
		return nil, err
	}
	cv.SaveState()
	return c.Next(), nil
}

// restoreState pops a state saved by the script. The states the view
// itself pushed before the callback are out of reach.
func (b *Bindings) restoreState(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_restore_state")
	if err != nil {
		return nil, err
	}
	if cv.StateDepth() <= b.base {
		return nil, fmt.Errorf("nc_restore_state: %w", canvas.ErrStateUnderflow)
	}
	if err := cv.RestoreState(); err != nil {
		return nil, fmt.Errorf("nc_restore_state: %w", err)
	}
	return c.Next(), nil
}

// transform handles nc_transform(a, b, c, d, e, f).
func (b *Bindings) transform(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_transform")
	if err != nil {
		return nil, err
	}
	m, err := argsOf("nc_transform", c).floats(0, 6)
	if err != nil {
		return nil, err
	}
	cv.Transform(geom.Transform{A: m[0], B: m[1], C: m[2], D: m[3], E: m[4], F: m[5]})
	return c.Next(), nil
}

func (b *Bindings) translate(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_translate")
	if err != nil {
		return nil, err
	}
	d, err := argsOf("nc_translate", c).floats(0, 2)
	if err != nil {
		return nil, err
	}
	cv.Transform(geom.Translate(d[0], d[1]))
	return c.Next(), nil
}

// scale handles nc_scale(sx[, sy]); sy defaults to sx.
func (b *Bindings) scale(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_scale")
	if err != nil {
		return nil, err
	}
	a := argsOf("nc_scale", c)
	sx, err := a.float(0)
	if err != nil {
		return nil, err
	}
	sy, err := a.floatOr(1, sx)
	if err != nil {
		return nil, err
	}
	cv.Transform(geom.Scale(sx, sy))
	return c.Next(), nil
}

// rotate handles nc_rotate(radians).
func (b *Bindings) rotate(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_rotate")
	if err != nil {
		return nil, err
	}
	angle, err := argsOf("nc_rotate", c).float(0)
	if err != nil {
		return nil, err
	}
	cv.Transform(geom.Rotate(angle))
	return c.Next(), nil
}

func (b *Bindings) clipRect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	cv, err := b.bound("nc_clip_rect")
	if err != nil {
		return nil, err
	}
	r, err := argsOf("nc_clip_rect", c).rect(0)
	if err != nil {
		return nil, err
	}
	cv.ClipRect(r)
	return c.Next(), nil
}

// invalidateView handles nc_invalidate([id]). Without an id the view being
// drawn is meant. It returns whether a view was found.
func (b *Bindings) invalidateView(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	id, err := argsOf("nc_invalidate", c).strOr(0, b.current)
	if err != nil {
		return nil, err
	}
	found := false
	if b.invalidate != nil && id != "" {
		found = b.invalidate(id)
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(found)), nil
}
