package canvas

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

// CallKind identifies a recorded call.
type CallKind int

const (
	CallFill CallKind = iota
	CallStroke
	CallText
	CallImage
)

func (k CallKind) String() string {
	switch k {
	case CallFill:
		return "fill"
	case CallStroke:
		return "stroke"
	case CallText:
		return "text"
	case CallImage:
		return "image"
	}
	return fmt.Sprintf("CallKind(%d)", int(k))
}

// GradientRecord is a gradient resolved to device space.
type GradientRecord struct {
	Radial bool
	Start  geom.Point // linear only
	End    geom.Point // linear only
	Center geom.Point // radial only
	Radius float64    // radial only
	Stops  []paint.GradientStop
}

// Call is one resolved draw operation as a backend would issue it.
type Call struct {
	Kind CallKind
	// Contours are flattened device-space polylines (fill and stroke).
	Contours []path.Polyline
	Color    paint.Color
	Gradient *GradientRecord
	// Width is the device-space stroke width.
	Width float64
	Text  string
	Font  Font
	// Origin is the device-space top-left of text.
	Origin geom.Point
	Image  *Image
	Frame  geom.Rect // image destination in user space
	Alpha  float64
	State  State
}

// Recorder is a Canvas that keeps the resolved calls instead of drawing.
// It supports every brush and is used to inspect what a drawing routine
// does.
type Recorder struct {
	StateStack
	// Measure replaces the built-in text metrics when set.
	Measure func(s string, font Font) geom.Size

	calls []Call
}

var _ Canvas = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Count returns the number of recorded calls of kind k.
func (r *Recorder) Count(k CallKind) int {
	n := 0
	for _, c := range r.calls {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Gradients returns the number of gradient objects created.
func (r *Recorder) Gradients() int {
	n := 0
	for _, c := range r.calls {
		if c.Gradient != nil {
			n++
		}
	}
	return n
}

// Reset clears the calls and the state stack.
func (r *Recorder) Reset() {
	r.calls = nil
	r.StateStack.Reset()
}

// DrawPath implements Canvas.
func (r *Recorder) DrawPath(ops []path.Op, pen *paint.Pen, brush paint.Brush) error {
	if Nothing(pen, brush) {
		return nil
	}
	lines, err := path.Flatten(ops, path.DefaultTolerance)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	t := r.CurrentTransform()
	if brush != nil {
		if err := r.fill(ops, lines, t, brush); err != nil {
			return err
		}
	}
	if pen.Visible() {
		stroked := lines
		if pen.Dashed() {
			dashed, err := path.Dash(ops, pen.Dash, 0)
			if err != nil {
				return err
			}
			if stroked, err = path.Flatten(dashed, path.DefaultTolerance); err != nil {
				return err
			}
		}
		r.calls = append(r.calls, Call{
			Kind:     CallStroke,
			Contours: deviceLines(stroked, t),
			Color:    pen.Color,
			Width:    pen.Width * t.ScaleFactor(),
			State:    r.State(),
		})
	}
	return nil
}

func (r *Recorder) fill(ops []path.Op, lines []path.Polyline, t geom.Transform, brush paint.Brush) error {
	call := Call{Kind: CallFill, Contours: deviceLines(lines, t), State: r.State()}
	switch b := brush.(type) {
	case paint.SolidBrush:
		call.Color = b.Color
	case *paint.LinearGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil
		}
		bounds, _ := path.Bounds(ops)
		s, e := b.Endpoints(bounds)
		call.Gradient = &GradientRecord{Start: t.Apply(s), End: t.Apply(e), Stops: paint.SortStops(b.Stops)}
	case *paint.RadialGradientBrush:
		if b == nil || !paint.Renderable(b.Stops) {
			return nil
		}
		bounds, _ := path.Bounds(ops)
		c, rad := b.Geometry(bounds)
		call.Gradient = &GradientRecord{Radial: true, Center: t.Apply(c), Radius: rad * t.ScaleFactor(), Stops: paint.SortStops(b.Stops)}
	default:
		return fmt.Errorf("recorder: brush %T: %w", brush, ErrUnsupported)
	}
	r.calls = append(r.calls, call)
	return nil
}

func deviceLines(lines []path.Polyline, t geom.Transform) []path.Polyline {
	out := make([]path.Polyline, len(lines))
	for i, l := range lines {
		pts := make([]geom.Point, len(l.Points))
		for j, p := range l.Points {
			pts[j] = t.Apply(p)
		}
		out[i] = path.Polyline{Points: pts, Closed: l.Closed}
	}
	return out
}

// DrawRectangle implements Canvas.
func (r *Recorder) DrawRectangle(rect geom.Rect, pen *paint.Pen, brush paint.Brush) error {
	if rect.IsEmpty() {
		return nil
	}
	return r.DrawPath(path.RectOps(rect), pen, brush)
}

// DrawEllipse implements Canvas.
func (r *Recorder) DrawEllipse(rect geom.Rect, pen *paint.Pen, brush paint.Brush) error {
	if rect.IsEmpty() {
		return nil
	}
	return r.DrawPath(path.EllipseOps(rect), pen, brush)
}

// DrawText implements Canvas.
func (r *Recorder) DrawText(s string, frame geom.Rect, font Font, align Alignment, pen *paint.Pen, brush paint.Brush) error {
	if s == "" {
		return nil
	}
	c, ok := TextColor(pen, brush)
	if !ok {
		return nil
	}
	font = font.Normalized()
	origin := AlignText(frame, r.MeasureText(s, font), align)
	r.calls = append(r.calls, Call{
		Kind:   CallText,
		Text:   s,
		Font:   font,
		Color:  c,
		Origin: r.CurrentTransform().Apply(origin),
		State:  r.State(),
	})
	return nil
}

// DrawImage implements Canvas.
func (r *Recorder) DrawImage(img *Image, frame geom.Rect, alpha float64) error {
	if img.Empty() {
		return ErrNoImage
	}
	if frame.IsEmpty() || alpha <= 0 {
		return nil
	}
	r.calls = append(r.calls, Call{
		Kind:  CallImage,
		Image: img,
		Frame: frame,
		Alpha: math.Min(alpha, 1),
		State: r.State(),
	})
	return nil
}

// MeasureText implements Canvas. Without a Measure func every rune is
// 0.6 em wide and a line is 1.2 em tall.
func (r *Recorder) MeasureText(s string, font Font) geom.Size {
	font = font.Normalized()
	if r.Measure != nil {
		return r.Measure(s, font)
	}
	if s == "" {
		return geom.Size{}
	}
	return geom.Sz(float64(utf8.RuneCountInString(s))*font.Size*0.6, font.Size*1.2)
}
