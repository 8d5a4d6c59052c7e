// Package canvas defines the platform-independent drawing contract that
// every backend implements, together with the pieces backends share: the
// save/restore state stack, fonts, alignment, images and errors.
//
// A Canvas is an immediate-mode surface. Geometry passed to it is in user
// space and is mapped to device space through the current transform. A
// canvas is not safe for concurrent use; drawing happens on one goroutine.
package canvas

import (
	"io"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/path"
)

// Canvas is a drawing surface.
//
// For every Draw method a nil pen means "no stroke" and a nil brush means
// "no fill". When both are nil the call draws nothing and returns nil.
// Degenerate geometry (an empty path, a zero-size rectangle) is also a
// silent no-op.
type Canvas interface {
	// SaveState pushes a snapshot of the transform and clip.
	SaveState()
	// RestoreState pops the last snapshot. It returns ErrStateUnderflow
	// when there is nothing to restore.
	RestoreState() error
	// Transform composes t onto the current transform: t is applied to
	// geometry before the transform already in effect.
	Transform(t geom.Transform)
	CurrentTransform() geom.Transform
	StateDepth() int
	// ClipRect intersects the clip with the device-space bounds of r.
	ClipRect(r geom.Rect)

	DrawPath(ops []path.Op, pen *paint.Pen, brush paint.Brush) error
	DrawRectangle(r geom.Rect, pen *paint.Pen, brush paint.Brush) error
	DrawEllipse(r geom.Rect, pen *paint.Pen, brush paint.Brush) error
	DrawText(s string, frame geom.Rect, font Font, align Alignment, pen *paint.Pen, brush paint.Brush) error
	DrawImage(img *Image, frame geom.Rect, alpha float64) error
	MeasureText(s string, font Font) geom.Size
}

// ImageCanvas is an off-screen canvas whose pixels can be read back.
type ImageCanvas interface {
	Canvas
	// Size returns the logical size the canvas was created with.
	Size() geom.Size
	// GetImage snapshots the current pixels.
	GetImage() (*Image, error)
}

// Platform creates backend-specific resources.
type Platform interface {
	CreateImageCanvas(size geom.Size, scale float64, transparent bool) (ImageCanvas, error)
	CreateImage(width, height int, fill paint.Color) (*Image, error)
	LoadImage(r io.Reader) (*Image, error)
	MeasureText(s string, font Font) geom.Size
}

// Nothing reports whether a draw call with pen and brush has nothing to do.
func Nothing(pen *paint.Pen, brush paint.Brush) bool {
	return pen == nil && brush == nil
}

// TextColor picks the color text is drawn with: the pen's color when the
// pen is visible, otherwise the brush's flat color. ok is false when
// neither yields a color.
func TextColor(pen *paint.Pen, brush paint.Brush) (c paint.Color, ok bool) {
	if pen.Visible() {
		return pen.Color, true
	}
	return paint.BrushColor(brush)
}
