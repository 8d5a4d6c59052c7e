// Package view provides the drawable, touchable unit of a scene and the
// Host that owns a stack of them.
//
// A View draws through a canvas.Canvas in its own local space, where the
// origin is the top-left corner of its frame. The Host redraws when any
// attached view invalidates and routes touches to views through a
// touch.Router.
package view

import (
	"fmt"
	"time"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// Drawer renders a view's content. bounds is the view's local rectangle.
type Drawer interface {
	Draw(c canvas.Canvas, bounds geom.Rect) error
}

// DrawFunc adapts a function to Drawer.
type DrawFunc func(c canvas.Canvas, bounds geom.Rect) error

// Draw implements Drawer.
func (f DrawFunc) Draw(c canvas.Canvas, bounds geom.Rect) error {
	return f(c, bounds)
}

// TouchHandler receives touches in local coordinates and reports whether
// it consumed them.
type TouchHandler interface {
	TouchesBegan(points []geom.Point) bool
	TouchesMoved(points []geom.Point) bool
	TouchesEnded(points []geom.Point) bool
	TouchesCancelled(points []geom.Point) bool
}

// TouchFuncs adapts optional functions to TouchHandler. A nil func does
// not consume.
type TouchFuncs struct {
	Began     func(points []geom.Point) bool
	Moved     func(points []geom.Point) bool
	Ended     func(points []geom.Point) bool
	Cancelled func(points []geom.Point) bool
}

func call(fn func([]geom.Point) bool, pts []geom.Point) bool {
	return fn != nil && fn(pts)
}

func (f TouchFuncs) TouchesBegan(p []geom.Point) bool     { return call(f.Began, p) }
func (f TouchFuncs) TouchesMoved(p []geom.Point) bool     { return call(f.Moved, p) }
func (f TouchFuncs) TouchesEnded(p []geom.Point) bool     { return call(f.Ended, p) }
func (f TouchFuncs) TouchesCancelled(p []geom.Point) bool { return call(f.Cancelled, p) }

// Updater advances an animated view.
type Updater interface {
	Update(dt time.Duration)
}

// UpdateFunc adapts a function to Updater.
type UpdateFunc func(dt time.Duration)

// Update implements Updater.
func (f UpdateFunc) Update(dt time.Duration) { f(dt) }

// View is a rectangular drawable that receives touches. Views are owned by
// the UI goroutine; only Invalidate may be called from elsewhere.
type View struct {
	id               string
	frame            geom.Rect
	transform        geom.Transform
	background       paint.Color
	clipToBounds     bool
	inputTransparent bool
	hidden           bool

	drawer  Drawer
	touch   TouchHandler
	updater Updater

	invalidated Signal
}

var _ touch.Target = (*View)(nil)

// New returns a visible view with an identity transform.
func New(id string, frame geom.Rect) *View {
	return &View{id: id, frame: frame, transform: geom.Identity()}
}

// ID returns the identifier the view was created with.
func (v *View) ID() string { return v.id }

// Frame returns the view's rectangle in host coordinates.
func (v *View) Frame() geom.Rect { return v.frame }

// Transform returns the extra local transform applied about the frame
// origin.
func (v *View) Transform() geom.Transform { return v.transform }

// Background returns the color filled behind the drawer. Transparent means
// no fill.
func (v *View) Background() paint.Color { return v.background }

// ClipToBounds reports whether drawing is clipped to Bounds.
func (v *View) ClipToBounds() bool { return v.clipToBounds }

// InputTransparent reports whether touches pass through the view to the
// views below it.
func (v *View) InputTransparent() bool { return v.inputTransparent }

// Visible reports whether the view is drawn, ticked and hit-tested.
func (v *View) Visible() bool { return !v.hidden }

// Invalidated returns the signal emitted whenever the view needs a redraw.
func (v *View) Invalidated() *Signal { return &v.invalidated }

// TouchHandler returns the handler touches are forwarded to, or nil.
func (v *View) TouchHandler() TouchHandler { return v.touch }

// Bounds returns the local rectangle: the frame's size at the origin.
func (v *View) Bounds() geom.Rect {
	return geom.R(0, 0, v.frame.Width, v.frame.Height)
}

// SetFrame moves or resizes the view.
func (v *View) SetFrame(r geom.Rect) {
	if r != v.frame {
		v.frame = r
		v.Invalidate()
	}
}

// SetTransform sets the extra local transform applied about the frame
// origin.
func (v *View) SetTransform(t geom.Transform) {
	if t != v.transform {
		v.transform = t
		v.Invalidate()
	}
}

// SetBackground sets the color filled behind the drawer.
func (v *View) SetBackground(c paint.Color) {
	if c != v.background {
		v.background = c
		v.Invalidate()
	}
}

// SetClipToBounds clips drawing to Bounds when on.
func (v *View) SetClipToBounds(on bool) {
	if on != v.clipToBounds {
		v.clipToBounds = on
		v.Invalidate()
	}
}

// SetInputTransparent lets touches pass through to views below.
func (v *View) SetInputTransparent(on bool) {
	v.inputTransparent = on
}

// SetVisible shows or hides the view. Hidden views neither draw nor
// receive touches.
func (v *View) SetVisible(on bool) {
	if on == v.hidden {
		v.hidden = !on
		v.Invalidate()
	}
}

// SetDrawer sets the content renderer.
func (v *View) SetDrawer(d Drawer) {
	v.drawer = d
	v.Invalidate()
}

// SetTouchHandler sets the touch receiver. Nil consumes nothing.
func (v *View) SetTouchHandler(h TouchHandler) {
	v.touch = h
}

// SetUpdater sets the per-tick callback.
func (v *View) SetUpdater(u Updater) {
	v.updater = u
}

// Invalidate asks the owning host to redraw.
func (v *View) Invalidate() {
	v.invalidated.Emit()
}

// ScreenTransform maps local coordinates to device coordinates.
func (v *View) ScreenTransform() geom.Transform {
	return geom.Translate(v.frame.X, v.frame.Y).Multiply(v.transform)
}

// Contains reports whether a local point lies within Bounds.
func (v *View) Contains(local geom.Point) bool {
	return v.Bounds().Contains(local)
}

// TouchesBegan forwards a new gesture to the touch handler. A view without a
// handler consumes nothing.
func (v *View) TouchesBegan(p []geom.Point) bool {
	return v.touch != nil && v.touch.TouchesBegan(p)
}

// TouchesMoved forwards pointer movement to the touch handler.
func (v *View) TouchesMoved(p []geom.Point) bool {
	return v.touch != nil && v.touch.TouchesMoved(p)
}

// TouchesEnded forwards the end of a gesture to the touch handler.
func (v *View) TouchesEnded(p []geom.Point) bool {
	return v.touch != nil && v.touch.TouchesEnded(p)
}

// TouchesCancelled forwards an aborted gesture to the touch handler.
func (v *View) TouchesCancelled(p []geom.Point) bool {
	return v.touch != nil && v.touch.TouchesCancelled(p)
}

// Update forwards dt to the updater, if any.
func (v *View) Update(dt time.Duration) {
	if v.updater != nil {
		v.updater.Update(dt)
	}
}

// Render draws the view into c: background, then content, inside a saved
// state with the screen transform and optional clip applied. A panic in
// the drawer is returned as an error.
func (v *View) Render(c canvas.Canvas) (err error) {
	if v.hidden {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("view %q: draw panicked: %v", v.id, p)
		}
	}()
	bounds := v.Bounds()
	err = canvas.WithState(c, func() error {
		c.Transform(v.ScreenTransform())
		if v.clipToBounds {
			c.ClipRect(bounds)
		}
		if !v.background.IsTransparent() {
			if err := c.DrawRectangle(bounds, nil, paint.Solid(v.background)); err != nil {
				return err
			}
		}
		if v.drawer == nil {
			return nil
		}
		return v.drawer.Draw(c, bounds)
	})
	if err != nil {
		return fmt.Errorf("view %q: %w", v.id, err)
	}
	return nil
}
