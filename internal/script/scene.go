package script

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/view"
)

// Scene lifecycle hooks are optional functions on the ncontrol table.
const (
	hookStartup  = "startup"
	hookShutdown = "shutdown"
)

// SceneOptions configures a Scene.
type SceneOptions struct {
	Runtime RuntimeConfig
	// Size is exposed to scripts as ncontrol.width and ncontrol.height.
	Size   geom.Size
	Images assets.ImageSet
	// Measure serves nc_measure_text outside draw callbacks.
	Measure func(s string, f canvas.Font) geom.Size
	Logger  *slog.Logger
}

// Scene is the set of views a script defines with ncontrol.view{...}.
//
//	local knob = ncontrol.view{
//	  id = "knob", frame = {20, 20, 120, 120}, clip = true,
//	  draw = function(self, w, h) nc_set_solid("orange"); nc_draw_ellipse(0, 0, w, h) end,
//	  touches_began = function(self, touches) return true end,
//	}
//
// Callbacks receive the definition table as self, so scripts keep view
// state on it. Everything runs on the goroutine that draws and dispatches.
type Scene struct {
	runtime  *Runtime
	bindings *Bindings
	logger   *slog.Logger
	size     geom.Size
	ncontrol *rt.Table

	views []*view.View
	byID  map[string]*view.View
}

// NewScene creates a runtime with the nc_* bindings and the ncontrol
// table installed. No script is run yet.
func NewScene(opts SceneOptions) (*Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := New(opts.Runtime)
	b, err := NewBindings(r, logger)
	if err != nil {
		return nil, err
	}
	s := &Scene{
		runtime:  r,
		bindings: b,
		logger:   logger,
		size:     opts.Size,
		byID:     make(map[string]*view.View),
	}
	b.SetImages(opts.Images)
	b.SetMeasurer(opts.Measure)
	b.SetInvalidator(s.invalidate)
	s.installGlobals()
	return s, nil
}

func (s *Scene) installGlobals() {
	t := rt.NewTable()
	t.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	t.Set(rt.StringValue("width"), rt.FloatValue(s.size.Width))
	t.Set(rt.StringValue("height"), rt.FloatValue(s.size.Height))
	t.Set(rt.StringValue("view"), NewFunction("ncontrol.view", s.defineView, 1, false))
	t.Set(rt.StringValue("set_visible"), NewFunction("ncontrol.set_visible", s.setVisible, 2, false))
	t.Set(rt.StringValue("set_frame"), NewFunction("ncontrol.set_frame", s.setFrame, 5, false))
	s.ncontrol = t
	s.runtime.SetGlobal("ncontrol", rt.TableValue(t))
}

// Runtime returns the underlying runtime.
func (s *Scene) Runtime() *Runtime {
	return s.runtime
}

// Views returns the defined views in definition order, bottom first.
func (s *Scene) Views() []*view.View {
	return append([]*view.View(nil), s.views...)
}

// Find returns the view with the given id.
func (s *Scene) Find(id string) *view.View {
	return s.byID[id]
}

// LoadString runs code and then the optional ncontrol.startup hook.
func (s *Scene) LoadString(name, code string) error {
	closure, err := s.runtime.LoadString(name, code)
	if err != nil {
		return err
	}
	return s.run(closure)
}

// LoadFile runs the script at path and then the optional startup hook.
func (s *Scene) LoadFile(path string) error {
	closure, err := s.runtime.LoadFile(path)
	if err != nil {
		return err
	}
	return s.run(closure)
}

func (s *Scene) run(closure *rt.Closure) error {
	if _, err := s.runtime.Execute(closure); err != nil {
		return err
	}
	s.logger.Debug("scene loaded", "views", len(s.views))
	return s.callHook(hookStartup)
}

func (s *Scene) callHook(name string) error {
	fn := s.ncontrol.Get(rt.StringValue(name))
	if fn.IsNil() {
		return nil
	}
	if _, err := s.runtime.Call(fn); err != nil {
		return fmt.Errorf("ncontrol.%s: %w", name, err)
	}
	return nil
}

// Attach adds every view to h, bottom first.
func (s *Scene) Attach(h *view.Host) []*view.Attachment {
	out := make([]*view.Attachment, len(s.views))
	for i, v := range s.views {
		out[i] = h.Attach(v)
	}
	return out
}

// Close runs the optional ncontrol.shutdown hook and releases the runtime.
func (s *Scene) Close() error {
	err := s.callHook(hookShutdown)
	return errors.Join(err, s.runtime.Close())
}

func (s *Scene) invalidate(id string) bool {
	v, ok := s.byID[id]
	if ok {
		v.Invalidate()
	}
	return ok
}

// defineView handles ncontrol.view{...} and returns the table.
func (s *Scene) defineView(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("ncontrol.view", c)
	def, err := a.table(0)
	if err != nil {
		return nil, err
	}
	v, err := s.buildView(def)
	if err != nil {
		return nil, fmt.Errorf("ncontrol.view: %w", err)
	}
	s.views = append(s.views, v)
	s.byID[v.ID()] = v
	return c.PushingNext1(t.Runtime, rt.TableValue(def)), nil
}

func (s *Scene) buildView(def *rt.Table) (*view.View, error) {
	id := fmt.Sprintf("view%d", len(s.views)+1)
	if v := def.Get(rt.StringValue("id")); !v.IsNil() {
		str, ok := v.TryString()
		if !ok || str == "" {
			return nil, fmt.Errorf("%w: id must be a non-empty string", ErrBadView)
		}
		id = str
	}
	if _, dup := s.byID[id]; dup {
		return nil, fmt.Errorf("%w: duplicate id %q", ErrBadView, id)
	}

	frame := geom.R(0, 0, s.size.Width, s.size.Height)
	if fv := def.Get(rt.StringValue("frame")); !fv.IsNil() {
		ft, ok := fv.TryTable()
		if !ok {
			return nil, fmt.Errorf("%w: %s: frame must be a table", ErrBadView, id)
		}
		var err error
		if frame, err = toRect(ft); err != nil {
			return nil, fmt.Errorf("%w: %s: frame: %w", ErrBadView, id, err)
		}
	}

	v := view.New(id, frame)
	if tv := def.Get(rt.StringValue("transform")); !tv.IsNil() {
		tt, ok := tv.TryTable()
		if !ok {
			return nil, fmt.Errorf("%w: %s: transform must be a table", ErrBadView, id)
		}
		m, err := tableFloats(tt, 6)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: transform: %w", ErrBadView, id, err)
		}
		v.SetTransform(geom.Transform{A: m[0], B: m[1], C: m[2], D: m[3], E: m[4], F: m[5]})
	}
	if bg := def.Get(rt.StringValue("background")); !bg.IsNil() {
		col, err := toColor(bg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: background: %w", ErrBadView, id, err)
		}
		v.SetBackground(col)
	}
	v.SetClipToBounds(flag(def, "clip", false))
	v.SetInputTransparent(flag(def, "input_transparent", false))
	v.SetVisible(flag(def, "visible", true))

	fns := make(map[string]rt.Value)
	for _, name := range []string{"draw", "update", "touches_began", "touches_moved", "touches_ended", "touches_cancelled"} {
		fn := def.Get(rt.StringValue(name))
		if fn.IsNil() {
			continue
		}
		if !isFunction(fn) {
			return nil, fmt.Errorf("%w: %s: %s must be a function", ErrBadView, id, name)
		}
		fns[name] = fn
	}

	self := rt.TableValue(def)
	if fn, ok := fns["draw"]; ok {
		v.SetDrawer(s.drawFunc(id, self, fn))
	}
	if fn, ok := fns["update"]; ok {
		v.SetUpdater(view.UpdateFunc(func(dt time.Duration) {
			if _, err := s.runtime.Call(fn, self, rt.FloatValue(dt.Seconds())); err != nil {
				s.logger.Warn("update callback failed", "view", id, "error", err)
			}
		}))
	}
	touch := view.TouchFuncs{
		Began:     s.touchFunc(id, "touches_began", self, fns),
		Moved:     s.touchFunc(id, "touches_moved", self, fns),
		Ended:     s.touchFunc(id, "touches_ended", self, fns),
		Cancelled: s.touchFunc(id, "touches_cancelled", self, fns),
	}
	if touch.Began != nil || touch.Moved != nil || touch.Ended != nil || touch.Cancelled != nil {
		v.SetTouchHandler(touch)
	}
	return v, nil
}

func (s *Scene) drawFunc(id string, self, fn rt.Value) view.DrawFunc {
	return func(c canvas.Canvas, bounds geom.Rect) error {
		s.bindings.Bind(c, id)
		_, err := s.runtime.Call(fn, self, rt.FloatValue(bounds.Width), rt.FloatValue(bounds.Height))
		_, uerr := s.bindings.Unbind()
		return errors.Join(err, uerr)
	}
}

// touchFunc returns nil when the script defines no such callback, so the
// touch is not consumed. A failing callback is logged and consumes nothing.
func (s *Scene) touchFunc(id, name string, self rt.Value, fns map[string]rt.Value) func([]geom.Point) bool {
	fn, ok := fns[name]
	if !ok {
		return nil
	}
	return func(pts []geom.Point) bool {
		res, err := s.runtime.Call(fn, self, rt.TableValue(pointsTable(pts)))
		if err != nil {
			s.logger.Warn("touch callback failed", "view", id, "callback", name, "error", err)
			return false
		}
		return truthy(res)
	}
}

// setVisible handles ncontrol.set_visible(id, visible).
func (s *Scene) setVisible(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("ncontrol.set_visible", c)
	id, err := a.str(0)
	if err != nil {
		return nil, err
	}
	v, ok := s.byID[id]
	if ok {
		v.SetVisible(a.boolOr(1, true))
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ok)), nil
}

// setFrame handles ncontrol.set_frame(id, x, y, w, h).
func (s *Scene) setFrame(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := argsOf("ncontrol.set_frame", c)
	id, err := a.str(0)
	if err != nil {
		return nil, err
	}
	r, err := a.rect(1)
	if err != nil {
		return nil, err
	}
	v, ok := s.byID[id]
	if ok {
		v.SetFrame(r)
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ok)), nil
}

// toRect reads {x, y, w, h} or {x=, y=, width=, height=}.
func toRect(t *rt.Table) (geom.Rect, error) {
	if t.Get(rt.IntValue(1)).IsNil() {
		var f [4]float64
		for i, k := range []string{"x", "y", "width", "height"} {
			v := t.Get(rt.StringValue(k))
			if v.IsNil() {
				continue
			}
			n, err := toFloat(v, func() error { return fmt.Errorf("%s is not a number", k) })
			if err != nil {
				return geom.Rect{}, err
			}
			f[i] = n
		}
		return geom.R(f[0], f[1], f[2], f[3]), nil
	}
	f, err := tableFloats(t, 4)
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.R(f[0], f[1], f[2], f[3]), nil
}

func tableFloats(t *rt.Table, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v := t.Get(rt.IntValue(int64(i + 1)))
		f, err := toFloat(v, func() error { return fmt.Errorf("entry %d of %d is not a number", i+1, n) })
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func flag(t *rt.Table, key string, def bool) bool {
	v := t.Get(rt.StringValue(key))
	if v.IsNil() {
		return def
	}
	return truthy(v)
}

