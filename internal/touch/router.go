// Package touch routes device-space pointer batches to the views under
// them. A gesture is latched to the view that consumes its Began phase and
// every later phase of that gesture goes to the same view.
//
// Routing is synchronous and happens on the UI goroutine; a Router is not
// safe for concurrent use.
package touch

import (
	"fmt"
	"log/slog"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// Phase is the stage of a gesture.
type Phase int

const (
	Began Phase = iota
	Moved
	Ended
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Began:
		return "began"
	case Moved:
		return "moved"
	case Ended:
		return "ended"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Pointer is one contact in device space.
type Pointer struct {
	ID       int
	Position geom.Point
}

// Batch is the set of pointers reported together for one phase. The first
// pointer is the primary one.
type Batch struct {
	Phase    Phase
	Pointers []Pointer
}

// Target is something that can receive touches. Each Touches method
// receives points in the target's local space and reports whether it
// consumed them.
type Target interface {
	// ScreenTransform maps local coordinates to device coordinates.
	ScreenTransform() geom.Transform
	// Contains hit-tests a local point.
	Contains(local geom.Point) bool
	InputTransparent() bool

	TouchesBegan(points []geom.Point) bool
	TouchesMoved(points []geom.Point) bool
	TouchesEnded(points []geom.Point) bool
	TouchesCancelled(points []geom.Point) bool
}

// Result describes what a dispatch did.
type Result struct {
	Consumed bool
	// Target received the batch and consumed it; nil otherwise.
	Target Target
	// Points are the local points delivered to Target.
	Points []geom.Point
}

// Router dispatches batches to targets.
type Router struct {
	// MultiTouch delivers every pointer of a batch. When false only the
	// primary pointer is delivered.
	MultiTouch bool
	Logger     *slog.Logger

	latched Target
	last    []geom.Point
	// cancelled is set when a latched gesture was cancelled before it
	// ended. Its remaining phases are dropped until the next Began.
	cancelled bool
}

// NewRouter returns a router. A nil logger discards.
func NewRouter(multiTouch bool, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{MultiTouch: multiTouch, Logger: logger}
}

// Latched returns the target owning the current gesture, or nil.
func (r *Router) Latched() Target {
	return r.latched
}

func (r *Router) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Dispatch routes b to targets, which are ordered topmost first.
//
// Began goes to the first target under the primary pointer that consumes
// it, and latches that target. Moved goes to the latched target, or
// without a latch to the first target under the pointer that consumes it.
// Ended and Cancelled go only to the latched target and release it.
// After Cancel, the rest of the cancelled gesture is dropped until the
// next Began.
func (r *Router) Dispatch(targets []Target, b Batch) Result {
	pointers := b.Pointers
	if len(pointers) == 0 {
		return Result{}
	}
	if !r.MultiTouch && len(pointers) > 1 {
		pointers = pointers[:1]
	}

	if r.cancelled {
		switch b.Phase {
		case Began:
			r.cancelled = false
		case Ended, Cancelled:
			r.cancelled = false
			return Result{}
		default:
			r.logger().Debug("touch dropped from a cancelled gesture", "phase", b.Phase)
			return Result{}
		}
	}

	if r.latched != nil {
		switch b.Phase {
		case Began:
			if !r.MultiTouch {
				// A new gesture while one is still open: the old one was
				// never finished, so it is cancelled.
				r.Cancel()
				r.cancelled = false
				break
			}
			return r.deliverLatched(Began, pointers)
		case Moved:
			return r.deliverLatched(Moved, pointers)
		case Ended, Cancelled:
			res := r.deliverLatched(b.Phase, pointers)
			r.latched, r.last = nil, nil
			return res
		}
	}

	switch b.Phase {
	case Began, Moved:
		res := r.hitTest(targets, b.Phase, pointers)
		if res.Consumed && b.Phase == Began {
			r.latched, r.last = res.Target, res.Points
		}
		return res
	default:
		r.logger().Debug("touch dropped without a latched target", "phase", b.Phase)
		return Result{}
	}
}

// hitTest offers the batch to each target under the primary pointer until
// one consumes it.
func (r *Router) hitTest(targets []Target, phase Phase, pointers []Pointer) Result {
	for _, t := range targets {
		if t == nil || t.InputTransparent() {
			continue
		}
		local, ok := toLocal(t, pointers)
		if !ok {
			r.logger().Debug("touch target skipped: transform not invertible")
			continue
		}
		if !t.Contains(local[0]) {
			continue
		}
		if deliver(t, phase, local) {
			return Result{Consumed: true, Target: t, Points: local}
		}
	}
	return Result{}
}

func (r *Router) deliverLatched(phase Phase, pointers []Pointer) Result {
	t := r.latched
	local, ok := toLocal(t, pointers)
	if !ok {
		return Result{}
	}
	r.last = local
	consumed := deliver(t, phase, local)
	return Result{Consumed: consumed, Target: t, Points: local}
}

// Cancel sends Cancelled with the last delivered points to the latched
// target and releases it. Later Moved, Ended and Cancelled batches of the
// same gesture are dropped. It is a no-op without a latch.
func (r *Router) Cancel() Result {
	t := r.latched
	if t == nil {
		return Result{}
	}
	pts := r.last
	r.latched, r.last = nil, nil
	r.cancelled = true
	consumed := t.TouchesCancelled(pts)
	return Result{Consumed: consumed, Target: t, Points: pts}
}

// CancelTarget cancels the gesture if it is latched to t, as when t is
// removed mid-gesture.
func (r *Router) CancelTarget(t Target) Result {
	if r.latched == nil || r.latched != t {
		return Result{}
	}
	return r.Cancel()
}

// toLocal maps device pointers into t's space. The inverse is computed
// once per batch.
func toLocal(t Target, pointers []Pointer) ([]geom.Point, bool) {
	inv, ok := t.ScreenTransform().Inverse()
	if !ok {
		return nil, false
	}
	local := make([]geom.Point, len(pointers))
	for i, p := range pointers {
		local[i] = inv.Apply(p.Position)
	}
	return local, true
}

func deliver(t Target, phase Phase, pts []geom.Point) bool {
	switch phase {
	case Began:
		return t.TouchesBegan(pts)
	case Moved:
		return t.TouchesMoved(pts)
	case Ended:
		return t.TouchesEnded(pts)
	case Cancelled:
		return t.TouchesCancelled(pts)
	}
	return false
}
