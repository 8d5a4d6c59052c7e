package view

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// Host owns an ordered stack of views, bottom first. It tracks whether any
// of them needs a redraw and routes touches to them. Apart from Dirty and
// Invalidate, a Host is used from the UI goroutine only.
type Host struct {
	attached []*Attachment
	dirty    atomic.Bool
	router   *touch.Router
	logger   *slog.Logger
}

// NewHost returns an empty host that needs a first draw. A nil router
// routes the primary pointer only; a nil logger discards.
func NewHost(router *touch.Router, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if router == nil {
		router = touch.NewRouter(false, logger)
	}
	h := &Host{router: router, logger: logger}
	h.dirty.Store(true)
	return h
}

// Attachment ties a view to a host. Its single subscription to the view's
// invalidate signal lives exactly as long as the attachment.
type Attachment struct {
	host *Host
	view *View
	sub  *Subscription
}

// View returns the attached view.
func (a *Attachment) View() *View {
	return a.view
}

// Detach removes the view, unhooks its subscription and cancels a gesture
// it owns. Calling it again does nothing.
func (a *Attachment) Detach() {
	h := a.host
	if h == nil {
		return
	}
	a.host = nil
	a.sub.Release()
	h.attached = slices.DeleteFunc(h.attached, func(x *Attachment) bool { return x == a })
	h.router.CancelTarget(a.view)
	h.Invalidate()
	h.logger.Debug("view detached", "id", a.view.ID())
}

// Attach puts v on top of the stack. Attaching a view that is already
// attached returns its existing attachment.
func (h *Host) Attach(v *View) *Attachment {
	for _, a := range h.attached {
		if a.view == v {
			return a
		}
	}
	a := &Attachment{host: h, view: v}
	a.sub = v.Invalidated().Subscribe(h.Invalidate)
	h.attached = append(h.attached, a)
	h.Invalidate()
	h.logger.Debug("view attached", "id", v.ID(), "frame", v.Frame())
	return a
}

// Close detaches every view.
func (h *Host) Close() {
	for len(h.attached) > 0 {
		h.attached[len(h.attached)-1].Detach()
	}
}

// Views returns the attached views, bottom first.
func (h *Host) Views() []*View {
	out := make([]*View, len(h.attached))
	for i, a := range h.attached {
		out[i] = a.view
	}
	return out
}

// Find returns the attached view with the given ID.
func (h *Host) Find(id string) *View {
	for _, a := range h.attached {
		if a.view.ID() == id {
			return a.view
		}
	}
	return nil
}

// BringToFront moves v to the top of the stack.
func (h *Host) BringToFront(v *View) {
	i := slices.IndexFunc(h.attached, func(a *Attachment) bool { return a.view == v })
	if i < 0 || i == len(h.attached)-1 {
		return
	}
	a := h.attached[i]
	h.attached = append(slices.Delete(h.attached, i, i+1), a)
	h.Invalidate()
}

// Router returns the touch router.
func (h *Host) Router() *touch.Router {
	return h.router
}

// Invalidate marks the host for redraw. Safe from any goroutine.
func (h *Host) Invalidate() {
	h.dirty.Store(true)
}

// Dirty reports whether a redraw is pending. Safe from any goroutine.
func (h *Host) Dirty() bool {
	return h.dirty.Load()
}

// Draw renders every visible view bottom to top and clears the dirty
// flag. A failing view does not stop the others; all failures are joined.
func (h *Host) Draw(c canvas.Canvas) error {
	h.dirty.Store(false)
	var errs []error
	for _, a := range h.attached {
		if err := a.view.Render(c); err != nil {
			h.logger.Warn("view draw failed", "id", a.view.ID(), "error", err)
			errs = append(errs, err)
		}
	}
	if depth := c.StateDepth(); depth != 0 {
		errs = append(errs, fmt.Errorf("%w: depth %d after draw", canvas.ErrStateUnbalanced, depth))
		h.logger.Error("state stack unbalanced after draw", "depth", depth)
	}
	return errors.Join(errs...)
}

// Targets returns the visible views as touch targets, topmost first.
func (h *Host) Targets() []touch.Target {
	out := make([]touch.Target, 0, len(h.attached))
	for i := len(h.attached) - 1; i >= 0; i-- {
		if v := h.attached[i].view; v.Visible() {
			out = append(out, v)
		}
	}
	return out
}

// Dispatch routes a device-space batch to the views.
func (h *Host) Dispatch(b touch.Batch) touch.Result {
	res := h.router.Dispatch(h.Targets(), b)
	if res.Target != nil {
		if v, ok := res.Target.(*View); ok {
			h.logger.Debug("touch dispatched", "phase", b.Phase, "view", v.ID(), "consumed", res.Consumed)
		}
	}
	return res
}

// Tick advances every visible view by dt.
func (h *Host) Tick(dt time.Duration) {
	for _, a := range h.attached {
		if a.view.Visible() {
			a.view.Update(dt)
		}
	}
}
