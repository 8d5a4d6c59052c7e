// Package term hosts a scene in a terminal. Frames are rendered off-screen
// by the raster backend, scaled to two pixels per character cell and shown
// as upper half blocks with true colors. The left mouse button acts as a
// single touch.
package term

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/raster"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// halfBlock paints the upper pixel in the foreground and the lower one in
// the background.
const halfBlock = '▀'

// mousePointerID identifies the mouse among touch IDs.
const mousePointerID = -1

// ErrNoScene is returned by Run when no scene is set.
var ErrNoScene = errors.New("term: no scene")

// Scene is what the host shows. view.Host implements it.
type Scene interface {
	Dirty() bool
	Draw(c canvas.Canvas) error
	Dispatch(b touch.Batch) touch.Result
	Tick(dt time.Duration)
}

// Hooks observe the loop. Nil fields are skipped.
type Hooks struct {
	OnFrame func(d time.Duration, err error)
	OnTouch func(b touch.Batch, r touch.Result)
}

// Options configures a Host.
type Options struct {
	// Size is the logical scene size the frame is rendered at.
	Size       geom.Size
	Background paint.Color
	// TPS is the tick rate; 30 when not positive.
	TPS    int
	Fonts  *raster.FontSet
	Logger *slog.Logger
	Hooks  Hooks
}

// Host runs the terminal loop. Everything except Post must be called from
// the goroutine running Run.
type Host struct {
	screen   tcell.Screen
	scene    Scene
	opts     Options
	platform *raster.Platform
	canvas   *raster.Canvas
	logger   *slog.Logger
	tasks    chan func()
	now      func() time.Time

	cols, rows int
	force      bool
	mouseDown  bool
	mouseLast  geom.Point
	lastTick   time.Time
}

// New returns a host showing scene on screen. A nil screen opens the
// controlling terminal when Run starts.
func New(screen tcell.Screen, scene Scene, opts Options) *Host {
	if opts.TPS <= 0 {
		opts.TPS = 30
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Host{
		screen:   screen,
		scene:    scene,
		opts:     opts,
		platform: raster.NewPlatform(opts.Fonts, logger),
		logger:   logger,
		tasks:    make(chan func(), 64),
		now:      time.Now,
		force:    true,
	}
}

// Post queues task to run on the loop goroutine. It blocks only when the
// queue is full.
func (h *Host) Post(task func()) {
	h.tasks <- task
}

// SetScene swaps the shown scene and forces a redraw.
func (h *Host) SetScene(s Scene) {
	h.scene = s
	h.force = true
}

// Scene returns the shown scene.
func (h *Host) Scene() Scene {
	return h.scene
}

// Run shows the scene until q, Esc or Ctrl-C is pressed or ctx is done.
// Neither is reported as an error.
func (h *Host) Run(ctx context.Context) error {
	if h.scene == nil {
		return ErrNoScene
	}
	if err := h.init(); err != nil {
		return err
	}
	defer h.screen.Fini()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(events)
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(h.opts.TPS))
	defer ticker.Stop()
	h.redraw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if h.handle(ev) {
				return nil
			}
		case task := <-h.tasks:
			task()
		case <-ticker.C:
			h.tick()
		}
		h.redraw()
	}
}

func (h *Host) init() error {
	if h.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		h.screen = s
	}
	if err := h.screen.Init(); err != nil {
		return err
	}
	h.screen.SetStyle(tcell.StyleDefault)
	h.screen.EnableMouse()
	h.screen.HideCursor()
	h.cols, h.rows = h.screen.Size()

	c, err := h.platform.NewCanvas(h.opts.Size, 1, false)
	if err != nil {
		return err
	}
	h.canvas = c
	h.logger.Debug("terminal host started", "cols", h.cols, "rows", h.rows, "size", h.opts.Size)
	return nil
}

// handle processes one event and reports whether the loop should stop.
func (h *Host) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		h.screen.Sync()
		h.cols, h.rows = ev.Size()
		h.force = true
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return true
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		if b, ok := h.mouse(ev.Buttons()&tcell.Button1 != 0, h.toScene(x, y)); ok {
			h.dispatch(b)
		}
	}
	return false
}

// mouse turns the left button state into a batch.
func (h *Host) mouse(down bool, p geom.Point) (touch.Batch, bool) {
	ptr := []touch.Pointer{{ID: mousePointerID, Position: p}}
	defer func() { h.mouseLast = p }()
	switch {
	case down && !h.mouseDown:
		h.mouseDown = true
		return touch.Batch{Phase: touch.Began, Pointers: ptr}, true
	case down && p != h.mouseLast:
		return touch.Batch{Phase: touch.Moved, Pointers: ptr}, true
	case !down && h.mouseDown:
		h.mouseDown = false
		return touch.Batch{Phase: touch.Ended, Pointers: ptr}, true
	}
	return touch.Batch{}, false
}

func (h *Host) dispatch(b touch.Batch) {
	res := h.scene.Dispatch(b)
	if h.opts.Hooks.OnTouch != nil {
		h.opts.Hooks.OnTouch(b, res)
	}
}

// toScene maps a cell to the scene point under its center.
func (h *Host) toScene(col, row int) geom.Point {
	if h.cols <= 0 || h.rows <= 0 {
		return geom.Point{}
	}
	return geom.Pt(
		(float64(col)+0.5)/float64(h.cols)*h.opts.Size.Width,
		(float64(row)+0.5)/float64(h.rows)*h.opts.Size.Height,
	)
}

func (h *Host) tick() {
	now := h.now()
	if !h.lastTick.IsZero() {
		h.scene.Tick(now.Sub(h.lastTick))
	}
	h.lastTick = now
}

// redraw renders and shows a frame when the scene is dirty or a redraw was
// forced.
func (h *Host) redraw() {
	if h.canvas == nil || (!h.force && !h.scene.Dirty()) {
		return
	}
	h.force = false
	start := h.now()

	h.canvas.Clear(h.opts.Background)
	h.canvas.Reset()
	err := h.scene.Draw(h.canvas)
	if err != nil {
		h.logger.Warn("frame error", "error", err)
	}
	if frame, ferr := h.canvas.RGBA(); ferr != nil {
		h.logger.Error("frame readback failed", "error", ferr)
		err = errors.Join(err, ferr)
	} else {
		h.blit(frame)
	}

	if h.opts.Hooks.OnFrame != nil {
		h.opts.Hooks.OnFrame(h.now().Sub(start), err)
	}
}

// blit scales src to the screen and draws it as half blocks.
func (h *Host) blit(src *image.RGBA) {
	if h.cols <= 0 || h.rows <= 0 {
		return
	}
	dst := downsample(src, h.cols, h.rows)
	for y := 0; y < h.rows; y++ {
		for x := 0; x < h.cols; x++ {
			top, bottom := dst.RGBAAt(x, 2*y), dst.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			h.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
	h.screen.Show()
}

// downsample scales src to cols by rows*2 pixels, two per cell.
func downsample(src *image.RGBA, cols, rows int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
