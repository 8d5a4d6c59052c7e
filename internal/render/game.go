// Package render is the ebiten backend: an on-screen canvas.Canvas built on
// ebiten's vector and text packages, its font and image caches, and the
// ebiten.Game that hosts a scene in a window.
package render

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// ErrGameTerminated is returned when the game loop is terminated via context cancellation.
var ErrGameTerminated = errors.New("game terminated")

// ErrorHandler is a function type for handling errors during game updates.
type ErrorHandler func(err error)

// Scene is what the game hosts. view.Host implements it.
type Scene interface {
	// Dirty reports whether the scene needs a redraw.
	Dirty() bool
	Draw(c canvas.Canvas) error
	Dispatch(b touch.Batch) touch.Result
	Tick(dt time.Duration)
}

// batchSource yields the touch batches of one tick.
type batchSource interface {
	Collect() []touch.Batch
}

// Game implements ebiten.Game. It redraws the scene only when the scene is
// dirty; the screen keeps its pixels between frames otherwise.
type Game struct {
	config       Config
	scene        Scene
	canvas       *Canvas
	input        batchSource
	errorHandler ErrorHandler
	hooks        Hooks
	logger       *slog.Logger
	metrics      *FrameMetrics
	ctx          context.Context
	now          func() time.Time

	mu      sync.Mutex
	tasks   []func()
	running bool

	lastTick    time.Time
	forceRedraw bool
	outside     [2]int
}

// NewGame creates a game hosting scene. A nil canvas gets a default one
// and a nil logger discards.
func NewGame(config Config, scene Scene, c *Canvas, logger *slog.Logger) *Game {
	if c == nil {
		c = NewCanvas(nil, nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &Game{
		config:      config,
		scene:       scene,
		canvas:      c,
		input:       NewInputCollector(config.MultiTouch),
		logger:      logger,
		metrics:     NewFrameMetrics(time.Second),
		now:         time.Now,
		forceRedraw: true,
	}
	g.errorHandler = func(err error) {
		g.logger.Warn("frame error", "error", err)
	}
	return g
}

// SetErrorHandler sets a custom error handler for update errors.
// If nil is passed, errors will be silently ignored.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.errorHandler = handler
}

// SetHooks installs loop observers.
func (g *Game) SetHooks(h Hooks) {
	g.hooks = h
}

// SetContext sets a context for the game loop. When the context is cancelled,
// the game loop will terminate gracefully.
func (g *Game) SetContext(ctx context.Context) {
	g.ctx = ctx
}

// SetScene swaps the hosted scene and forces a redraw. Call it on the UI
// goroutine, typically from a task passed to Post.
func (g *Game) SetScene(s Scene) {
	g.scene = s
	g.forceRedraw = true
}

// Scene returns the hosted scene.
func (g *Game) Scene() Scene {
	return g.scene
}

// Canvas returns the frame canvas.
func (g *Game) Canvas() *Canvas {
	return g.canvas
}

// Metrics returns the redraw timing.
func (g *Game) Metrics() *FrameMetrics {
	return g.metrics
}

// Config returns the current configuration.
func (g *Game) Config() Config {
	return g.config
}

// Post queues task to run on the UI goroutine at the start of the next
// tick. It is safe to call from any goroutine and never blocks.
func (g *Game) Post(task func()) {
	g.mu.Lock()
	g.tasks = append(g.tasks, task)
	g.mu.Unlock()
}

func (g *Game) drainTasks() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// Update implements ebiten.Game.Update.
// It is called every tick (typically 60 times per second).
func (g *Game) Update() error {
	if g.ctx != nil {
		select {
		case <-g.ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	g.drainTasks()
	if g.scene == nil {
		return nil
	}

	for _, b := range g.input.Collect() {
		res := g.scene.Dispatch(b)
		if g.hooks.OnTouch != nil {
			g.hooks.OnTouch(b, res)
		}
	}

	now := g.now()
	if !g.lastTick.IsZero() {
		g.scene.Tick(now.Sub(g.lastTick))
	}
	g.lastTick = now
	return nil
}

// Draw implements ebiten.Game.Draw. It leaves the screen untouched unless
// the scene is dirty or a redraw was forced.
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.forceRedraw && (g.scene == nil || !g.scene.Dirty()) {
		return
	}
	g.forceRedraw = false

	start := g.now()
	screen.Fill(g.config.Background)
	g.canvas.Reset(screen)

	var err error
	if g.scene != nil {
		err = g.scene.Draw(g.canvas)
	}
	d := g.now().Sub(start)
	g.metrics.RecordFrame(d)
	if err != nil && g.errorHandler != nil {
		g.errorHandler(err)
	}
	if g.hooks.OnFrame != nil {
		g.hooks.OnFrame(d, err)
	}
}

// Layout implements ebiten.Game.Layout.
// It returns the game's logical screen size. A changed outside size forces
// a redraw since the screen may have been reallocated.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if size := [2]int{outsideWidth, outsideHeight}; size != g.outside {
		g.outside = size
		g.forceRedraw = true
	}
	return g.config.Width, g.config.Height
}

// Run starts the Ebiten game loop.
// This function blocks until the window is closed or the context is
// cancelled; cancellation is not reported as an error.
func (g *Game) Run() error {
	if err := g.config.Validate(); err != nil {
		return err
	}
	ebiten.SetWindowSize(g.config.Width, g.config.Height)
	ebiten.SetWindowTitle(g.config.Title)
	if g.config.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if g.config.TPS > 0 {
		ebiten.SetTPS(g.config.TPS)
	}
	ebiten.SetScreenClearedEveryFrame(false)

	opts := &ebiten.RunGameOptions{ScreenTransparent: g.config.Transparent}
	if warning := CheckTransparencySupport(g.config.Transparent); warning != "" {
		g.logger.Warn(warning)
	}

	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	err := ebiten.RunGameWithOptions(g, opts)

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	if errors.Is(err, ErrGameTerminated) {
		return nil
	}
	return err
}

// IsRunning returns whether the game loop is currently running.
func (g *Game) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
