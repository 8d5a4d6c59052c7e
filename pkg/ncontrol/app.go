package ncontrol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/config"
	"github.com/opd-ai/ncontrol/internal/raster"
	"github.com/opd-ai/ncontrol/internal/script"
	"github.com/opd-ai/ncontrol/internal/touch"
	"github.com/opd-ai/ncontrol/internal/view"
)

// sceneSource returns the scene script to run.
type sceneSource func() (name string, code []byte, err error)

// App runs a Lua scene on one of the backends. Run blocks; the other
// methods are safe to call from any goroutine.
type App struct {
	cfg     *config.Config
	opts    Options
	source  sceneSource
	watch   []string
	origin  string
	logger  Logger
	log     *slog.Logger
	metrics *Metrics
	tracker *ErrorTracker
	breaker *reloadBreaker

	fonts    *raster.FontSet
	platform *raster.Platform

	mu           sync.Mutex
	running      bool
	startTime    time.Time
	scene        *script.Scene
	host         *view.Host
	post         func(func())
	swap         func(*view.Host)
	lastErr      error
	errorHandler ErrorHandler
	eventHandler EventHandler
}

// New loads the configuration file at path. The scene is the file named by
// its scene key, or the configuration file itself.
func New(path string, opts *Options) (*App, error) {
	cfg, result, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	scene := cfg.Resolve(cfg.Scene)
	a := newApp(cfg, opts, path, func() (string, []byte, error) {
		b, err := os.ReadFile(scene)
		return scene, b, err
	})
	a.watch = []string{scene}
	a.logWarnings(result)
	return a, nil
}

// NewFromFS loads the configuration and scene from fsys. Images and fonts
// are still read from disk.
func NewFromFS(fsys fs.FS, path string, opts *Options) (*App, error) {
	cfg, result, err := config.LoadFromFS(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("load config from FS: %w", err)
	}
	scene := path
	if cfg.Scene != "" {
		scene = cfg.Scene
	}
	a := newApp(cfg, opts, "embedded:"+path, func() (string, []byte, error) {
		b, err := fs.ReadFile(fsys, scene)
		return scene, b, err
	})
	a.logWarnings(result)
	return a, nil
}

// NewFromSource uses code as both configuration and scene. A scene key in
// it is ignored.
func NewFromSource(name string, code []byte, opts *Options) (*App, error) {
	cfg, err := config.ParseReader(name, bytes.NewReader(code))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Scene = ""
	result := cfg.Validate()
	if err := result.Error(); err != nil {
		return nil, err
	}
	a := newApp(cfg, opts, name, func() (string, []byte, error) {
		return name, code, nil
	})
	a.logWarnings(result)
	return a, nil
}

func newApp(cfg *config.Config, opts *Options, origin string, source sceneSource) *App {
	var o Options
	if opts != nil {
		o = *opts
	}
	applyOptions(cfg, o)

	logger := o.Logger
	if logger == nil {
		level, err := config.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = slog.LevelInfo
		}
		logger = LevelLogger(os.Stderr, level)
	}
	metrics := o.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	tracker := o.ErrorTracker
	if tracker == nil {
		tracker = NewErrorTracker(ErrorTrackerConfig{})
	}
	log := toSlog(logger)
	fonts := raster.NewFontSet()
	return &App{
		cfg:      cfg,
		opts:     o,
		source:   source,
		origin:   origin,
		logger:   logger,
		log:      log,
		metrics:  metrics,
		tracker:  tracker,
		breaker:  newReloadBreaker(3, 10*time.Second),
		fonts:    fonts,
		platform: raster.NewPlatform(fonts, log),
	}
}

// applyOptions writes the non-zero overrides into cfg.
func applyOptions(cfg *config.Config, o Options) {
	if o.Backend != "" {
		if b, err := config.ParseBackend(o.Backend); err == nil {
			cfg.Backend = b
		}
	}
	if o.Width > 0 {
		cfg.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Height = o.Height
	}
	if o.Title != "" {
		cfg.Title = o.Title
	}
	if o.TPS > 0 {
		cfg.TPS = o.TPS
	}
	if o.Output != "" {
		cfg.Output = o.Output
	}
	if o.Watch {
		cfg.Watch = true
	}
}

func (a *App) logWarnings(result *config.ValidationResult) {
	if result == nil {
		return
	}
	for _, w := range result.Warnings {
		a.logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Metrics returns the app's counters.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Errors returns the app's error tracker.
func (a *App) Errors() *ErrorTracker {
	return a.tracker
}

// SetErrorHandler registers a callback for runtime errors.
func (a *App) SetErrorHandler(h ErrorHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorHandler = h
}

// SetEventHandler registers a callback for lifecycle events.
func (a *App) SetEventHandler(h EventHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventHandler = h
}

// IsRunning reports whether Run is active.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Status returns a snapshot of the app.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Status{
		Running:   a.running,
		Backend:   a.cfg.Backend.String(),
		StartTime: a.startTime,
		LastError: a.lastErr,
		Source:    a.origin,
		Breaker:   a.breaker.State(),
	}
	if a.host != nil {
		s.Views = len(a.host.Views())
	}
	return s
}

// Run shows the scene on the configured backend until the window is
// closed, the terminal host quits, the PNG is written or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.startTime = time.Now()
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.teardown()
		a.emit(EventStopped, "stopped")
	}()

	if err := assets.RegisterFonts(ctx, a.fontFiles(), a.fonts); err != nil {
		return a.fail(err, CategoryIO)
	}
	scene, host, err := a.build(ctx)
	if err != nil {
		return a.fail(err, CategoryScript)
	}
	a.setScene(scene, host)
	a.emit(EventStarted, "started on "+a.cfg.Backend.String())
	a.logger.Info("scene started", "backend", a.cfg.Backend, "views", len(host.Views()), "source", a.origin)

	switch a.cfg.Backend {
	case config.BackendPNG:
		err = a.writePNG(a.cfg.Output)
	case config.BackendTerminal:
		a.startWatcher(ctx)
		err = a.runTerminal(ctx)
	default:
		a.startWatcher(ctx)
		err = a.runWindow(ctx)
	}
	if err != nil {
		return a.fail(err, CategoryRender)
	}
	return nil
}

func (a *App) fontFiles() []assets.FontFile {
	files := make([]assets.FontFile, len(a.cfg.Fonts))
	for i, f := range a.cfg.Fonts {
		files[i] = assets.FontFile{Family: f.Family, Style: f.Style, Path: a.cfg.Resolve(f.Path)}
	}
	return files
}

// build loads images, runs the scene script and attaches its views to a
// fresh host. Nothing is kept on failure.
func (a *App) build(ctx context.Context) (*script.Scene, *view.Host, error) {
	loader := assets.NewLoader(a.platform, a.cfg.Dir, a.log)
	images, err := loader.LoadImages(ctx, a.cfg.Images)
	if err != nil {
		return nil, nil, err
	}
	name, code, err := a.source()
	if err != nil {
		return nil, nil, fmt.Errorf("read scene: %w", err)
	}

	limits := script.DefaultConfig()
	if a.opts.LuaCPULimit > 0 {
		limits.CPULimit = a.opts.LuaCPULimit
	}
	if a.opts.LuaMemoryLimit > 0 {
		limits.MemoryLimit = a.opts.LuaMemoryLimit
	}
	limits.Stdout = a.opts.LuaStdout

	scene, err := script.NewScene(script.SceneOptions{
		Runtime: limits,
		Size:    a.size(),
		Images:  images,
		Measure: a.platform.MeasureText,
		Logger:  a.log,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := scene.LoadString(name, string(code)); err != nil {
		return nil, nil, errors.Join(err, scene.Close())
	}
	host := view.NewHost(touch.NewRouter(a.cfg.MultiTouch, a.log), a.log)
	scene.Attach(host)
	return scene, host, nil
}

func (a *App) setScene(scene *script.Scene, host *view.Host) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scene, a.host = scene, host
}

// setLoop records how to reach the backend loop. Backends call it before
// their loop starts.
func (a *App) setLoop(post func(func()), swap func(*view.Host)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.post, a.swap = post, swap
}

func (a *App) teardown() {
	a.mu.Lock()
	scene, host := a.scene, a.host
	a.scene, a.host, a.post, a.swap = nil, nil, nil, nil
	a.running = false
	a.mu.Unlock()

	if host != nil {
		host.Close()
	}
	if scene != nil {
		if err := scene.Close(); err != nil {
			a.report(err, CategoryScript, SeverityWarning)
		}
	}
}

// Reload rebuilds the scene from its source on the UI goroutine. The old
// scene keeps running when the new one fails to load.
func (a *App) Reload() error {
	a.mu.Lock()
	post := a.post
	a.mu.Unlock()
	if post == nil {
		return ErrNotRunning
	}
	post(func() { _ = a.reload(context.Background()) })
	return nil
}

// reload must run on the UI goroutine.
func (a *App) reload(ctx context.Context) error {
	err := a.breaker.Execute(func() error {
		scene, host, err := a.build(ctx)
		if err != nil {
			return err
		}
		a.mu.Lock()
		oldScene, oldHost, swap := a.scene, a.host, a.swap
		a.scene, a.host = scene, host
		a.mu.Unlock()

		if swap != nil {
			swap(host)
		}
		if oldHost != nil {
			oldHost.Close()
		}
		if oldScene != nil {
			if err := oldScene.Close(); err != nil {
				a.report(err, CategoryScript, SeverityWarning)
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrReloadSuspended):
		a.logger.Warn("reload skipped", "error", err)
	case err != nil:
		a.metrics.RecordReload(err)
		a.report(fmt.Errorf("reload: %w", err), CategoryScript, SeverityError)
	default:
		a.metrics.RecordReload(nil)
		a.logger.Info("scene reloaded", "source", a.origin)
		a.emit(EventReloaded, "scene reloaded")
	}
	return err
}

func (a *App) startWatcher(ctx context.Context) {
	if !a.cfg.Watch || len(a.watch) == 0 {
		return
	}
	w, err := newFileWatcher(a.watch, a.opts.WatchDebounce)
	if err != nil {
		a.report(fmt.Errorf("watch: %w", err), CategoryIO, SeverityWarning)
		return
	}
	a.logger.Debug("watching scene", "files", a.watch)
	go w.run(ctx, func() {
		_ = a.Reload()
	}, func(err error) {
		a.report(fmt.Errorf("watch: %w", err), CategoryIO, SeverityWarning)
	})
}

// onFrame and onTouch are the backend loop hooks.
func (a *App) onFrame(d time.Duration, err error) {
	a.metrics.RecordFrame(d, err)
	if err != nil {
		a.report(err, CategoryRender, SeverityError)
	}
}

func (a *App) onTouch(_ touch.Batch, r touch.Result) {
	a.metrics.RecordTouch(r.Consumed)
}

// RenderPNG draws one frame of a freshly built scene and encodes it as PNG.
// It does not need Run.
func (a *App) RenderPNG(ctx context.Context, w io.Writer) error {
	if err := assets.RegisterFonts(ctx, a.fontFiles(), a.fonts); err != nil {
		return err
	}
	scene, host, err := a.build(ctx)
	if err != nil {
		return err
	}
	defer func() {
		host.Close()
		_ = scene.Close()
	}()
	return a.encodeFrame(host, w)
}

func (a *App) writePNG(path string) error {
	a.mu.Lock()
	host := a.host
	a.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.encodeFrame(host, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("frame written", "path", path)
	return nil
}

func (a *App) encodeFrame(host *view.Host, w io.Writer) error {
	c, err := a.platform.NewCanvas(a.size(), 1, a.cfg.Transparent)
	if err != nil {
		return err
	}
	defer c.Close()
	if !a.cfg.Transparent {
		c.Clear(a.cfg.Background)
	}
	start := time.Now()
	err = host.Draw(c)
	a.onFrame(time.Since(start), err)
	return c.EncodePNG(w)
}

// fail records a fatal error and returns it.
func (a *App) fail(err error, category ErrorCategory) error {
	a.report(err, category, SeverityCritical)
	return err
}

// report tracks, logs and forwards err.
func (a *App) report(err error, category ErrorCategory, severity ErrorSeverity) {
	a.tracker.Record(NewCategorizedError(err, category, severity))
	if severity >= SeverityError {
		a.logger.Error("error", "category", category, "error", err)
	} else {
		a.logger.Warn("problem", "category", category, "error", err)
	}

	a.mu.Lock()
	a.lastErr = err
	handler := a.errorHandler
	a.mu.Unlock()
	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("error handler panicked", "panic", r, "error", err)
				}
			}()
			handler(err)
		}()
	}
	a.emit(EventError, err.Error())
}

func (a *App) emit(t EventType, msg string) {
	a.mu.Lock()
	handler := a.eventHandler
	a.mu.Unlock()
	if handler == nil {
		return
	}
	ev := Event{Type: t, Timestamp: time.Now(), Message: msg}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("event handler panicked", "panic", r, "event", t)
			}
		}()
		handler(ev)
	}()
}
