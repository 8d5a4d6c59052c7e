package term

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// splitScene paints its left half red and its right half blue.
type splitScene struct {
	size    geom.Size
	dirty   bool
	draws   int
	batches []touch.Batch
	ticks   []time.Duration
	drawErr error
}

func (s *splitScene) Dirty() bool { return s.dirty }

func (s *splitScene) Draw(c canvas.Canvas) error {
	s.draws++
	s.dirty = false
	half := s.size.Width / 2
	if err := c.DrawRectangle(geom.R(0, 0, half, s.size.Height), nil, paint.Solid(paint.RGB(255, 0, 0))); err != nil {
		return err
	}
	if err := c.DrawRectangle(geom.R(half, 0, half, s.size.Height), nil, paint.Solid(paint.RGB(0, 0, 255))); err != nil {
		return err
	}
	return s.drawErr
}

func (s *splitScene) Dispatch(b touch.Batch) touch.Result {
	s.batches = append(s.batches, b)
	return touch.Result{Consumed: true}
}

func (s *splitScene) Tick(dt time.Duration) { s.ticks = append(s.ticks, dt) }

func newTestHost(t *testing.T, opts Options) (*Host, *splitScene, tcell.SimulationScreen) {
	t.Helper()
	if opts.Size.IsEmpty() {
		opts.Size = geom.Sz(40, 20)
	}
	screen := tcell.NewSimulationScreen("UTF-8")
	scene := &splitScene{size: opts.Size}
	h := New(screen, scene, opts)
	if err := h.init(); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(4, 2)
	h.handle(tcell.NewEventResize(4, 2))
	return h, scene, screen
}

func TestMouseBecomesTouches(t *testing.T) {
	h, scene, _ := newTestHost(t, Options{})

	events := []*tcell.EventMouse{
		tcell.NewEventMouse(0, 0, tcell.ButtonNone, tcell.ModNone), // hover
		tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone), // no movement
		tcell.NewEventMouse(1, 0, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(1, 1, tcell.ButtonNone, tcell.ModNone),
		tcell.NewEventMouse(2, 1, tcell.ButtonNone, tcell.ModNone), // hover
	}
	for _, ev := range events {
		if h.handle(ev) {
			t.Fatal("handle() asked to quit on a mouse event")
		}
	}

	want := []struct {
		phase touch.Phase
		at    geom.Point
	}{
		{touch.Began, geom.Pt(5, 5)},
		{touch.Moved, geom.Pt(15, 5)},
		{touch.Ended, geom.Pt(15, 15)},
	}
	if len(scene.batches) != len(want) {
		t.Fatalf("got %d batches, want %d: %+v", len(scene.batches), len(want), scene.batches)
	}
	for i, w := range want {
		b := scene.batches[i]
		if b.Phase != w.phase {
			t.Errorf("batch %d phase = %v, want %v", i, b.Phase, w.phase)
		}
		if len(b.Pointers) != 1 || b.Pointers[0].Position != w.at || b.Pointers[0].ID != mousePointerID {
			t.Errorf("batch %d pointers = %+v, want one mouse pointer at %v", i, b.Pointers, w.at)
		}
	}
}

func TestQuitKeys(t *testing.T) {
	h, _, _ := newTestHost(t, Options{})
	tests := []struct {
		name string
		ev   *tcell.EventKey
		quit bool
	}{
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true},
		{"Q", tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModNone), true},
		{"Esc", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true},
		{"Ctrl-C", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true},
		{"x", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false},
		{"Enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), false},
	}
	for _, tt := range tests {
		if got := h.handle(tt.ev); got != tt.quit {
			t.Errorf("handle(%s) = %v, want %v", tt.name, got, tt.quit)
		}
	}
}

func TestRedrawOnlyWhenNeeded(t *testing.T) {
	var frames int
	h, scene, screen := newTestHost(t, Options{Hooks: Hooks{
		OnFrame: func(time.Duration, error) { frames++ },
	}})

	h.redraw() // forced by the first frame and the resize
	h.redraw()
	if scene.draws != 1 || frames != 1 {
		t.Errorf("draws, frames = %d, %d, want 1, 1", scene.draws, frames)
	}

	scene.dirty = true
	h.redraw()
	if scene.draws != 2 {
		t.Errorf("draws after invalidation = %d, want 2", scene.draws)
	}

	h.handle(tcell.NewEventResize(4, 2))
	h.redraw()
	if scene.draws != 3 {
		t.Errorf("draws after resize = %d, want 3", scene.draws)
	}

	cells, w, hgt := screen.GetContents()
	if w != 4 || hgt != 2 {
		t.Fatalf("screen = %dx%d, want 4x2", w, hgt)
	}
	for i, c := range cells {
		if len(c.Runes) != 1 || c.Runes[0] != halfBlock {
			t.Errorf("cell %d runes = %q, want half block", i, c.Runes)
		}
	}
}

func TestFrameErrorsAreReported(t *testing.T) {
	var got error
	h, scene, _ := newTestHost(t, Options{Hooks: Hooks{
		OnFrame: func(_ time.Duration, err error) { got = err },
	}})
	scene.drawErr = errors.New("boom")
	h.redraw()
	if !errors.Is(got, scene.drawErr) {
		t.Errorf("OnFrame error = %v, want %v", got, scene.drawErr)
	}
}

func TestTick(t *testing.T) {
	h, scene, _ := newTestHost(t, Options{})
	now := time.Unix(100, 0)
	h.now = func() time.Time { return now }

	h.tick()
	now = now.Add(250 * time.Millisecond)
	h.tick()

	if len(scene.ticks) != 1 || scene.ticks[0] != 250*time.Millisecond {
		t.Errorf("ticks = %v, want [250ms]", scene.ticks)
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 20 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.SetRGBA(x, y, c)
		}
	}
	dst := downsample(src, 4, 2)
	if b := dst.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", b)
	}
	if c := dst.RGBAAt(0, 0); c.R < 200 || c.B > 50 {
		t.Errorf("left pixel = %v, want red", c)
	}
	if c := dst.RGBAAt(3, 3); c.B < 200 || c.R > 50 {
		t.Errorf("right pixel = %v, want blue", c)
	}
}

func TestRunStopsOnQuitKey(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	scene := &splitScene{size: geom.Sz(40, 20)}
	h := New(screen, scene, Options{Size: scene.size, TPS: 100})
	h.Post(func() { screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone) })

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after q")
	}
	if scene.draws == 0 {
		t.Error("Run() never drew the scene")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	scene := &splitScene{size: geom.Sz(40, 20)}
	h := New(screen, scene, Options{Size: scene.size})

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	h.Post(func() {
		ran = true
		cancel()
	})
	if err := h.Run(ctx); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if !ran {
		t.Error("posted task did not run")
	}
}

func TestRunWithoutScene(t *testing.T) {
	h := New(tcell.NewSimulationScreen("UTF-8"), nil, Options{Size: geom.Sz(10, 10)})
	if err := h.Run(context.Background()); !errors.Is(err, ErrNoScene) {
		t.Errorf("Run() error = %v, want ErrNoScene", err)
	}
}
