//go:build !noebiten

package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/touch"
)

type fakeScene struct {
	dirty   bool
	draws   int
	drawErr error
	batches []touch.Batch
	ticks   []time.Duration
}

func (s *fakeScene) Dirty() bool { return s.dirty }

func (s *fakeScene) Draw(canvas.Canvas) error {
	s.draws++
	s.dirty = false
	return s.drawErr
}

func (s *fakeScene) Dispatch(b touch.Batch) touch.Result {
	s.batches = append(s.batches, b)
	return touch.Result{Consumed: true}
}

func (s *fakeScene) Tick(dt time.Duration) { s.ticks = append(s.ticks, dt) }

type fixedBatches []touch.Batch

func (f fixedBatches) Collect() []touch.Batch { return f }

func newTestGame(scene Scene) *Game {
	g := NewGame(DefaultConfig(), scene, NewCanvas(&fakeText{}, nil), nil)
	g.input = fixedBatches(nil)
	return g
}

func TestGameRedrawsOnlyWhenDirty(t *testing.T) {
	scene := &fakeScene{}
	g := newTestGame(scene)
	screen := ebiten.NewImage(10, 10)

	g.Draw(screen) // first frame is forced
	g.Draw(screen)
	if scene.draws != 1 {
		t.Fatalf("draws = %d, want 1", scene.draws)
	}
	scene.dirty = true
	g.Draw(screen)
	if scene.draws != 2 {
		t.Errorf("draws after invalidate = %d, want 2", scene.draws)
	}
	if g.Metrics().Frames() != 2 {
		t.Errorf("recorded frames = %d, want 2", g.Metrics().Frames())
	}
}

func TestGameLayoutChangeForcesRedraw(t *testing.T) {
	scene := &fakeScene{}
	g := newTestGame(scene)
	screen := ebiten.NewImage(10, 10)
	g.Layout(100, 100)
	g.Draw(screen)
	g.Layout(100, 100)
	g.Draw(screen)
	g.Layout(200, 100)
	g.Draw(screen)
	if scene.draws != 2 {
		t.Errorf("draws = %d, want 2", scene.draws)
	}
}

func TestGameDrawErrorHandled(t *testing.T) {
	failure := errors.New("boom")
	scene := &fakeScene{drawErr: failure}
	g := newTestGame(scene)
	var handled, observed error
	g.SetErrorHandler(func(err error) { handled = err })
	g.SetHooks(Hooks{OnFrame: func(_ time.Duration, err error) { observed = err }})
	g.Draw(ebiten.NewImage(10, 10))
	if handled != failure || observed != failure {
		t.Errorf("handled = %v, observed = %v, want %v", handled, observed, failure)
	}
}

func TestGameUpdateDispatchesAndTicks(t *testing.T) {
	scene := &fakeScene{}
	g := newTestGame(scene)
	began := touch.Batch{Phase: touch.Began, Pointers: []touch.Pointer{{ID: 1}}}
	g.input = fixedBatches{began}
	var touches int
	g.SetHooks(Hooks{OnTouch: func(touch.Batch, touch.Result) { touches++ }})

	clock := time.Unix(100, 0)
	g.now = func() time.Time { return clock }
	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(16 * time.Millisecond)
	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	if len(scene.batches) != 2 || touches != 2 {
		t.Errorf("dispatched %d, observed %d, want 2", len(scene.batches), touches)
	}
	if len(scene.ticks) != 1 || scene.ticks[0] != 16*time.Millisecond {
		t.Errorf("ticks = %v, want [16ms]", scene.ticks)
	}
}

func TestGamePostRunsOnUpdate(t *testing.T) {
	g := newTestGame(&fakeScene{})
	done := make(chan struct{})
	go g.Post(func() { close(done) })
	for {
		if err := g.Update(); err != nil {
			t.Fatal(err)
		}
		select {
		case <-done:
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func TestGameContextCancel(t *testing.T) {
	g := newTestGame(&fakeScene{})
	ctx, cancel := context.WithCancel(context.Background())
	g.SetContext(ctx)
	if err := g.Update(); err != nil {
		t.Fatalf("Update() = %v before cancel", err)
	}
	cancel()
	if err := g.Update(); !errors.Is(err, ErrGameTerminated) {
		t.Errorf("Update() = %v, want ErrGameTerminated", err)
	}
}

func TestGameSetSceneForcesRedraw(t *testing.T) {
	g := newTestGame(&fakeScene{})
	screen := ebiten.NewImage(10, 10)
	g.Draw(screen)
	next := &fakeScene{}
	g.SetScene(next)
	g.Draw(screen)
	if next.draws != 1 {
		t.Errorf("new scene draws = %d, want 1", next.draws)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"negative height", func(c *Config) { c.Height = -1 }, true},
		{"negative tps", func(c *Config) { c.TPS = -5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
