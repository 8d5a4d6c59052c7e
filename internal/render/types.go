package render

import (
	"fmt"
	"time"

	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// Config holds the window options for the ebiten host.
type Config struct {
	// Width and Height are the logical screen size in pixels.
	Width  int
	Height int
	Title  string
	// Background fills the screen before each redraw.
	Background paint.Color
	// Transparent asks for a transparent window; it needs a compositor on X11.
	Transparent bool
	// TPS is the tick rate. Zero keeps ebiten's default.
	TPS int
	// MultiTouch delivers every touch pointer instead of the primary one.
	MultiTouch bool
	// Resizable lets the user resize the window.
	Resizable bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Width:      480,
		Height:     320,
		Title:      "ncontrol",
		Background: paint.RGB(24, 24, 28),
		TPS:        60,
		MultiTouch: true,
	}
}

// Validate checks if the Config has valid values.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", c.Height)
	}
	if c.TPS < 0 {
		return fmt.Errorf("tps must not be negative, got %d", c.TPS)
	}
	return nil
}

// Hooks observe the game loop. Nil fields are skipped. They run on the UI
// goroutine.
type Hooks struct {
	// OnFrame is called after every redraw with its duration and error.
	OnFrame func(d time.Duration, err error)
	// OnTouch is called after every dispatched batch.
	OnTouch func(b touch.Batch, r touch.Result)
}
