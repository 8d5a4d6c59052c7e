package config

import "github.com/opd-ai/ncontrol/internal/paint"

// Default values for configuration options.
const (
	DefaultWidth    = 480
	DefaultHeight   = 320
	DefaultTitle    = "ncontrol"
	DefaultTPS      = 60
	DefaultLogLevel = "info"
	DefaultOutput   = "ncontrol.png"
)

// DefaultBackground is the window fill behind the views.
var DefaultBackground = paint.RGB(24, 24, 28)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Title:      DefaultTitle,
		Background: DefaultBackground,
		TPS:        DefaultTPS,
		Backend:    BackendWindow,
		MultiTouch: true,
		Images:     map[string]string{},
		LogLevel:   DefaultLogLevel,
		Output:     DefaultOutput,
	}
}
