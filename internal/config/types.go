// Package config loads NControl configuration: a Lua file that assigns
// ncontrol.config = {...}. The same file usually defines the scene.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/paint"
)

// Backend selects where the scene is shown.
type Backend int

const (
	// BackendWindow opens a desktop window through ebiten.
	BackendWindow Backend = iota
	// BackendTerminal renders into the terminal with tcell.
	BackendTerminal
	// BackendPNG renders one frame to a PNG file and exits.
	BackendPNG
)

// String returns the string representation of a Backend.
func (b Backend) String() string {
	switch b {
	case BackendWindow:
		return "window"
	case BackendTerminal:
		return "terminal"
	case BackendPNG:
		return "png"
	default:
		return "unknown"
	}
}

// ParseBackend parses "window", "terminal" or "png".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "window", "":
		return BackendWindow, nil
	case "terminal", "term", "tty":
		return BackendTerminal, nil
	case "png", "image":
		return BackendPNG, nil
	default:
		return BackendWindow, fmt.Errorf("unknown backend: %s", s)
	}
}

// FontConfig names a font file registered under a family and style.
type FontConfig struct {
	Family string
	Style  canvas.FontStyle
	Path   string
}

// Config represents the complete NControl configuration.
type Config struct {
	// Width and Height are the logical scene size.
	Width  int
	Height int
	Title  string
	// Background fills the window behind every view.
	Background paint.Color
	// Transparent asks for a transparent window; needs a compositor on X11.
	Transparent bool
	// TPS is the input and update rate; 0 keeps the backend default.
	TPS     int
	Backend Backend
	// MultiTouch routes every pointer instead of the primary one only.
	MultiTouch bool
	// Scene is the Lua scene file. Empty means the config file itself.
	Scene string
	// Images maps names used by nc_draw_image to files.
	Images map[string]string
	Fonts  []FontConfig
	// LogLevel is one of debug, info, warn or error.
	LogLevel string
	// Watch reloads the scene when its file changes.
	Watch bool
	// Output is the PNG path for BackendPNG.
	Output string
	// Dir is the directory relative paths resolve against: the config
	// file's directory, or empty for the working directory.
	Dir string
}

// Resolve makes p absolute against Dir. Absolute and empty paths are
// returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || c.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ImagePaths returns Images with every path resolved.
func (c *Config) ImagePaths() map[string]string {
	out := make(map[string]string, len(c.Images))
	for name, p := range c.Images {
		out[name] = c.Resolve(p)
	}
	return out
}
