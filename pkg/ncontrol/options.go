package ncontrol

import (
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Options override the configuration file and wire in observers. Zero
// values keep what the file says.
type Options struct {
	// Backend is "window", "terminal" or "png".
	Backend string
	Width   int
	Height  int
	Title   string
	TPS     int
	// Output is the PNG path for the png backend.
	Output string
	// Watch turns on scene hot reload even when the file leaves it off.
	Watch bool
	// WatchDebounce collapses bursts of file events; zero means
	// DefaultWatchDebounce.
	WatchDebounce time.Duration

	// LuaCPULimit and LuaMemoryLimit override the script limits.
	LuaCPULimit    uint64
	LuaMemoryLimit uint64
	// LuaStdout receives print output from scripts.
	LuaStdout io.Writer

	// Logger receives log messages. Nil logs at the level the
	// configuration asks for, to stderr.
	Logger Logger
	// Metrics collects counters; nil creates a private set.
	Metrics *Metrics
	// ErrorTracker aggregates runtime errors; nil creates a private one.
	ErrorTracker *ErrorTracker

	// Screen is the terminal used by the terminal backend. Nil opens the
	// controlling terminal.
	Screen tcell.Screen
}

// DefaultOptions returns Options that keep every configured value.
func DefaultOptions() Options {
	return Options{}
}
