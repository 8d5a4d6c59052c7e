// Package profiling wraps runtime/pprof for the -cpuprofile and
// -memprofile flags.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

var (
	ErrRunning    = errors.New("profiler is already running")
	ErrNotRunning = errors.New("profiler is not running")
)

// Config names the profile outputs. Empty paths disable that profile.
type Config struct {
	CPUProfile string
	MemProfile string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUProfile != "" || c.MemProfile != ""
}

// Profiler records a CPU profile between Start and Stop and writes a heap
// profile at Stop. It is safe for concurrent use.
type Profiler struct {
	config  Config
	logger  *slog.Logger
	cpuFile *os.File
	running bool
	mu      sync.Mutex
}

// New returns a stopped profiler. A nil logger discards.
func New(config Config, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Profiler{config: config, logger: logger}
}

// Config returns the profile paths.
func (p *Profiler) Config() Config {
	return p.config
}

// Start begins CPU profiling when a CPU profile is configured.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrRunning
	}
	if p.config.CPUProfile != "" {
		f, err := os.Create(p.config.CPUProfile)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("start CPU profile: %w", err)
		}
		p.cpuFile = f
		p.logger.Info("CPU profiling started", "path", p.config.CPUProfile)
	}
	p.running = true
	return nil
}

// Stop ends CPU profiling and writes the heap profile. Both are attempted
// even when one fails.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}
	p.running = false

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close CPU profile: %w", err))
		}
		p.cpuFile = nil
		p.logger.Info("CPU profile written", "path", p.config.CPUProfile)
	}
	if p.config.MemProfile != "" {
		if err := WriteHeapProfile(p.config.MemProfile); err != nil {
			errs = append(errs, err)
		} else {
			stats := ReadMemStats()
			p.logger.Info("heap profile written", "path", p.config.MemProfile,
				"heap", FormatBytes(stats.HeapAlloc), "goroutines", stats.Goroutines)
		}
	}
	return errors.Join(errs...)
}

// IsRunning reports whether Start succeeded without a matching Stop.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create memory profile: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write memory profile: %w", err)
	}
	return nil
}

// MemStats is the subset of runtime statistics reported after profiling.
type MemStats struct {
	HeapAlloc  uint64
	Sys        uint64
	NumGC      uint32
	Goroutines int
}

// ReadMemStats samples the runtime.
func ReadMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
