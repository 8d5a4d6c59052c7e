package profiling

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		config Config
		want   bool
	}{
		{Config{}, false},
		{Config{CPUProfile: "cpu.prof"}, true},
		{Config{MemProfile: "mem.prof"}, true},
	}
	for _, tt := range tests {
		if got := tt.config.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.config, got, tt.want)
		}
	}
}

func TestProfilerStartStop(t *testing.T) {
	dir := t.TempDir()
	config := Config{
		CPUProfile: filepath.Join(dir, "cpu.prof"),
		MemProfile: filepath.Join(dir, "mem.prof"),
	}
	p := New(config, nil)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := p.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	for _, path := range []string{config.CPUProfile, config.MemProfile} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("profile %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("profile %s is empty", path)
		}
	}
}

func TestProfilerStopWithoutStart(t *testing.T) {
	if err := New(Config{}, nil).Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestProfilerDisabled(t *testing.T) {
	p := New(Config{}, nil)
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestProfilerBadPaths(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir")

	p := New(Config{CPUProfile: filepath.Join(missing, "cpu.prof")}, nil)
	if err := p.Start(); err == nil {
		t.Error("Start() with unwritable CPU path succeeded")
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}

	p = New(Config{MemProfile: filepath.Join(missing, "mem.prof")}, nil)
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Stop(); err == nil {
		t.Error("Stop() with unwritable memory path succeeded")
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestProfilerConcurrentAccess(t *testing.T) {
	p := New(Config{}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Start()
			_ = p.IsRunning()
			_ = p.Stop()
		}()
	}
	wg.Wait()
}

func TestReadMemStats(t *testing.T) {
	s := ReadMemStats()
	if s.HeapAlloc == 0 || s.Sys == 0 {
		t.Errorf("ReadMemStats() = %+v, want non-zero heap and sys", s)
	}
	if s.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want at least 1", s.Goroutines)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
