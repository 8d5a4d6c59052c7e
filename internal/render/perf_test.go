package render

import (
	"testing"
	"time"
)

func TestFrameMetrics(t *testing.T) {
	fm := NewFrameMetrics(time.Second)
	clock := time.Unix(0, 0)
	fm.now = func() time.Time { return clock }
	fm.periodStart.Store(clock.UnixNano())

	for i := 0; i < 30; i++ {
		clock = clock.Add(50 * time.Millisecond)
		fm.RecordFrame(time.Duration(i+1) * time.Millisecond)
	}

	if fm.Frames() != 30 {
		t.Errorf("Frames() = %d, want 30", fm.Frames())
	}
	if got := fm.FPS(); got < 19.9 || got > 20.1 {
		t.Errorf("FPS() = %v, want 20", got)
	}
	if got := fm.MaxFrameTime(); got != 30*time.Millisecond {
		t.Errorf("MaxFrameTime() = %v, want 30ms", got)
	}
	if got := fm.LastFrameTime(); got != 30*time.Millisecond {
		t.Errorf("LastFrameTime() = %v, want 30ms", got)
	}
	if got := fm.AverageFrameTime(); got != 15500*time.Microsecond {
		t.Errorf("AverageFrameTime() = %v, want 15.5ms", got)
	}
}

func TestFrameMetricsEmpty(t *testing.T) {
	fm := NewFrameMetrics(0)
	if fm.AverageFrameTime() != 0 || fm.FPS() != 0 {
		t.Error("empty metrics not zero")
	}
}
