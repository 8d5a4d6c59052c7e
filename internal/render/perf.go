package render

import (
	"sync/atomic"
	"time"
)

// FrameMetrics tracks redraw timing. Only frames that actually redraw are
// recorded, so FPS reads as redraws per second rather than ticks.
// It is safe for concurrent use.
type FrameMetrics struct {
	frames       atomic.Int64
	periodFrames atomic.Int64
	lastFPS      atomic.Int64 // FPS * 1000
	lastFrame    atomic.Int64 // nanoseconds
	maxFrame     atomic.Int64 // nanoseconds
	total        atomic.Int64 // nanoseconds
	periodStart  atomic.Int64 // unix nanoseconds
	period       time.Duration
	now          func() time.Time
}

// NewFrameMetrics returns metrics that recompute FPS every period
// (one second when period is not positive).
func NewFrameMetrics(period time.Duration) *FrameMetrics {
	if period <= 0 {
		period = time.Second
	}
	fm := &FrameMetrics{period: period, now: time.Now}
	fm.periodStart.Store(fm.now().UnixNano())
	return fm
}

// RecordFrame records one redraw of duration d.
func (fm *FrameMetrics) RecordFrame(d time.Duration) {
	n := d.Nanoseconds()
	fm.frames.Add(1)
	fm.periodFrames.Add(1)
	fm.lastFrame.Store(n)
	fm.total.Add(n)
	for {
		cur := fm.maxFrame.Load()
		if n <= cur || fm.maxFrame.CompareAndSwap(cur, n) {
			break
		}
	}

	now := fm.now().UnixNano()
	start := fm.periodStart.Load()
	elapsed := time.Duration(now - start)
	if elapsed >= fm.period && fm.periodStart.CompareAndSwap(start, now) {
		frames := fm.periodFrames.Swap(0)
		fm.lastFPS.Store(int64(float64(frames) / elapsed.Seconds() * 1000))
	}
}

// Frames returns the number of recorded redraws.
func (fm *FrameMetrics) Frames() int64 {
	return fm.frames.Load()
}

// FPS returns redraws per second over the last complete period.
func (fm *FrameMetrics) FPS() float64 {
	return float64(fm.lastFPS.Load()) / 1000
}

func (fm *FrameMetrics) LastFrameTime() time.Duration {
	return time.Duration(fm.lastFrame.Load())
}

func (fm *FrameMetrics) MaxFrameTime() time.Duration {
	return time.Duration(fm.maxFrame.Load())
}

// AverageFrameTime returns the mean redraw duration.
func (fm *FrameMetrics) AverageFrameTime() time.Duration {
	count := fm.frames.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(fm.total.Load() / count)
}
