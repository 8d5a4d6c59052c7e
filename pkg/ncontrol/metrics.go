package ncontrol

import (
	"expvar"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts what the app does. Values can be published under
// /debug/vars with RegisterExpvar. It is safe for concurrent use.
type Metrics struct {
	frames          atomic.Int64
	drawErrors      atomic.Int64
	touchBatches    atomic.Int64
	touchesConsumed atomic.Int64
	reloads         atomic.Int64
	reloadErrors    atomic.Int64

	drawNs    atomic.Int64
	maxDrawNs atomic.Int64

	registerOnce sync.Once
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFrame records one redraw.
func (m *Metrics) RecordFrame(d time.Duration, err error) {
	m.frames.Add(1)
	if err != nil {
		m.drawErrors.Add(1)
	}
	n := d.Nanoseconds()
	m.drawNs.Add(n)
	for {
		cur := m.maxDrawNs.Load()
		if n <= cur || m.maxDrawNs.CompareAndSwap(cur, n) {
			return
		}
	}
}

// RecordTouch records one dispatched batch.
func (m *Metrics) RecordTouch(consumed bool) {
	m.touchBatches.Add(1)
	if consumed {
		m.touchesConsumed.Add(1)
	}
}

// RecordReload records a scene reload attempt.
func (m *Metrics) RecordReload(err error) {
	m.reloads.Add(1)
	if err != nil {
		m.reloadErrors.Add(1)
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Frames          int64
	DrawErrors      int64
	TouchBatches    int64
	TouchesConsumed int64
	Reloads         int64
	ReloadErrors    int64
	DrawLatencyAvg  time.Duration
	DrawLatencyMax  time.Duration
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Frames:          m.frames.Load(),
		DrawErrors:      m.drawErrors.Load(),
		TouchBatches:    m.touchBatches.Load(),
		TouchesConsumed: m.touchesConsumed.Load(),
		Reloads:         m.reloads.Load(),
		ReloadErrors:    m.reloadErrors.Load(),
		DrawLatencyMax:  time.Duration(m.maxDrawNs.Load()),
	}
	if s.Frames > 0 {
		s.DrawLatencyAvg = time.Duration(m.drawNs.Load() / s.Frames)
	}
	return s
}

// RegisterExpvar publishes the metrics as one expvar map under name.
// expvar names are process-global, so only the first call per Metrics
// publishes, and name must not already be taken.
func (m *Metrics) RegisterExpvar(name string) {
	m.registerOnce.Do(func() {
		expvar.Publish(name, expvar.Func(func() any {
			s := m.Snapshot()
			return map[string]any{
				"frames_total":           s.Frames,
				"draw_errors_total":      s.DrawErrors,
				"touch_batches_total":    s.TouchBatches,
				"touches_consumed_total": s.TouchesConsumed,
				"reloads_total":          s.Reloads,
				"reload_errors_total":    s.ReloadErrors,
				"draw_latency_avg_ms":    float64(s.DrawLatencyAvg) / 1e6,
				"draw_latency_max_ms":    float64(s.DrawLatencyMax) / 1e6,
			}
		}))
	})
}
