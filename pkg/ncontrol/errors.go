package ncontrol

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Sentinel errors returned by App.
var (
	ErrAlreadyRunning    = errors.New("ncontrol: already running")
	ErrNotRunning        = errors.New("ncontrol: not running")
	ErrBackendNotEnabled = errors.New("ncontrol: backend not available in this build")
	ErrReloadSuspended   = errors.New("ncontrol: reloads suspended after repeated failures")
)

// ErrorCategory classifies errors for tracking.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	// CategoryConfig is for configuration parsing and validation errors.
	CategoryConfig
	// CategoryScript is for Lua scene errors.
	CategoryScript
	// CategoryRender is for draw errors reported by views or canvases.
	CategoryRender
	// CategoryInput is for touch dispatch problems.
	CategoryInput
	// CategoryIO is for file, font and image errors.
	CategoryIO

	numCategories
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryScript:
		return "script"
	case CategoryRender:
		return "render"
	case CategoryInput:
		return "input"
	case CategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// ErrorSeverity indicates how much of the app an error affects.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	// SeverityError affects one frame or one reload; the app keeps running.
	SeverityError
	// SeverityCritical stops the app.
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with a category and severity.
type CategorizedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	// Context holds extra key-value details, such as a file or view ID.
	Context map[string]string
}

// NewCategorizedError wraps err.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
	}
}

func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// WithContext adds a key-value pair and returns e.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// AlertCondition fires when Threshold matching errors occur within Window.
type AlertCondition struct {
	// Category restricts matching; CategoryUnknown matches all.
	Category    ErrorCategory
	MinSeverity ErrorSeverity
	Threshold   int
	Window      time.Duration
}

func (c AlertCondition) matches(e *CategorizedError) bool {
	return (c.Category == CategoryUnknown || e.Category == c.Category) && e.Severity >= c.MinSeverity
}

// AlertHandler receives the condition that fired and the matching errors.
// It runs on its own goroutine.
type AlertHandler func(cond AlertCondition, recent []CategorizedError)

// ErrorTracker keeps a bounded window of recent errors, lifetime counts
// per category, and fires alerts. It is safe for concurrent use.
type ErrorTracker struct {
	mu         sync.Mutex
	recent     []CategorizedError
	max        int
	retention  time.Duration
	cooldown   time.Duration
	conditions []AlertCondition
	lastAlert  map[int]time.Time
	handler    AlertHandler
	now        func() time.Time

	totals [numCategories]atomic.Int64
}

// ErrorTrackerConfig configures an ErrorTracker. Zero fields get defaults.
type ErrorTrackerConfig struct {
	// MaxErrors bounds the retained errors (1000).
	MaxErrors int
	// Retention drops older errors (one hour).
	Retention time.Duration
	// AlertCooldown is the minimum time between alerts for one condition
	// (one minute).
	AlertCooldown time.Duration
}

// NewErrorTracker returns an empty tracker.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 1000
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = time.Minute
	}
	return &ErrorTracker{
		max:       cfg.MaxErrors,
		retention: cfg.Retention,
		cooldown:  cfg.AlertCooldown,
		lastAlert: make(map[int]time.Time),
		now:       time.Now,
	}
}

// AddCondition registers an alert condition.
func (t *ErrorTracker) AddCondition(cond AlertCondition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conditions = append(t.conditions, cond)
}

// SetAlertHandler sets the function alerts are delivered to.
func (t *ErrorTracker) SetAlertHandler(h AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Record adds e and evaluates the alert conditions.
func (t *ErrorTracker) Record(e *CategorizedError) {
	if e == nil {
		return
	}
	if e.Category >= 0 && e.Category < numCategories {
		t.totals[e.Category].Add(1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.recent = append(t.recent, *e)
	if len(t.recent) > t.max {
		t.recent = t.recent[len(t.recent)-t.max:]
	}
	t.prune(now)

	if t.handler == nil {
		return
	}
	for i, cond := range t.conditions {
		if last, ok := t.lastAlert[i]; ok && now.Sub(last) < t.cooldown {
			continue
		}
		matching := t.matching(cond, now)
		if len(matching) < cond.Threshold || len(matching) == 0 {
			continue
		}
		t.lastAlert[i] = now
		go func(h AlertHandler, cond AlertCondition) {
			defer func() { _ = recover() }()
			h(cond, matching)
		}(t.handler, cond)
	}
}

// prune drops errors past the retention time. t.mu must be held.
func (t *ErrorTracker) prune(now time.Time) {
	cutoff := now.Add(-t.retention)
	i := 0
	for i < len(t.recent) && t.recent[i].Timestamp.Before(cutoff) {
		i++
	}
	t.recent = t.recent[i:]
}

func (t *ErrorTracker) matching(cond AlertCondition, now time.Time) []CategorizedError {
	cutoff := now.Add(-cond.Window)
	var out []CategorizedError
	for i := range t.recent {
		e := &t.recent[i]
		if e.Timestamp.Before(cutoff) || !cond.matches(e) {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// Total returns the lifetime count for a category.
func (t *ErrorTracker) Total(c ErrorCategory) int64 {
	if c < 0 || c >= numCategories {
		return 0
	}
	return t.totals[c].Load()
}

// Recent returns up to limit of the newest retained errors, oldest first.
func (t *ErrorTracker) Recent(limit int) []CategorizedError {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 || len(t.recent) == 0 {
		return nil
	}
	start := max(len(t.recent)-limit, 0)
	return append([]CategorizedError(nil), t.recent[start:]...)
}

// Rate returns retained errors per second over window.
func (t *ErrorTracker) Rate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, e := range t.recent {
		if !e.Timestamp.Before(cutoff) {
			n++
		}
	}
	return float64(n) / window.Seconds()
}

// Clear drops the retained errors and alert history. Totals are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = nil
	t.lastAlert = make(map[int]time.Time)
}
