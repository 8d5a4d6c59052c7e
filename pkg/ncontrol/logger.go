package ncontrol

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/opd-ai/ncontrol/internal/config"
)

// Logger receives structured messages. Arguments are alternating keys and
// values, as with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
//
//	opts := ncontrol.DefaultOptions()
//	opts.Logger = ncontrol.NewSlogAdapter(slog.Default())
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger adapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// Slog returns the wrapped logger.
func (s *SlogAdapter) Slog() *slog.Logger {
	return s.logger
}

// DefaultLogger logs text to stderr at Info level.
func DefaultLogger() Logger {
	return LevelLogger(os.Stderr, slog.LevelInfo)
}

// DebugLogger logs text to stderr at Debug level with source locations.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// LevelLogger logs text to w at level. A nil w means stderr.
func LevelLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger returns a Logger that outputs JSON-formatted logs.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards all log messages.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	return config.ParseLevel(s)
}

// toSlog returns a *slog.Logger for the internal packages. Adapters hand
// out their own logger; other implementations are bridged by a handler.
func toSlog(l Logger) *slog.Logger {
	switch l := l.(type) {
	case nil:
		return slog.New(slog.DiscardHandler)
	case *SlogAdapter:
		return l.logger
	case nopLogger:
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(&bridgeHandler{logger: l})
}

// bridgeHandler forwards slog records to a Logger.
type bridgeHandler struct {
	logger Logger
	attrs  []any
	group  string
}

func (h *bridgeHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *bridgeHandler) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, len(h.attrs)+2*r.NumAttrs())
	args = append(args, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, h.key(a.Key), a.Value.Any())
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, args...)
	default:
		h.logger.Debug(r.Message, args...)
	}
	return nil
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]any(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.key(a.Key), a.Value.Any())
	}
	return &next
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *bridgeHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}
