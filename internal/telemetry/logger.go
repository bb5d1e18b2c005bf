package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ctxKey is the type for context keys carried through request/event handling.
type ctxKey string

const (
	correlationIDKey ctxKey = "correlation_id"
	matchIDKey       ctxKey = "match_id"
)

// WithCorrelationID attaches a correlation id to ctx; it is emitted on every
// log line produced from a logger built with L().With(ctx) -derived attrs
// via FromContext.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithMatchID attaches a match id to ctx for log correlation.
func WithMatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, matchIDKey, id)
}

// FromContext returns a logger annotated with any correlation/match id
// found in ctx. Safe to call with a context carrying neither.
func FromContext(ctx context.Context) *slog.Logger {
	l := L()
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		l = l.With("correlation_id", v)
	}
	if v, ok := ctx.Value(matchIDKey).(string); ok && v != "" {
		l = l.With("match_id", v)
	}
	return l
}

var logger *slog.Logger

// Format selects the handler used by Init. "auto" picks pretty output for a
// TTY and JSON otherwise, mirroring how the teacher's CLI tools behave
// differently under a terminal versus piped into a log collector.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// Init installs the process-wide logger. Call once at startup; handlers
// exist for the lifetime of the process, per the "no mutable configuration
// after start" rule for process-wide singletons.
func Init(level slog.Level) {
	InitWithFormat(level, FormatAuto)
}

func InitWithFormat(level slog.Level, format Format) {
	resolved := format
	if resolved == FormatAuto || resolved == "" {
		if isatty.IsTerminal(os.Stderr.Fd()) {
			resolved = FormatPretty
		} else {
			resolved = FormatJSON
		}
	}

	var h slog.Handler
	if resolved == FormatJSON {
		h = &jsonHandler{w: os.Stderr, level: level}
	} else {
		h = &prettyHandler{w: os.Stderr, level: level}
	}

	logger = slog.New(h)
	slog.SetDefault(logger)
}

func L() *slog.Logger {
	if logger == nil {
		Init(slog.LevelInfo)
	}
	return logger
}

func Infof(format string, args ...any)  { L().Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug(fmt.Sprintf(format, args...)) }
func Plainf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

// ParseLogLevel converts a string level name to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string format name, defaulting to auto.
func ParseFormat(format string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatJSON:
		return FormatJSON
	case FormatPretty:
		return FormatPretty
	default:
		return FormatAuto
	}
}

// prettyHandler outputs: [2026-02-21 5:10:39 PM MST] message key=value ...
type prettyHandler struct {
	w     io.Writer
	level slog.Level
	mu    sync.Mutex
	attrs []slog.Attr
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02 3:04:05 PM MST")

	var prefix string
	switch {
	case r.Level >= slog.LevelError:
		prefix = "ERROR: "
	case r.Level >= slog.LevelWarn:
		prefix = "WARN: "
	}

	var sb strings.Builder
	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Any())
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "[%s] %s%s%s\n", ts, prefix, r.Message, sb.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &prettyHandler{w: h.w, level: h.level, attrs: next}
}

func (h *prettyHandler) WithGroup(_ string) slog.Handler { return h }

// jsonHandler emits one compact JSON object per line: {"timestamp","level","message",...}.
type jsonHandler struct {
	w     io.Writer
	level slog.Level
	mu    sync.Mutex
	attrs []slog.Attr
}

func (h *jsonHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *jsonHandler) Handle(_ context.Context, r slog.Record) error {
	line := make(map[string]any, 4+len(h.attrs)+r.NumAttrs())
	line["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)
	line["level"] = r.Level.String()
	line["message"] = r.Message
	for _, a := range h.attrs {
		line[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		line[a.Key] = a.Value.Any()
		return true
	})

	data, err := json.Marshal(line)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintln(h.w, string(data))
	return err
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &jsonHandler{w: h.w, level: h.level, attrs: next}
}

func (h *jsonHandler) WithGroup(_ string) slog.Handler { return h }
