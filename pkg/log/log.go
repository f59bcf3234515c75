// Package log builds the [slog.Handler] used by xlclean and resolves the
// logger for a context.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"
)

// Format selects the shape of log lines.
type Format string

const (
	// FormatText is colorized, human-oriented output.
	FormatText Format = "text"
	// FormatLogfmt is key=value pairs, one record per line.
	FormatLogfmt Format = "logfmt"
	// FormatJSON is one JSON object per record.
	FormatJSON Format = "json"
)

// shortIDLen is the number of hex digits kept from trace and span IDs.
const shortIDLen = 8

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	// AllFormats lists the accepted --log-format values.
	AllFormats = []string{string(FormatText), string(FormatLogfmt), string(FormatJSON)}
	// AllLevels lists the accepted --log-level values, most severe first.
	AllLevels = []string{"error", "warn", "info", "debug"}
)

var levels = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
}

type handlerFunc func(w io.Writer, level slog.Level) slog.Handler

var handlers = map[Format]handlerFunc{
	FormatText: newCharmHandler,
	FormatLogfmt: func(w io.Writer, level slog.Level) slog.Handler {
		return slog.NewTextHandler(w, stdOptions(level))
	},
	FormatJSON: func(w io.Writer, level slog.Level) slog.Handler {
		return slog.NewJSONHandler(w, stdOptions(level))
	},
}

type contextKey struct{}

// CreateHandlerWithStrings parses flag values and creates the matching
// handler. Both values are checked, so a bad level and a bad format are
// reported together.
func CreateHandlerWithStrings(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level, lerr := GetLevel(logLevel)
	format, ferr := GetFormat(logFormat)

	if err := errors.Join(lerr, ferr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return CreateHandler(w, level, format), nil
}

// CreateHandler creates a handler writing to w. Unknown formats fall back to
// [FormatText].
func CreateHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	newHandler, ok := handlers[format]
	if !ok {
		newHandler = handlers[FormatText]
	}

	return newHandler(w, level)
}

// GetLevel parses a level name, ignoring case and surrounding space.
func GetLevel(level string) (slog.Level, error) {
	if l, ok := levels[normalize(level)]; ok {
		return l, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, level)
}

// GetFormat parses a format name, ignoring case and surrounding space.
func GetFormat(format string) (Format, error) {
	f := Format(normalize(format))
	if _, ok := handlers[f]; ok {
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLogFormat, format)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stdOptions reports source locations only when debugging.
func stdOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	}
}

func newCharmHandler(w io.Writer, level slog.Level) slog.Handler {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		//nolint:gosec // G115: slog levels fit in int32.
		Level:           charmlog.Level(int32(level)),
		Prefix:          "xlclean",
		Formatter:       charmlog.TextFormatter,
		TimeFormat:      time.TimeOnly,
		ReportTimestamp: true,
		ReportCaller:    level <= slog.LevelDebug,
	})
	logger.SetColorProfile(termenv.NewOutput(w).ColorProfile())

	return logger
}

// NewContext returns a copy of ctx carrying logger. [WithContext] prefers it
// over the default logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithContext returns the logger stored by [NewContext], or the default
// logger annotated with [TraceAttrs].
func WithContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}

	attrs := TraceAttrs(ctx)
	if len(attrs) == 0 {
		return slog.Default()
	}

	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}

	return slog.With(args...)
}

// TraceAttrs returns shortened trace and span IDs for the span in ctx, or nil
// when ctx has no valid span.
func TraceAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}

	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()[:shortIDLen]),
		slog.String("span_id", sc.SpanID().String()[:shortIDLen]),
	}
}
