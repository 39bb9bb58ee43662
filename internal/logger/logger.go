// Package logger is the process-wide structured logger, a thin layer over
// log/slog with a colour text format for terminals and a JSON format for
// collectors.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	// level is read lock-free on every call.
	level slog.LevelVar

	mu      sync.RWMutex
	out     io.Writer = os.Stdout
	closer  io.Closer // log file opened by Init, if any
	color   bool
	format  = "text"
	slogger *slog.Logger
)

func init() {
	level.Set(slog.LevelInfo)
	color = isTerminal(os.Stdout.Fd())
	rebuild()
}

// rebuild swaps in a handler for the current output and format. Callers
// hold mu, except init.
func rebuild() {
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: &level})
	} else {
		h = newTextHandler(out, &level, color)
	}
	slogger = slog.New(h)
}

// ParseLevel maps DEBUG, INFO, WARN or ERROR (any case) to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}

// Init applies cfg. Output is "stdout", "stderr" or a file path opened for
// append; a file opened by an earlier Init is closed. Empty fields keep
// their current value.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, c, useColor, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}

		mu.Lock()
		if closer != nil {
			_ = closer.Close()
		}
		out, closer, color = w, c, useColor
		rebuild()
		mu.Unlock()
	}

	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

func openOutput(target string) (io.Writer, io.Closer, bool, error) {
	switch strings.ToLower(target) {
	case "stdout":
		return os.Stdout, nil, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, nil, isTerminal(os.Stderr.Fd()), nil
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to open log file %q: %w", target, err)
	}
	return f, f, false, nil
}

// InitWithWriter points the logger at w. Intended for tests.
func InitWithWriter(w io.Writer, lvl, fmtName string, enableColor bool) {
	mu.Lock()
	out, closer, color = w, nil, enableColor
	rebuild()
	mu.Unlock()

	SetLevel(lvl)
	SetFormat(fmtName)
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l)
	}
}

// SetFormat selects "text" or "json". Unknown names are ignored.
func SetFormat(name string) {
	name = strings.ToLower(name)
	if name != "text" && name != "json" {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if name != format {
		format = name
		rebuild()
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

func log(ctx context.Context, l slog.Level, msg string, args []any) {
	if l < level.Level() {
		return
	}
	if ctx != nil {
		args = withContextFields(ctx, args)
	} else {
		ctx = context.Background()
	}
	current().Log(ctx, l, msg, args...)
}

// Debug logs at debug level: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) { log(nil, slog.LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { log(nil, slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { log(nil, slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { log(nil, slog.LevelError, msg, args) }

// DebugCtx logs at debug level, prefixed with the LogContext fields of ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with the LogContext fields of ctx.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with the LogContext fields of ctx.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with the LogContext fields of ctx.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelError, msg, args)
}

// withContextFields puts the request-scoped fields ahead of args.
func withContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := make([]any, 0, 12+len(args))
	for _, f := range []struct {
		key string
		val string
	}{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyRequestID, lc.RequestID},
		{KeyClientIP, lc.ClientIP},
		{KeyUsername, lc.Username},
	} {
		if f.val != "" {
			fields = append(fields, f.key, f.val)
		}
	}
	if lc.UserID != 0 {
		fields = append(fields, KeyOwnerID, lc.UserID)
	}
	return append(fields, args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
