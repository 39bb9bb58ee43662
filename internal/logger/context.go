package logger

import (
	"context"
	"time"
)

type logContextKey struct{}

// LogContext carries the request-scoped fields that the *Ctx functions
// prepend to every record. Values are treated as immutable: the With
// methods return modified copies.
type LogContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	ClientIP  string // without port
	Username  string // empty for anonymous requests
	UserID    uint
	StartTime time.Time
}

// WithContext attaches lc to ctx.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey{}, lc)
}

// FromContext returns the LogContext attached to ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey{}).(*LogContext)
	return lc
}

// NewLogContext starts a request context for clientIP, timed from now.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP, StartTime: time.Now()}
}

// Clone returns a shallow copy; nil stays nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

func (lc *LogContext) with(set func(*LogContext)) *LogContext {
	c := lc.Clone()
	if c != nil {
		set(c)
	}
	return c
}

func (lc *LogContext) WithRequestID(id string) *LogContext {
	return lc.with(func(c *LogContext) { c.RequestID = id })
}

func (lc *LogContext) WithUser(id uint, username string) *LogContext {
	return lc.with(func(c *LogContext) { c.UserID, c.Username = id, username })
}

func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	return lc.with(func(c *LogContext) { c.TraceID, c.SpanID = traceID, spanID })
}

// DurationMs is the time elapsed since StartTime, or 0 when unset.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
