package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Requests
	// ========================================================================
	KeyRequestID = "request_id" // chi request ID
	KeyClientIP  = "client_ip"  // Client IP address (without port)
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyStatus    = "status"     // HTTP status code
	KeyBytes     = "bytes"      // Response bytes written

	// ========================================================================
	// Identity
	// ========================================================================
	KeyUsername = "username" // Authenticated username
	KeyOwnerID  = "owner_id" // Owning user ID of an alias

	// ========================================================================
	// Aliases
	// ========================================================================
	KeyAlias       = "alias"       // Alias key
	KeyDestination = "destination" // Destination URL

	// ========================================================================
	// Connection Actor
	// ========================================================================
	KeyOp         = "op"          // Actor command tag
	KeyQueueDepth = "queue_depth" // Commands waiting in the actor queue
	KeyQueueSize  = "queue_size"  // Actor queue capacity
	KeyOverflow   = "overflow"    // Actor backpressure policy
	KeyRows       = "rows"        // Rows affected by a command

	// ========================================================================
	// Cache Layer
	// ========================================================================
	KeyCacheHit      = "cache_hit"      // Whether the lookup was served from cache
	KeyCacheCapacity = "cache_capacity" // Maximum cache entries
	KeyCacheEntries  = "cache_entries"  // Current cache entries

	// ========================================================================
	// Storage
	// ========================================================================
	KeyStoreType = "store_type" // sqlite, postgres, badger
	KeyStorePath = "store_path" // On-disk location of an embedded store

	// ========================================================================
	// Performance & Errors
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyComponent  = "component"   // Emitting component
	KeyAddress    = "address"     // Listen address
)

// TraceID returns a slog.Attr for trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for client IP
func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

// Username returns a slog.Attr for username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// OwnerID returns a slog.Attr for the owning user
func OwnerID(id uint) slog.Attr {
	return slog.Uint64(KeyOwnerID, uint64(id))
}

// Alias returns a slog.Attr for an alias key
func Alias(key string) slog.Attr {
	return slog.String(KeyAlias, key)
}

// Destination returns a slog.Attr for a destination URL
func Destination(url string) slog.Attr {
	return slog.String(KeyDestination, url)
}

// Op returns a slog.Attr for an actor command tag
func Op(op string) slog.Attr {
	return slog.String(KeyOp, op)
}

// QueueDepth returns a slog.Attr for actor queue depth
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// Rows returns a slog.Attr for affected rows
func Rows(n int64) slog.Attr {
	return slog.Int64(KeyRows, n)
}

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// DurationMs returns a slog.Attr for the elapsed time since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component returns a slog.Attr for the emitting component
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}
