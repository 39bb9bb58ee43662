package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on alias service spans.
const (
	// Client
	AttrClientIP = "client.ip"
	AttrUsername = "user.name"
	AttrUserID   = "user.id"

	// Aliases
	AttrAlias       = "alias.key"
	AttrDestination = "alias.destination"
	AttrOwnerID     = "alias.owner_id"

	// Cache
	AttrCacheHit    = "cache.hit"
	AttrCacheFilled = "cache.filled"

	// Connection actor and storage
	AttrOp        = "actor.op"
	AttrStoreType = "store.type"
)

// ClientIP returns an attribute for the client IP.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// Username returns an attribute for the authenticated username.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UserID returns an attribute for the authenticated user ID.
func UserID(id uint) attribute.KeyValue {
	return attribute.Int64(AttrUserID, int64(id))
}

// Alias returns an attribute for an alias key.
func Alias(key string) attribute.KeyValue {
	return attribute.String(AttrAlias, key)
}

// Destination returns an attribute for a destination URL.
func Destination(url string) attribute.KeyValue {
	return attribute.String(AttrDestination, url)
}

// OwnerID returns an attribute for the owner of an alias.
func OwnerID(id uint) attribute.KeyValue {
	return attribute.Int64(AttrOwnerID, int64(id))
}

// CacheHit returns an attribute for cache hit/miss.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// CacheFilled returns an attribute recording whether a miss populated the cache.
func CacheFilled(filled bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheFilled, filled)
}

// Op returns an attribute for an actor command tag.
func Op(op string) attribute.KeyValue {
	return attribute.String(AttrOp, op)
}

// StoreType returns an attribute for the storage backend.
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StartAliasSpan starts a span for an alias service operation.
func StartAliasSpan(ctx context.Context, operation, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Alias(key)}, attrs...)
	return StartSpan(ctx, "alias."+operation, trace.WithAttributes(allAttrs...))
}
