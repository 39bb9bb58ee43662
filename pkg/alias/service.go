// Package alias is the resolution and mutation façade over the connection
// actor and the alias cache.
//
// Reads go cache first and fall through to the actor on a miss. Writes go to
// the actor first and invalidate the cache only once the store confirmed
// them, before returning to the caller. A lookup that starts after a write
// was acknowledged therefore never observes the value it replaced.
//
// The invalidation runs on the actor's worker as the write completes, not on
// the caller's goroutine. A caller that times out or disconnects while its
// write is queued or running still leaves the cache coherent.
package alias

import (
	"context"
	"errors"

	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/cache"
	"github.com/marmos91/aliasd/pkg/models"
)

// Cache is the subset of *cache.AliasCache the service needs.
type Cache interface {
	Get(key string) (string, bool)
	Snapshot(key string) cache.Generation
	PutIfCurrent(key, value string, gen cache.Generation) bool
	Invalidate(key string)
}

// Service resolves, upserts and deletes aliases.
type Service struct {
	actor actor.Submitter
	cache Cache
}

// NewService wires a Service to its actor and cache.
func NewService(submitter actor.Submitter, c Cache) *Service {
	return &Service{actor: submitter, cache: c}
}

// Resolve returns the destination for key.
//
// Only found values populate the cache; a NotFound or a storage error leaves
// it untouched. The populate is skipped when key was invalidated while the
// read was in flight.
func (s *Service) Resolve(ctx context.Context, key string) (string, error) {
	ctx, span := telemetry.StartAliasSpan(ctx, "resolve", key)
	defer span.End()

	if dest, ok := s.cache.Get(key); ok {
		span.SetAttributes(telemetry.CacheHit(true))
		return dest, nil
	}
	span.SetAttributes(telemetry.CacheHit(false))

	gen := s.cache.Snapshot(key)
	res, err := s.actor.Submit(ctx, actor.Command{Op: actor.OpGetAlias, Alias: key})
	if err != nil {
		err = classify("resolve", key, err)
		s.logFailure(ctx, "resolve", key, err)
		return "", err
	}

	filled := s.cache.PutIfCurrent(key, res.Alias.Destination, gen)
	span.SetAttributes(telemetry.CacheFilled(filled))
	if !filled {
		logger.DebugCtx(ctx, "Skipped cache fill after concurrent invalidation", logger.KeyAlias, key)
	}

	return res.Alias.Destination, nil
}

// Upsert creates key or replaces its destination and owner.
func (s *Service) Upsert(ctx context.Context, key, destination string, owner uint) error {
	ctx, span := telemetry.StartAliasSpan(ctx, "upsert", key,
		telemetry.Destination(destination), telemetry.OwnerID(owner))
	defer span.End()

	_, err := s.actor.Submit(ctx, actor.Command{
		Op:          actor.OpUpsertAlias,
		Alias:       key,
		Destination: destination,
		OwnerID:     owner,
		OnDone: func(res actor.Result) {
			if res.Err == nil {
				s.cache.Invalidate(key)
			}
		},
	})
	if err != nil {
		err = classify("upsert", key, err)
		s.logFailure(ctx, "upsert", key, err)
		return err
	}

	logger.InfoCtx(ctx, "Alias upserted",
		logger.KeyAlias, key,
		logger.KeyDestination, destination,
		logger.KeyOwnerID, owner)
	return nil
}

// Delete removes key if it belongs to owner.
func (s *Service) Delete(ctx context.Context, key string, owner uint) error {
	ctx, span := telemetry.StartAliasSpan(ctx, "delete", key, telemetry.OwnerID(owner))
	defer span.End()

	res, err := s.actor.Submit(ctx, actor.Command{
		Op:      actor.OpDeleteAlias,
		Alias:   key,
		OwnerID: owner,
		OnDone: func(res actor.Result) {
			if res.Err == nil && res.RowsAffected > 0 {
				s.cache.Invalidate(key)
			}
		},
	})
	if err != nil {
		err = classify("delete", key, err)
		s.logFailure(ctx, "delete", key, err)
		return err
	}
	if res.RowsAffected == 0 {
		logger.DebugCtx(ctx, "Alias delete matched nothing",
			logger.KeyAlias, key,
			logger.KeyOwnerID, owner)
		return ErrNotFoundOrNotOwned
	}

	logger.InfoCtx(ctx, "Alias deleted",
		logger.KeyAlias, key,
		logger.KeyOwnerID, owner)
	return nil
}

// ListByOwner returns every alias owned by owner. Lists are always read from
// the store.
func (s *Service) ListByOwner(ctx context.Context, owner uint) ([]*models.Alias, error) {
	res, err := s.actor.Submit(ctx, actor.Command{Op: actor.OpListAliases, OwnerID: owner})
	if err != nil {
		err = classify("list", "", err)
		s.logFailure(ctx, "list", "", err)
		return nil, err
	}
	return res.Aliases, nil
}

// logFailure keeps ERROR for storage and actor failures. Backpressure is a
// warning and a caller that gave up is only worth a debug line.
func (s *Service) logFailure(ctx context.Context, op, key string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		logger.DebugCtx(ctx, "Alias not found", logger.KeyAlias, key)
	case errors.Is(err, actor.ErrQueueFull):
		logger.WarnCtx(ctx, "Alias "+op+" rejected",
			logger.KeyAlias, key,
			logger.KeyError, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.DebugCtx(ctx, "Alias "+op+" abandoned by caller",
			logger.KeyAlias, key,
			logger.KeyError, err)
	default:
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Alias "+op+" failed",
			logger.KeyAlias, key,
			logger.KeyError, err)
	}
}
