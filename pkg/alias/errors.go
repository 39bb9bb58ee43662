package alias

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/models"
)

var (
	// ErrNotFound is returned by Resolve when the alias does not exist.
	ErrNotFound = errors.New("no such alias")

	// ErrNotFoundOrNotOwned is returned by Delete when no alias with that key
	// belongs to the caller. Missing and foreign aliases are indistinguishable.
	ErrNotFoundOrNotOwned = errors.New("alias not found or not owned")

	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage error")

	// ErrActorUnavailable is returned when the connection actor is gone.
	ErrActorUnavailable = actor.ErrActorUnavailable

	// ErrInvalidAlias is returned by ValidateKey.
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrInvalidDestination is returned by NormalizeDestination.
	ErrInvalidDestination = errors.New("invalid destination URL")
)

// StorageError wraps a failure reported by the storage connection.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorage, e.Err)
	}
	return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Key, ErrStorage, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// classify maps a Submit error onto the service error taxonomy. Actor-level
// failures (unavailable, queue full, caller context) pass through unchanged.
func classify(op, key string, err error) error {
	switch {
	case errors.Is(err, models.ErrAliasNotFound):
		return ErrNotFound
	case errors.Is(err, actor.ErrActorUnavailable),
		errors.Is(err, actor.ErrQueueFull),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &StorageError{Op: op, Key: key, Err: err}
	}
}
