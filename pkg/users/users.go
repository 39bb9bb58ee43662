// Package users manages the accounts that own aliases. Every operation goes
// through the connection actor.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/models"
)

// Invalidator drops alias keys from the resolution cache.
type Invalidator interface {
	Invalidate(key string)
}

// Service creates, authenticates and deletes users.
type Service struct {
	actor actor.Submitter
	cache Invalidator
}

// NewService wires a Service. The invalidator receives the keys of the
// aliases removed together with a deleted user; it may be nil.
func NewService(submitter actor.Submitter, cache Invalidator) *Service {
	return &Service{actor: submitter, cache: cache}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, username, password string) (*models.User, error) {
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, err
	}

	res, err := s.actor.Submit(ctx, actor.Command{
		Op:           actor.OpCreateUser,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "User created", logger.KeyUsername, username, logger.KeyOwnerID, res.User.ID)
	return res.User, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// Authenticate checks username and password. An unknown user and a wrong
// password both yield models.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		// Spend the same bcrypt work as a real comparison.
		dummyHashOnce.Do(func() {
			dummyHash, _ = models.HashPassword("not-a-real-password")
		})
		_ = models.CheckPassword(dummyHash, password)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := models.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns the user called username.
func (s *Service) Get(ctx context.Context, username string) (*models.User, error) {
	res, err := s.actor.Submit(ctx, actor.Command{Op: actor.OpGetUser, Username: username})
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

// GetByID returns the user with the given ID.
func (s *Service) GetByID(ctx context.Context, id uint) (*models.User, error) {
	res, err := s.actor.Submit(ctx, actor.Command{Op: actor.OpGetUserByID, UserID: id})
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

// Exists reports whether a user with the given ID is still registered.
func (s *Service) Exists(ctx context.Context, id uint) (bool, error) {
	_, err := s.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns every user ordered by username.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	res, err := s.actor.Submit(ctx, actor.Command{Op: actor.OpListUsers})
	if err != nil {
		return nil, err
	}
	return res.Users, nil
}

// Delete removes the user and all aliases it owns. The removed aliases are
// evicted from the cache as the delete commits, before Delete returns and
// even if ctx ends first.
func (s *Service) Delete(ctx context.Context, username string) error {
	res, err := s.actor.Submit(ctx, actor.Command{
		Op:       actor.OpDeleteUser,
		Username: username,
		OnDone: func(res actor.Result) {
			if res.Err != nil || s.cache == nil {
				return
			}
			for _, key := range res.Keys {
				s.cache.Invalidate(key)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}

	logger.InfoCtx(ctx, "User deleted",
		logger.KeyUsername, username,
		"aliases_removed", len(res.Keys))
	return nil
}
