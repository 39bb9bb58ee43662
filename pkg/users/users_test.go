package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/alias"
	"github.com/marmos91/aliasd/pkg/cache"
	"github.com/marmos91/aliasd/pkg/models"
	"github.com/marmos91/aliasd/pkg/store/badgerstore"
)

func newTestActor(t *testing.T) *actor.Actor {
	t.Helper()
	conn, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)

	a := actor.New(conn, actor.Options{})
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestCreate(t *testing.T) {
	svc := NewService(newTestActor(t), nil)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err = svc.Create(ctx, "alice", "another-pass")
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	_, err = svc.Create(ctx, "bad name", "correct-horse")
	assert.ErrorIs(t, err, models.ErrInvalidUsername)

	_, err = svc.Create(ctx, "bob", "short")
	assert.ErrorIs(t, err, models.ErrPasswordTooShort)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newTestActor(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLookups(t *testing.T) {
	svc := NewService(newTestActor(t), nil)
	ctx := context.Background()

	alice, err := svc.Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", "correct-horse")
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	ok, err := svc.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
}

func TestDeleteInvalidatesOwnedAliases(t *testing.T) {
	a := newTestActor(t)
	c := cache.New(16, nil)
	aliases := alias.NewService(a, c)
	svc := NewService(a, c)
	ctx := context.Background()

	alice, err := svc.Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "bob", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, aliases.Upsert(ctx, "mine", "https://alice.example", alice.ID))
	require.NoError(t, aliases.Upsert(ctx, "theirs", "https://bob.example", bob.ID))
	for _, key := range []string{"mine", "theirs"} {
		_, err := aliases.Resolve(ctx, key)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, "alice"))

	_, err = aliases.Resolve(ctx, "mine")
	assert.ErrorIs(t, err, alias.ErrNotFound)

	_, cached := c.Get("theirs")
	assert.True(t, cached)

	ok, err := svc.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.Delete(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

// slowDeletes stalls OpDeleteUser so the caller's deadline passes while the
// delete is still running.
type slowDeletes struct {
	actor.Handler
}

func (h slowDeletes) Handle(ctx context.Context, cmd actor.Command) actor.Result {
	if cmd.Op == actor.OpDeleteUser {
		time.Sleep(100 * time.Millisecond)
	}
	return h.Handler.Handle(ctx, cmd)
}

func TestAbandonedDeleteStillInvalidates(t *testing.T) {
	conn, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	a := actor.New(slowDeletes{Handler: conn}, actor.Options{})
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	c := cache.New(16, nil)
	aliases := alias.NewService(a, c)
	svc := NewService(a, c)
	ctx := context.Background()

	alice, err := svc.Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, aliases.Upsert(ctx, "mine", "https://alice.example", alice.ID))
	_, err = aliases.Resolve(ctx, "mine")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Delete(short, "alice"), context.DeadlineExceeded)

	// Queued behind the delete, so the delete has committed once it returns.
	ok, err := svc.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, cached := c.Get("mine")
	assert.False(t, cached)
	_, err = aliases.Resolve(ctx, "mine")
	assert.ErrorIs(t, err, alias.ErrNotFound)
}
