package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/models"
)

// Handle executes a single command. It implements actor.Handler.
func (c *Conn) Handle(ctx context.Context, cmd actor.Command) actor.Result {
	if err := ctx.Err(); err != nil {
		return actor.Result{Err: err}
	}

	switch cmd.Op {
	case actor.OpPing:
		if c.db.IsClosed() {
			return actor.Result{Err: badgerdb.ErrDBClosed}
		}
		return actor.Result{}
	case actor.OpMigrate:
		// Schemaless.
		return actor.Result{}
	case actor.OpGetAlias:
		return c.getAlias(cmd.Alias)
	case actor.OpUpsertAlias:
		return c.upsertAlias(cmd.Alias, cmd.Destination, cmd.OwnerID)
	case actor.OpDeleteAlias:
		return c.deleteAlias(cmd.Alias, cmd.OwnerID)
	case actor.OpListAliases:
		return c.listAliases(cmd.OwnerID)
	case actor.OpCreateUser:
		return c.createUser(cmd.Username, cmd.PasswordHash)
	case actor.OpGetUser:
		return c.getUser(cmd.Username)
	case actor.OpGetUserByID:
		return c.getUserByID(cmd.UserID)
	case actor.OpListUsers:
		return c.listUsers()
	case actor.OpDeleteUser:
		return c.deleteUser(cmd.Username)
	default:
		return actor.Result{Err: fmt.Errorf("unsupported command: %s", cmd.Op)}
	}
}

// getJSON decodes the value at key into v, mapping a missing key to notFound.
func getJSON(txn *badgerdb.Txn, key []byte, v any, notFound error) error {
	item, err := txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badgerdb.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// aliasRecord is the stored form, independent of the API's JSON names.
type aliasRecord struct {
	Key         string    `json:"key"`
	Destination string    `json:"destination"`
	OwnerID     uint      `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *aliasRecord) model() *models.Alias {
	return &models.Alias{
		Key:         r.Key,
		Destination: r.Destination,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// userRecord keeps the password hash, which models.User omits from JSON.
type userRecord struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *userRecord) model() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (c *Conn) getAlias(key string) actor.Result {
	var rec aliasRecord
	err := c.db.View(func(txn *badgerdb.Txn) error {
		return getJSON(txn, keyAlias(key), &rec, models.ErrAliasNotFound)
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{Alias: rec.model()}
}

func (c *Conn) upsertAlias(key, destination string, owner uint) actor.Result {
	now := time.Now()
	rec := aliasRecord{Key: key, Destination: destination, OwnerID: owner, CreatedAt: now, UpdatedAt: now}

	err := c.db.Update(func(txn *badgerdb.Txn) error {
		var prev aliasRecord
		switch err := getJSON(txn, keyAlias(key), &prev, models.ErrAliasNotFound); {
		case err == nil:
			rec.CreatedAt = prev.CreatedAt
			if err := txn.Delete(keyOwner(prev.OwnerID, key)); err != nil {
				return err
			}
		case !errors.Is(err, models.ErrAliasNotFound):
			return err
		}

		if err := setJSON(txn, keyAlias(key), &rec); err != nil {
			return err
		}
		return txn.Set(keyOwner(owner, key), nil)
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{Alias: rec.model(), RowsAffected: 1}
}

func (c *Conn) deleteAlias(key string, owner uint) actor.Result {
	var affected int64
	err := c.db.Update(func(txn *badgerdb.Txn) error {
		var rec aliasRecord
		if err := getJSON(txn, keyAlias(key), &rec, models.ErrAliasNotFound); err != nil {
			if errors.Is(err, models.ErrAliasNotFound) {
				return nil
			}
			return err
		}
		if rec.OwnerID != owner {
			return nil
		}
		if err := txn.Delete(keyAlias(key)); err != nil {
			return err
		}
		affected = 1
		return txn.Delete(keyOwner(owner, key))
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{RowsAffected: affected}
}

// ownedKeys scans the owner index. Badger iterates in key order, so the
// result is sorted.
func ownedKeys(txn *badgerdb.Txn, owner uint) []string {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyOwnerPrefix(owner)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), string(opts.Prefix)))
	}
	return keys
}

func (c *Conn) listAliases(owner uint) actor.Result {
	aliases := []*models.Alias{}
	err := c.db.View(func(txn *badgerdb.Txn) error {
		for _, key := range ownedKeys(txn, owner) {
			var rec aliasRecord
			if err := getJSON(txn, keyAlias(key), &rec, models.ErrAliasNotFound); err != nil {
				return err
			}
			aliases = append(aliases, rec.model())
		}
		return nil
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{Aliases: aliases}
}

func (c *Conn) createUser(username, passwordHash string) actor.Result {
	var rec userRecord
	err := c.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyUser(username)); err == nil {
			return models.ErrDuplicateUser
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		next, err := c.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate user id: %w", err)
		}

		now := time.Now()
		rec = userRecord{
			ID:           uint(next) + 1,
			Username:     username,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := setJSON(txn, keyUser(username), &rec); err != nil {
			return err
		}
		return txn.Set(keyUserID(rec.ID), []byte(username))
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{User: rec.model(), RowsAffected: 1}
}

func (c *Conn) getUser(username string) actor.Result {
	var rec userRecord
	err := c.db.View(func(txn *badgerdb.Txn) error {
		return getJSON(txn, keyUser(username), &rec, models.ErrUserNotFound)
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{User: rec.model()}
}

func (c *Conn) getUserByID(id uint) actor.Result {
	var rec userRecord
	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyUserID(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return models.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		username, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, keyUser(string(username)), &rec, models.ErrUserNotFound)
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{User: rec.model()}
}

func (c *Conn) listUsers() actor.Result {
	users := []*models.User{}
	err := c.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec userRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			users = append(users, rec.model())
		}
		return nil
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return actor.Result{Users: users}
}

func (c *Conn) deleteUser(username string) actor.Result {
	var (
		rec  userRecord
		keys []string
	)
	err := c.db.Update(func(txn *badgerdb.Txn) error {
		if err := getJSON(txn, keyUser(username), &rec, models.ErrUserNotFound); err != nil {
			return err
		}

		keys = ownedKeys(txn, rec.ID)
		for _, key := range keys {
			if err := txn.Delete(keyAlias(key)); err != nil {
				return err
			}
			if err := txn.Delete(keyOwner(rec.ID, key)); err != nil {
				return err
			}
		}

		if err := txn.Delete(keyUserID(rec.ID)); err != nil {
			return err
		}
		return txn.Delete(keyUser(username))
	})
	if err != nil {
		return actor.Result{Err: err}
	}
	return actor.Result{User: rec.model(), Keys: keys, RowsAffected: 1}
}

var _ actor.Handler = (*Conn)(nil)
