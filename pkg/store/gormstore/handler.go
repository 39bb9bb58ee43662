package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/models"
)

// Handle executes a single command. It implements actor.Handler.
func (c *Conn) Handle(ctx context.Context, cmd actor.Command) actor.Result {
	switch cmd.Op {
	case actor.OpPing:
		return actor.Result{Err: c.ping(ctx)}
	case actor.OpMigrate:
		return actor.Result{Err: c.migrate(ctx)}
	case actor.OpGetAlias:
		return c.getAlias(ctx, cmd.Alias)
	case actor.OpUpsertAlias:
		return c.upsertAlias(ctx, cmd.Alias, cmd.Destination, cmd.OwnerID)
	case actor.OpDeleteAlias:
		return c.deleteAlias(ctx, cmd.Alias, cmd.OwnerID)
	case actor.OpListAliases:
		return c.listAliases(ctx, cmd.OwnerID)
	case actor.OpCreateUser:
		return c.createUser(ctx, cmd.Username, cmd.PasswordHash)
	case actor.OpGetUser:
		user, err := getByField[models.User](c.db, ctx, "username", cmd.Username, models.ErrUserNotFound)
		return actor.Result{User: user, Err: err}
	case actor.OpGetUserByID:
		user, err := getByField[models.User](c.db, ctx, "id", cmd.UserID, models.ErrUserNotFound)
		return actor.Result{User: user, Err: err}
	case actor.OpListUsers:
		users, err := listWhere[models.User](c.db, ctx, "", nil, "username")
		return actor.Result{Users: users, Err: err}
	case actor.OpDeleteUser:
		return c.deleteUser(ctx, cmd.Username)
	default:
		return actor.Result{Err: fmt.Errorf("unsupported command: %s", cmd.Op)}
	}
}

func (c *Conn) ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (c *Conn) migrate(ctx context.Context) error {
	if c.config.Dialect == DialectPostgres {
		return runMigrations(ctx, c.config.PostgresDSN)
	}
	if err := c.db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	return nil
}

func (c *Conn) getAlias(ctx context.Context, key string) actor.Result {
	alias, err := getByField[models.Alias](c.db, ctx, "alias", key, models.ErrAliasNotFound)
	return actor.Result{Alias: alias, Err: err}
}

func (c *Conn) upsertAlias(ctx context.Context, key, destination string, owner uint) actor.Result {
	now := time.Now()
	alias := &models.Alias{
		Key:         key,
		Destination: destination,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alias"}},
		DoUpdates: clause.AssignmentColumns([]string{"destination", "owner_id", "updated_at"}),
	}).Create(alias)
	if result.Error != nil {
		return actor.Result{Err: result.Error}
	}
	return actor.Result{Alias: alias, RowsAffected: result.RowsAffected}
}

func (c *Conn) deleteAlias(ctx context.Context, key string, owner uint) actor.Result {
	result := c.db.WithContext(ctx).
		Where("alias = ? AND owner_id = ?", key, owner).
		Delete(&models.Alias{})
	if result.Error != nil {
		return actor.Result{Err: result.Error}
	}
	return actor.Result{RowsAffected: result.RowsAffected}
}

func (c *Conn) listAliases(ctx context.Context, owner uint) actor.Result {
	aliases, err := listWhere[models.Alias](c.db, ctx, "owner_id", owner, "alias")
	return actor.Result{Aliases: aliases, Err: err}
}

func (c *Conn) createUser(ctx context.Context, username, passwordHash string) actor.Result {
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return actor.Result{Err: models.ErrDuplicateUser}
		}
		return actor.Result{Err: err}
	}
	return actor.Result{User: user, RowsAffected: 1}
}

// deleteUser removes the user together with every alias it owns and reports
// the removed alias keys.
func (c *Conn) deleteUser(ctx context.Context, username string) actor.Result {
	var (
		user models.User
		keys []string
	)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		if err := tx.Model(&models.Alias{}).
			Where("owner_id = ?", user.ID).
			Order("alias").
			Pluck("alias", &keys).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.Alias{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return actor.Result{Err: err}
	}

	return actor.Result{User: &user, Keys: keys, RowsAffected: 1}
}

var _ actor.Handler = (*Conn)(nil)
