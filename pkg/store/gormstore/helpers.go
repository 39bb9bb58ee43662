package gormstore

import (
	"context"

	"gorm.io/gorm"
)

// getByField retrieves a single record of type T by matching field=value and
// converts gorm.ErrRecordNotFound to notFoundErr.
//
// Example:
//
//	user, err := getByField[models.User](db, ctx, "username", "alice", models.ErrUserNotFound)
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listWhere retrieves every record of type T matching field=value, ordered by
// orderBy. An empty field lists the whole table. Returns an empty slice (not
// nil) on success with no records.
func listWhere[T any](db *gorm.DB, ctx context.Context, field string, value any, orderBy string) ([]*T, error) {
	results := []*T{}
	q := db.WithContext(ctx)
	if field != "" {
		q = q.Where(field+" = ?", value)
	}
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
