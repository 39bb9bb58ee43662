// Package gormstore implements the storage connection on top of GORM, backed
// by either SQLite or PostgreSQL.
//
// A Conn is not safe for concurrent use. It is owned by the connection actor
// and only ever driven from the actor's worker goroutine.
package gormstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	// DialectSQLite uses SQLite (single-node, default).
	DialectSQLite Dialect = "sqlite"

	// DialectPostgres uses PostgreSQL.
	DialectPostgres Dialect = "postgres"
)

// Config describes how to reach the database.
type Config struct {
	Dialect Dialect

	// SQLitePath is the database file, or ":memory:".
	SQLitePath string

	// PostgresDSN is the libpq style connection string.
	PostgresDSN string

	// Verbose routes GORM's own SQL logging to stdout.
	Verbose bool
}

// Conn is a single storage connection.
type Conn struct {
	db     *gorm.DB
	config Config
}

// Open connects to the database. It does not touch the schema; run OpMigrate
// through the actor for that.
func Open(config Config) (*Conn, error) {
	var dialector gorm.Dialector
	switch config.Dialect {
	case DialectSQLite, "":
		config.Dialect = DialectSQLite
		if config.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if config.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.SQLitePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// journal_mode(WAL) and busy_timeout(5000) tolerate external readers
		// such as the sqlite3 shell.
		dialector = sqlite.Open(config.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")

	case DialectPostgres:
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		dialector = postgres.Open(config.PostgresDSN)

	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", config.Dialect)
	}

	logMode := gormlogger.Silent
	if config.Verbose {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	// One physical connection. An in-memory SQLite database also lives only
	// as long as its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return &Conn{db: db, config: config}, nil
}

// DB returns the underlying GORM database connection.
func (c *Conn) DB() *gorm.DB {
	return c.db
}

// Dialect reports which backend the connection talks to.
func (c *Conn) Dialect() Dialect {
	return c.config.Dialect
}

// Close releases the connection.
func (c *Conn) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// convertNotFoundError converts gorm.ErrRecordNotFound to the appropriate domain error.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}
