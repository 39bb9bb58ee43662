// Package store selects and opens the storage connection the actor owns.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/aliasd/internal/bytesize"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/store/badgerstore"
	"github.com/marmos91/aliasd/pkg/store/gormstore"
)

// Type defines the supported storage backends.
type Type string

const (
	// TypeSQLite uses SQLite (single-node, default).
	TypeSQLite Type = "sqlite"

	// TypePostgres uses PostgreSQL.
	TypePostgres Type = "postgres"

	// TypeBadger uses an embedded BadgerDB directory.
	TypeBadger Type = "badger"
)

// EnvDatabaseURL overrides the SQLite database path.
const EnvDatabaseURL = "DATABASE_URL"

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Default: $XDG_DATA_HOME/aliasd/alias.sqlite
	Path string `mapstructure:"path" yaml:"path" json:"path,omitempty"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Database string `mapstructure:"database" yaml:"database" json:"database,omitempty"`
	User     string `mapstructure:"user" yaml:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" yaml:"password" json:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode" json:"sslmode,omitempty" validate:"omitempty,oneof=disable require verify-ca verify-full"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// BadgerConfig contains BadgerDB-specific configuration.
type BadgerConfig struct {
	// Path is the database directory.
	// Default: $XDG_DATA_HOME/aliasd/badger
	Path     string `mapstructure:"path" yaml:"path" json:"path,omitempty"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory" json:"in_memory,omitempty"`

	// MemTableSize bounds each in-memory table, e.g. "16MiB".
	// Default: badger's own (64MiB)
	MemTableSize bytesize.ByteSize `mapstructure:"memtable_size" yaml:"memtable_size,omitempty" json:"memtable_size,omitempty"`

	// ValueLogFileSize bounds each value log file, e.g. "256MiB".
	// Default: badger's own (1GiB)
	ValueLogFileSize bytesize.ByteSize `mapstructure:"value_log_file_size" yaml:"value_log_file_size,omitempty" json:"value_log_file_size,omitempty"`
}

// Config contains database configuration.
type Config struct {
	Type     Type           `mapstructure:"type" yaml:"type" json:"type" validate:"omitempty,oneof=sqlite postgres badger"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite" json:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
	Badger   BadgerConfig   `mapstructure:"badger" yaml:"badger" json:"badger"`

	// Verbose enables SQL statement logging.
	Verbose bool `mapstructure:"verbose" yaml:"verbose" json:"verbose,omitempty"`
}

// dataDir returns $XDG_DATA_HOME/aliasd, falling back to ~/.local/share.
func dataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		homeDir, _ := os.UserHomeDir()
		base = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(base, "aliasd")
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = TypeSQLite
	}

	switch c.Type {
	case TypeSQLite:
		if url := os.Getenv(EnvDatabaseURL); url != "" {
			c.SQLite.Path = url
		}
		if c.SQLite.Path == "" {
			c.SQLite.Path = filepath.Join(dataDir(), "alias.sqlite")
		}
	case TypePostgres:
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	case TypeBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			c.Badger.Path = filepath.Join(dataDir(), "badger")
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case TypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	case TypeBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return fmt.Errorf("badger path is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Open creates the storage connection described by cfg. The schema is not
// touched; submit actor.OpMigrate once the actor runs.
func Open(ctx context.Context, cfg Config) (actor.Handler, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var (
		handler actor.Handler
		err     error
	)
	switch cfg.Type {
	case TypeSQLite:
		handler, err = gormstore.Open(gormstore.Config{
			Dialect:    gormstore.DialectSQLite,
			SQLitePath: cfg.SQLite.Path,
			Verbose:    cfg.Verbose,
		})
	case TypePostgres:
		handler, err = gormstore.Open(gormstore.Config{
			Dialect:     gormstore.DialectPostgres,
			PostgresDSN: cfg.Postgres.DSN(),
			Verbose:     cfg.Verbose,
		})
	case TypeBadger:
		handler, err = badgerstore.Open(badgerstore.Config{
			Path:             cfg.Badger.Path,
			InMemory:         cfg.Badger.InMemory,
			MemTableSize:     cfg.Badger.MemTableSize.Int64(),
			ValueLogFileSize: cfg.Badger.ValueLogFileSize.Int64(),
		})
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Storage connection opened",
		logger.KeyStoreType, string(cfg.Type),
		logger.KeyStorePath, cfg.location())
	return handler, nil
}

func (c *Config) location() string {
	switch c.Type {
	case TypeSQLite:
		return c.SQLite.Path
	case TypePostgres:
		return fmt.Sprintf("%s:%d/%s", c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
	case TypeBadger:
		if c.Badger.InMemory {
			return ":memory:"
		}
		return c.Badger.Path
	}
	return ""
}
