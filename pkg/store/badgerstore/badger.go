// Package badgerstore implements the storage connection on an embedded
// BadgerDB key-value store.
package badgerstore

import (
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/aliasd/internal/logger"
)

// ============================================================================
// Key Namespace
// ============================================================================
//
// Data Type        Prefix   Key Format            Value
// ===========================================================
// Aliases          "a:"     a:<alias>             Alias (JSON)
// Users            "u:"     u:<username>          User (JSON)
// User IDs         "uid:"   uid:<id>              username
// Owner index      "o:"     o:<owner>:<alias>     empty
// User sequence    "seq:"   seq:users             badger sequence

const (
	prefixAlias   = "a:"
	prefixUser    = "u:"
	prefixUserID  = "uid:"
	prefixOwner   = "o:"
	keyUserSeq    = "seq:users"
	sequenceLease = 16
)

func keyAlias(alias string) []byte {
	return []byte(prefixAlias + alias)
}

func keyUser(username string) []byte {
	return []byte(prefixUser + username)
}

func keyUserID(id uint) []byte {
	return []byte(fmt.Sprintf("%s%d", prefixUserID, id))
}

func keyOwnerPrefix(owner uint) []byte {
	return []byte(fmt.Sprintf("%s%d:", prefixOwner, owner))
}

func keyOwner(owner uint, alias string) []byte {
	return append(keyOwnerPrefix(owner), alias...)
}

// Config describes where the database lives.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM.
	InMemory bool

	// MemTableSize and ValueLogFileSize override badger's defaults when
	// positive.
	MemTableSize     int64
	ValueLogFileSize int64
}

// Conn is a single BadgerDB connection. It is owned by the connection actor.
type Conn struct {
	db  *badgerdb.DB
	seq *badgerdb.Sequence
}

// Open opens (or creates) the database.
func Open(config Config) (*Conn, error) {
	var opts badgerdb.Options
	if config.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(nil)
	if config.MemTableSize > 0 {
		opts = opts.WithMemTableSize(config.MemTableSize)
	}
	if config.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(config.ValueLogFileSize)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	seq, err := db.GetSequence([]byte(keyUserSeq), sequenceLease)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to acquire user id sequence: %w", err)
	}

	logger.Debug("Badger store opened",
		logger.KeyStorePath, config.Path,
		"in_memory", config.InMemory)

	return &Conn{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (c *Conn) Close() error {
	seqErr := c.seq.Release()
	if err := c.db.Close(); err != nil {
		return err
	}
	return seqErr
}
