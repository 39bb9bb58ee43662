package actor

import (
	"context"

	"github.com/marmos91/aliasd/pkg/models"
)

// Op tags a storage command. The Handler dispatches on it.
type Op uint8

const (
	OpPing Op = iota + 1
	OpMigrate
	OpGetAlias
	OpUpsertAlias
	OpDeleteAlias
	OpListAliases
	OpCreateUser
	OpGetUser
	OpGetUserByID
	OpListUsers
	OpDeleteUser
)

var opNames = map[Op]string{
	OpPing:        "ping",
	OpMigrate:     "migrate",
	OpGetAlias:    "get_alias",
	OpUpsertAlias: "upsert_alias",
	OpDeleteAlias: "delete_alias",
	OpListAliases: "list_aliases",
	OpCreateUser:  "create_user",
	OpGetUser:     "get_user",
	OpGetUserByID: "get_user_by_id",
	OpListUsers:   "list_users",
	OpDeleteUser:  "delete_user",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Command is one unit of storage work. Which fields are meaningful depends
// on Op.
//
//	OpGetAlias      Alias
//	OpUpsertAlias   Alias, Destination, OwnerID
//	OpDeleteAlias   Alias, OwnerID
//	OpListAliases   OwnerID
//	OpCreateUser    Username, PasswordHash
//	OpGetUser       Username
//	OpGetUserByID   UserID
//	OpDeleteUser    Username
type Command struct {
	Op           Op
	Alias        string
	Destination  string
	OwnerID      uint
	UserID       uint
	Username     string
	PasswordHash string

	// OnDone, when set, runs on the worker goroutine with the command's
	// Result as soon as the Handler returns and before the result is
	// delivered. It runs even if the submitter has stopped waiting, so it is
	// where a write's side effects belong. It must not block or submit.
	OnDone func(Result)
}

// Result is the outcome of a Command. Err holds the command's own failure
// (not found, constraint violation, driver error); it is delivered to the
// submitter like any other result.
type Result struct {
	Alias        *models.Alias
	Aliases      []*models.Alias
	User         *models.User
	Users        []*models.User
	Keys         []string // alias keys removed by OpDeleteUser
	RowsAffected int64
	Err          error
}

// Handler owns the storage connection. Handle is only ever called from the
// actor's worker goroutine, one command at a time, so implementations need
// no locking of their own.
type Handler interface {
	Handle(ctx context.Context, cmd Command) Result
	Close() error
}

// Submitter is the caller side of the actor. Implementations run
// Command.OnDone for every command they execute.
type Submitter interface {
	Submit(ctx context.Context, cmd Command) (Result, error)
}
