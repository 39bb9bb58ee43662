// Package models holds the persisted records of aliasd: users and the
// aliases they own.
package models

// AllModels lists the records the embedded stores create tables for.
func AllModels() []any {
	return []any{&User{}, &Alias{}}
}
