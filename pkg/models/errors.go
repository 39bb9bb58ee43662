package models

import "errors"

// Common errors for alias and user records.
var (
	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateUser   = errors.New("user already exists")
	ErrInvalidUsername = errors.New("username must be 1-64 characters of letters, digits, '.', '_' or '-'")

	// Alias errors
	ErrAliasNotFound = errors.New("alias not found")
)
