// Package store persists users and notes. Every note query is filtered by
// owner, so a caller can only ever see or change its own rows.
package store

import "errors"

var (
	// ErrNotFound is returned when a row is absent or owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when a username collides with an existing one.
	ErrUsernameTaken = errors.New("username taken")
)

type scanner interface {
	Scan(dest ...any) error
}
