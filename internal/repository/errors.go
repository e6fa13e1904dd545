// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// knowing which SQL driver produced them.
package repository

import (
	"errors"

	"github.com/iliyamo/car-marketplace/internal/database"
)

// ErrNotFound is returned when a row does not exist, is owned by someone
// else, or a referenced parent row is missing. Handlers redirect back to
// the originating page with an error flag.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when an insert violates a unique constraint,
// e.g. registering a username that is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrInvalidInput is returned when required listing fields are missing.
var ErrInvalidInput = errors.New("invalid input")

// translate maps driver errors onto the sentinels above.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrDuplicateKey
	case database.IsForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}
