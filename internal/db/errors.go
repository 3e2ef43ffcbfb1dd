package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyExists indicates a unique constraint violation, e.g. a taken username.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates the requested row does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")
)

// wrapQueryError maps driver errors onto the sentinel errors. Errors it does
// not recognize are returned unchanged.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
