package store

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors for constraint and lookup failures. Callers match these
// with errors.Is to decide between user-facing messages and retries.
var (
	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrUniqueConstraint indicates an insert or update collided with a
	// unique column, such as a duplicate collection name or session ID
	ErrUniqueConstraint = errors.New("unique constraint violation")

	// ErrForeignKey indicates a reference to a parent row that does not exist
	ErrForeignKey = errors.New("foreign key violation")

	// ErrAlreadyImported indicates a promotion was attempted for a session
	// whose items were already imported into the catalog
	ErrAlreadyImported = errors.New("session already imported")
)

// classify maps driver-level errors onto the store's sentinel errors while
// preserving the original error for %+v style inspection
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrUniqueConstraint, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrForeignKey, err)
		}
	}

	return err
}
