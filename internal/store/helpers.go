package store

import (
	"database/sql"
	"time"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows so scan helpers
// can serve single-row and multi-row queries
type rowScanner interface {
	Scan(dest ...any) error
}

// timeOrNil converts a scanned NullTime into a pointer, nil when the
// column was NULL
func timeOrNil(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// nullIfEmpty writes an empty string as NULL. Required for nullable
// foreign key columns, where '' would fail the reference check.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

