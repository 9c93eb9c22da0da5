package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session is the per-batch tracker for the review pipeline, keyed by the
// timestamp-style session ID the scans arrived under
type Session struct {
	SessionID        string
	CreatedAt        time.Time
	Status           Status
	UploadedFilename string
	SessionPath      string
	TotalItems       int64
	DuplicatesFound  int64
	QualityIssues    int64
	CompletedAt      *time.Time
	ImportedAt       *time.Time
}

// CreateSession registers a new processing session. A session ID that was
// already registered is refused with ErrUniqueConstraint.
func (s *Store) CreateSession(sessionID, uploadedFilename, sessionPath string) (*Session, error) {
	_, err := s.db.Exec(`
		INSERT INTO processing_sessions_new (session_id, status, uploaded_filename, session_path)
		VALUES (?, ?, ?, ?)
	`, sessionID, string(StatusCreated), uploadedFilename, sessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", classify(err))
	}

	return s.GetSession(sessionID)
}

// GetSession retrieves a session by its ID
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, created_at, COALESCE(status, ''),
		       COALESCE(uploaded_filename, ''), COALESCE(session_path, ''),
		       total_items, duplicates_found, quality_issues,
		       completed_at, imported_at
		FROM processing_sessions_new
		WHERE session_id = ?
	`, sessionID)
	return scanSession(row)
}

// ListSessions returns sessions newest first. An empty status returns all
// of them.
func (s *Store) ListSessions(status Status) ([]*Session, error) {
	query := `
		SELECT session_id, created_at, COALESCE(status, ''),
		       COALESCE(uploaded_filename, ''), COALESCE(session_path, ''),
		       total_items, duplicates_found, quality_issues,
		       completed_at, imported_at
		FROM processing_sessions_new`
	var args []any

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, session_id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// SetSessionStatus updates a session's status
func (s *Store) SetSessionStatus(sessionID string, status Status) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new SET status = ? WHERE session_id = ?
	`, string(status), sessionID)
	if err != nil {
		return fmt.Errorf("failed to set session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetSessionPath updates the directory a session's scans live under
func (s *Store) SetSessionPath(sessionID, sessionPath string) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new SET session_path = ? WHERE session_id = ?
	`, sessionPath, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set session path: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetSessionUploadedFilename updates the name a session's upload arrived as
func (s *Store) SetSessionUploadedFilename(sessionID, uploadedFilename string) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new SET uploaded_filename = ? WHERE session_id = ?
	`, uploadedFilename, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set uploaded filename: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementSessionCounters adds the given deltas to a session's counters.
// The increments happen in a single statement, so concurrent workers can
// call this without losing updates.
func (s *Store) IncrementSessionCounters(sessionID string, items, duplicates, qualityIssues int64) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new
		SET total_items = total_items + ?,
		    duplicates_found = duplicates_found + ?,
		    quality_issues = quality_issues + ?
		WHERE session_id = ?
	`, items, duplicates, qualityIssues, sessionID)
	if err != nil {
		return fmt.Errorf("failed to increment session counters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetSessionCounters zeroes a session's item counters and clears its
// completion stamp ahead of re-staging
func (s *Store) ResetSessionCounters(sessionID string) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new
		SET total_items = 0,
		    duplicates_found = 0,
		    quality_issues = 0,
		    completed_at = NULL
		WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to reset session counters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkSessionCompleted stamps a session's completion time and moves it to
// review_ready
func (s *Store) MarkSessionCompleted(sessionID string) error {
	result, err := s.db.Exec(`
		UPDATE processing_sessions_new
		SET status = ?, completed_at = CURRENT_TIMESTAMP
		WHERE session_id = ?
	`, string(StatusReviewReady), sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session completed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkSessionImportedTx stamps a session's import time inside an existing
// transaction, as part of promoting its items into the catalog. The update
// only matches while imported_at is still NULL, so of two concurrent
// promotions exactly one claims the session; the other gets
// ErrAlreadyImported and rolls back. A session promoted without ever being
// marked completed gets its completion stamp here too.
func (s *Store) MarkSessionImportedTx(tx *sql.Tx, sessionID string) error {
	result, err := tx.Exec(`
		UPDATE processing_sessions_new
		SET status = ?, imported_at = CURRENT_TIMESTAMP,
		    completed_at = COALESCE(completed_at, CURRENT_TIMESTAMP)
		WHERE session_id = ? AND imported_at IS NULL
	`, string(StatusImported), sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session imported: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var n int64
		err := tx.QueryRow(`
			SELECT COUNT(*) FROM processing_sessions_new WHERE session_id = ?
		`, sessionID).Scan(&n)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyImported)
	}

	return nil
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var status string
	var completedAt, importedAt sql.NullTime
	err := row.Scan(&sess.SessionID, &sess.CreatedAt, &status,
		&sess.UploadedFilename, &sess.SessionPath,
		&sess.TotalItems, &sess.DuplicatesFound, &sess.QualityIssues,
		&completedAt, &importedAt)
	if err != nil {
		return nil, classify(err)
	}

	sess.Status = Status(status)
	sess.CompletedAt = timeOrNil(completedAt)
	sess.ImportedAt = timeOrNil(importedAt)

	return &sess, nil
}
