package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// StagingItem is one extracted card waiting in the staging table for
// review. Items keep their extraction text verbatim until a reviewer
// edits them or promotion copies them into the catalog.
type StagingItem struct {
	ID               int64
	SessionID        string
	Directory        string
	IDNumber         string
	FrontImagePath   string
	BackImagePath    string
	HandwrittenNotes string
	PrintedLabels    string
	Addresses        string
	OtherMarkings    string
	ExtractionNotes  string
	Flags            FlagList
	ProcessedAt      string
	ModelUsed        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// updatableStagingColumns are the columns a reviewer may edit
var updatableStagingColumns = map[string]bool{
	"id_number":         true,
	"handwritten_notes": true,
	"printed_labels":    true,
	"addresses":         true,
	"other_markings":    true,
	"extraction_notes":  true,
}

const stagingColumns = `id, session_id, COALESCE(directory, ''), COALESCE(id_number, ''),
	COALESCE(front_image_path, ''), COALESCE(back_image_path, ''),
	COALESCE(handwritten_notes, ''), COALESCE(printed_labels, ''),
	COALESCE(addresses, ''), COALESCE(other_markings, ''),
	COALESCE(extraction_notes, ''), COALESCE(flags, '[]'),
	COALESCE(processed_at, ''), COALESCE(model_used, ''), created_at, updated_at`

// InsertStagingItems writes a batch of extracted items in one transaction.
// The session they belong to must exist.
func (s *Store) InsertStagingItems(items []*StagingItem) error {
	if len(items) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO processing_items_temp (
				session_id, directory, id_number, front_image_path, back_image_path,
				handwritten_notes, printed_labels, addresses, other_markings,
				extraction_notes, flags, processed_at, model_used
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare staging insert: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			flags, err := item.Flags.marshal()
			if err != nil {
				return err
			}

			result, err := stmt.Exec(
				item.SessionID, item.Directory, item.IDNumber,
				item.FrontImagePath, item.BackImagePath,
				item.HandwrittenNotes, item.PrintedLabels,
				item.Addresses, item.OtherMarkings,
				item.ExtractionNotes, flags, item.ProcessedAt, item.ModelUsed)
			if err != nil {
				return fmt.Errorf("failed to insert staging item: %w", classify(err))
			}

			item.ID, err = result.LastInsertId()
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// GetStagingItem retrieves a staged item by its row ID
func (s *Store) GetStagingItem(id int64) (*StagingItem, error) {
	row := s.db.QueryRow(`
		SELECT `+stagingColumns+`
		FROM processing_items_temp
		WHERE id = ?
	`, id)
	return scanStagingItem(row)
}

// ListStagingBySession returns a session's staged items in insertion order
func (s *Store) ListStagingBySession(sessionID string) ([]*StagingItem, error) {
	return s.listStaging(sessionID, false)
}

// ListFlaggedStagingBySession returns only the staged items carrying flags
func (s *Store) ListFlaggedStagingBySession(sessionID string) ([]*StagingItem, error) {
	return s.listStaging(sessionID, true)
}

func (s *Store) listStaging(sessionID string, flaggedOnly bool) ([]*StagingItem, error) {
	query := "SELECT " + stagingColumns + " FROM processing_items_temp WHERE session_id = ?"
	if flaggedOnly {
		query += " AND flags != '[]'"
	}
	query += " ORDER BY directory, id"

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging items: %w", err)
	}
	defer rows.Close()

	var items []*StagingItem
	for rows.Next() {
		item, err := scanStagingItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// UpdateStagingFields updates the given columns of a staged item. Only
// reviewer-editable columns are accepted.
func (s *Store) UpdateStagingFields(id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableStagingColumns[col] {
			return fmt.Errorf("cannot update column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var set strings.Builder
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		if i > 0 {
			set.WriteString(", ")
		}
		set.WriteString(col + " = ?")
		args = append(args, fields[col])
	}
	set.WriteString(", updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := s.db.Exec(
		"UPDATE processing_items_temp SET "+set.String()+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update staging item: %w", classify(err))
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

// SetStagingFlags replaces a staged item's flags
func (s *Store) SetStagingFlags(id int64, flags FlagList) error {
	raw, err := flags.marshal()
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE processing_items_temp
		SET flags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, raw, id)
	if err != nil {
		return fmt.Errorf("failed to set staging flags: %w", err)
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

// AddStagingFlag adds a flag to a staged item, keeping existing flags
func (s *Store) AddStagingFlag(id int64, flag Flag) error {
	return s.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRow(`
			SELECT COALESCE(flags, '[]') FROM processing_items_temp WHERE id = ?
		`, id).Scan(&raw)
		if err != nil {
			return classify(err)
		}

		flags, err := parseFlags(raw)
		if err != nil {
			return err
		}
		flags = flags.Add(flag)

		merged, err := flags.marshal()
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE processing_items_temp
			SET flags = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, merged, id)
		if err != nil {
			return fmt.Errorf("failed to add staging flag: %w", err)
		}

		return nil
	})
}

// CountStagingBySession returns how many items a session has staged
func (s *Store) CountStagingBySession(sessionID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM processing_items_temp WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count staging items: %w", err)
	}
	return count, nil
}

// DeleteStagingBySession removes all of a session's staged items
func (s *Store) DeleteStagingBySession(sessionID string) (int64, error) {
	result, err := s.db.Exec(
		"DELETE FROM processing_items_temp WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete staging items: %w", err)
	}
	return result.RowsAffected()
}

func scanStagingItem(row rowScanner) (*StagingItem, error) {
	var item StagingItem
	var flagsRaw string
	err := row.Scan(&item.ID, &item.SessionID, &item.Directory, &item.IDNumber,
		&item.FrontImagePath, &item.BackImagePath,
		&item.HandwrittenNotes, &item.PrintedLabels,
		&item.Addresses, &item.OtherMarkings,
		&item.ExtractionNotes, &flagsRaw,
		&item.ProcessedAt, &item.ModelUsed, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}

	item.Flags, err = parseFlags(flagsRaw)
	if err != nil {
		return nil, err
	}

	return &item, nil
}
