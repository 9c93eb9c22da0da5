package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaFile is a file attached to a catalog record, such as the front or
// back scan of a card
type MediaFile struct {
	ID        string
	RecordID  string
	FilePath  string
	FileType  string
	FileSize  int64
	MimeType  string
	CreatedAt time.Time
}

// AttachMedia attaches a file to a record. The record must exist.
func (s *Store) AttachMedia(m *MediaFile) error {
	return s.attachMedia(s.db, m)
}

// AttachMediaTx attaches a file inside an existing transaction
func (s *Store) AttachMediaTx(tx *sql.Tx, m *MediaFile) error {
	return s.attachMedia(tx, m)
}

func (s *Store) attachMedia(e execer, m *MediaFile) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	_, err := e.Exec(`
		INSERT INTO media_files (id, record_id, file_path, file_type, file_size, mime_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.RecordID, m.FilePath, m.FileType, m.FileSize, m.MimeType)
	if err != nil {
		return fmt.Errorf("failed to attach media file: %w", classify(err))
	}

	return nil
}

// GetMedia retrieves a media file by ID
func (s *Store) GetMedia(id string) (*MediaFile, error) {
	row := s.db.QueryRow(`
		SELECT id, record_id, file_path, COALESCE(file_type, ''),
		       COALESCE(file_size, 0), COALESCE(mime_type, ''), created_at
		FROM media_files
		WHERE id = ?
	`, id)
	return scanMedia(row)
}

// ListMediaByRecord returns the files attached to a record
func (s *Store) ListMediaByRecord(recordID string) ([]*MediaFile, error) {
	rows, err := s.db.Query(`
		SELECT id, record_id, file_path, COALESCE(file_type, ''),
		       COALESCE(file_size, 0), COALESCE(mime_type, ''), created_at
		FROM media_files
		WHERE record_id = ?
		ORDER BY file_path
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}
	defer rows.Close()

	var files []*MediaFile
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, m)
	}

	return files, rows.Err()
}

// DeleteMedia removes a media file row. The file on disk is not touched.
func (s *Store) DeleteMedia(id string) error {
	result, err := s.db.Exec("DELETE FROM media_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete media file: %w", err)
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

// CountMedia returns the total number of attached files
func (s *Store) CountMedia() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM media_files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count media files: %w", err)
	}
	return count, nil
}

// TotalMediaBytes returns the summed size of all attached files
func (s *Store) TotalMediaBytes() (int64, error) {
	var total int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(file_size), 0) FROM media_files").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum media sizes: %w", err)
	}
	return total, nil
}

func scanMedia(row rowScanner) (*MediaFile, error) {
	var m MediaFile
	err := row.Scan(&m.ID, &m.RecordID, &m.FilePath, &m.FileType,
		&m.FileSize, &m.MimeType, &m.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &m, nil
}
