package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is a Dublin Core catalog record
type Record struct {
	ID                string
	CollectionID      string
	Title             string
	Creator           string
	Subject           string
	Description       string
	Publisher         string
	Contributor       string
	DateCreated       string
	Type              string
	Format            string
	Identifier        string
	Source            string
	Language          string
	Relation          string
	Coverage          string
	Rights            string
	SearchableContent string
	Metadata          Meta
	SessionID         string
	ImportedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RecordWithCollection is a record joined with its collection's name
type RecordWithCollection struct {
	Record
	CollectionName string
}

// RecordQuery selects records by exact field matches and an optional
// identifier prefix. Zero-value fields are ignored.
type RecordQuery struct {
	Title            string
	Creator          string
	Subject          string
	Identifier       string
	DateCreated      string
	CollectionID     string
	Type             string
	SessionID        string
	IdentifierPrefix string
	Limit            int
}

// recordColumns is the SELECT list every record query shares, in the
// order scanRecord expects
const recordColumns = `id, COALESCE(collection_id, ''), COALESCE(title, ''),
	COALESCE(creator, ''), COALESCE(subject, ''), COALESCE(description, ''),
	COALESCE(publisher, ''), COALESCE(contributor, ''), COALESCE(date_created, ''),
	COALESCE(type, ''), COALESCE(format, ''), COALESCE(identifier, ''),
	COALESCE(source, ''), COALESCE(language, ''), COALESCE(relation, ''),
	COALESCE(coverage, ''), COALESCE(rights, ''), COALESCE(searchable_content, ''),
	COALESCE(metadata, ''), COALESCE(session_id, ''), imported_at, created_at, updated_at`

// updatableRecordColumns are the columns UpdateRecordFields accepts
var updatableRecordColumns = map[string]bool{
	"collection_id": true,
	"title":         true,
	"creator":       true,
	"subject":       true,
	"description":   true,
	"publisher":     true,
	"contributor":   true,
	"date_created":  true,
	"type":          true,
	"format":        true,
	"identifier":    true,
	"source":        true,
	"language":      true,
	"relation":      true,
	"coverage":      true,
	"rights":        true,
}

// BuildSearchable joins the given field values into the space-separated
// blob the full-text index is fed from. Empty fields are skipped.
func BuildSearchable(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// InsertRecord inserts a new catalog record. If the record has no ID one
// is generated; if it has no searchable content it is derived from the
// descriptive fields.
func (s *Store) InsertRecord(r *Record) error {
	return s.insertRecord(s.db, r)
}

// InsertRecordTx inserts a record inside an existing transaction
func (s *Store) InsertRecordTx(tx *sql.Tx, r *Record) error {
	return s.insertRecord(tx, r)
}

func (s *Store) insertRecord(e execer, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Language == "" {
		r.Language = "en"
	}
	if r.SearchableContent == "" {
		r.SearchableContent = BuildSearchable(r.Title, r.Creator, r.Subject, r.Description)
	}

	meta, err := r.Metadata.marshal()
	if err != nil {
		return err
	}

	var importedAt any
	if r.ImportedAt != nil {
		importedAt = *r.ImportedAt
	}

	_, err = e.Exec(`
		INSERT INTO dublin_core_records (
			id, collection_id, title, creator, subject, description,
			publisher, contributor, date_created, type, format, identifier,
			source, language, relation, coverage, rights,
			searchable_content, metadata, session_id, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, nullIfEmpty(r.CollectionID), r.Title, r.Creator, r.Subject, r.Description,
		r.Publisher, r.Contributor, r.DateCreated, r.Type, r.Format, r.Identifier,
		r.Source, r.Language, r.Relation, r.Coverage, r.Rights,
		r.SearchableContent, meta, nullIfEmpty(r.SessionID), importedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", classify(err))
	}

	return nil
}

// GetRecord retrieves a record by ID
func (s *Store) GetRecord(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT `+recordColumns+`
		FROM dublin_core_records
		WHERE id = ?
	`, id)
	return scanRecord(row)
}

// UpdateRecordFields updates the given columns of a record. Column names
// outside the Dublin Core field set are rejected. The searchable content
// is rebuilt from the record's descriptive fields after the update.
func (s *Store) UpdateRecordFields(id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic column order
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableRecordColumns[col] {
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
		if col == "collection_id" {
			args = append(args, nullIfEmpty(fields[col]))
		} else {
			args = append(args, fields[col])
		}
	}
	args = append(args, id)

	return s.Transaction(func(tx *sql.Tx) error {
		result, err := touchExec(tx, "dublin_core_records", set.String(), "id = ?", args...)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", classify(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		// Recompute the search blob from the stored descriptive fields
		_, err = touchExec(tx, "dublin_core_records",
			`searchable_content = TRIM(
				COALESCE(title, '') || ' ' || COALESCE(creator, '') || ' ' ||
				COALESCE(subject, '') || ' ' || COALESCE(description, ''))`,
			"id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to rebuild searchable content: %w", err)
		}

		return nil
	})
}

// MergeRecordMeta folds the given keys into a record's metadata map,
// overwriting existing keys and leaving the rest in place
func (s *Store) MergeRecordMeta(id string, delta Meta) error {
	if len(delta) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRow(`
			SELECT COALESCE(metadata, '')
			FROM dublin_core_records
			WHERE id = ?
		`, id).Scan(&raw)
		if err != nil {
			return classify(err)
		}

		meta, err := parseMeta(raw)
		if err != nil {
			return err
		}
		for k, v := range delta {
			meta[k] = v
		}

		merged, err := meta.marshal()
		if err != nil {
			return err
		}

		_, err = touchExec(tx, "dublin_core_records",
			"metadata = ?", "id = ?", merged, id)
		if err != nil {
			return fmt.Errorf("failed to merge record metadata: %w", err)
		}

		return nil
	})
}

// DeleteRecord removes a record. Its media files are removed by cascade.
func (s *Store) DeleteRecord(id string) error {
	result, err := s.db.Exec("DELETE FROM dublin_core_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
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

// FindRecords returns records matching the query, newest first
func (s *Store) FindRecords(q RecordQuery) ([]*Record, error) {
	var conds []string
	var args []any

	exact := []struct {
		column string
		value  string
	}{
		{"title", q.Title},
		{"creator", q.Creator},
		{"subject", q.Subject},
		{"identifier", q.Identifier},
		{"date_created", q.DateCreated},
		{"collection_id", q.CollectionID},
		{"type", q.Type},
		{"session_id", q.SessionID},
	}
	for _, e := range exact {
		if e.value != "" {
			conds = append(conds, e.column+" = ?")
			args = append(args, e.value)
		}
	}
	if q.IdentifierPrefix != "" {
		conds = append(conds, "identifier LIKE ?")
		args = append(args, q.IdentifierPrefix+"%")
	}

	query := "SELECT " + recordColumns + " FROM dublin_core_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListRecordsWithCollection returns records joined with their collection
// names, newest first
func (s *Store) ListRecordsWithCollection(limit, offset int) ([]*RecordWithCollection, error) {
	rows, err := s.db.Query(`
		SELECT `+recordColumns+`, COALESCE(collection_name, '')
		FROM dublin_core_with_collection
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*RecordWithCollection
	for rows.Next() {
		var r RecordWithCollection
		var meta string
		var importedAt sql.NullTime
		err := rows.Scan(&r.ID, &r.CollectionID, &r.Title, &r.Creator, &r.Subject,
			&r.Description, &r.Publisher, &r.Contributor, &r.DateCreated,
			&r.Type, &r.Format, &r.Identifier, &r.Source, &r.Language,
			&r.Relation, &r.Coverage, &r.Rights, &r.SearchableContent,
			&meta, &r.SessionID, &importedAt, &r.CreatedAt, &r.UpdatedAt,
			&r.CollectionName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Metadata, err = parseMeta(meta)
		if err != nil {
			return nil, err
		}
		r.ImportedAt = timeOrNil(importedAt)
		records = append(records, &r)
	}

	return records, rows.Err()
}

// ListRecordsBySession returns the records imported from a session
func (s *Store) ListRecordsBySession(sessionID string) ([]*Record, error) {
	return s.FindRecords(RecordQuery{SessionID: sessionID})
}

// CountRecords returns the total number of catalog records
func (s *Store) CountRecords() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM dublin_core_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// CountRecordsBySession returns how many records a session produced
func (s *Store) CountRecordsBySession(sessionID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM dublin_core_records WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func scanRecord(row rowScanner) (*Record, error) {
	var r Record
	var meta string
	var importedAt sql.NullTime
	err := row.Scan(&r.ID, &r.CollectionID, &r.Title, &r.Creator, &r.Subject,
		&r.Description, &r.Publisher, &r.Contributor, &r.DateCreated,
		&r.Type, &r.Format, &r.Identifier, &r.Source, &r.Language,
		&r.Relation, &r.Coverage, &r.Rights, &r.SearchableContent,
		&meta, &r.SessionID, &importedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}

	r.Metadata, err = parseMeta(meta)
	if err != nil {
		return nil, err
	}
	r.ImportedAt = timeOrNil(importedAt)

	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
