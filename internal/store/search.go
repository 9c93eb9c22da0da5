package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// SearchResult is a catalog record matched by a full-text query, with its
// collection name, relevance rank and a highlighted snippet. Lower rank
// means a better match.
type SearchResult struct {
	Record
	CollectionName string
	Rank           float64
	Snippet        string
}

// SearchRecords runs a full-text query over the catalog. Results are
// ordered best match first. An empty collectionID searches everything.
func (s *Store) SearchRecords(query, collectionID string, limit int) ([]*SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	q := `
		SELECT r.id, COALESCE(r.collection_id, ''), COALESCE(r.title, ''),
		       COALESCE(r.creator, ''), COALESCE(r.subject, ''), COALESCE(r.description, ''),
		       COALESCE(r.publisher, ''), COALESCE(r.contributor, ''), COALESCE(r.date_created, ''),
		       COALESCE(r.type, ''), COALESCE(r.format, ''), COALESCE(r.identifier, ''),
		       COALESCE(r.source, ''), COALESCE(r.language, ''), COALESCE(r.relation, ''),
		       COALESCE(r.coverage, ''), COALESCE(r.rights, ''), COALESCE(r.searchable_content, ''),
		       COALESCE(r.metadata, ''), COALESCE(r.session_id, ''), r.imported_at,
		       r.created_at, r.updated_at,
		       COALESCE(c.name, ''),
		       bm25(catalog_fts),
		       snippet(catalog_fts, -1, '[', ']', '…', 12)
		FROM catalog_fts
		JOIN dublin_core_records r ON r.rowid = catalog_fts.rowid
		LEFT JOIN collections c ON r.collection_id = c.id
		WHERE catalog_fts MATCH ?`
	args := []any{match}

	if collectionID != "" {
		q += " AND r.collection_id = ?"
		args = append(args, collectionID)
	}

	q += " ORDER BY bm25(catalog_fts) ASC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var res SearchResult
		var meta string
		var importedAt sql.NullTime
		err := rows.Scan(&res.ID, &res.CollectionID, &res.Title, &res.Creator,
			&res.Subject, &res.Description, &res.Publisher, &res.Contributor,
			&res.DateCreated, &res.Type, &res.Format, &res.Identifier,
			&res.Source, &res.Language, &res.Relation, &res.Coverage,
			&res.Rights, &res.SearchableContent, &meta, &res.SessionID,
			&importedAt, &res.CreatedAt, &res.UpdatedAt,
			&res.CollectionName, &res.Rank, &res.Snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res.Metadata, err = parseMeta(meta)
		if err != nil {
			return nil, err
		}
		res.ImportedAt = timeOrNil(importedAt)
		results = append(results, &res)
	}

	return results, rows.Err()
}

// ftsQuery converts free-form user input into a safe FTS5 match
// expression: each token is double-quoted so punctuation and FTS
// operators in the input cannot break the query
func ftsQuery(input string) string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		tokens = append(tokens, `"`+f+`"`)
	}
	return strings.Join(tokens, " ")
}

// RebuildSearchIndex discards and rebuilds the full-text index from the
// catalog records
func (s *Store) RebuildSearchIndex() error {
	_, err := s.db.Exec("INSERT INTO catalog_fts(catalog_fts) VALUES('rebuild')")
	if err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return nil
}

// CheckSearchIntegrity verifies the full-text index against the catalog
// records it shadows
func (s *Store) CheckSearchIntegrity() error {
	_, err := s.db.Exec("INSERT INTO catalog_fts(catalog_fts) VALUES('integrity-check')")
	if err != nil {
		return fmt.Errorf("search index out of sync: %w", err)
	}
	return nil
}
