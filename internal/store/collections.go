package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection groups catalog records by provenance or purpose
type Collection struct {
	ID          string
	Name        string
	Description string
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CollectionWithCount is a collection plus the number of records it holds
type CollectionWithCount struct {
	Collection
	RecordCount int64
}

// DefaultCollectionName is the collection promoted items and imported
// spreadsheets land in unless another collection is requested
const DefaultCollectionName = "Museum Archive"

// defaultCollections are created by SeedCollections on a fresh database
var defaultCollections = []struct {
	name        string
	description string
}{
	{DefaultCollectionName, "Main museum archive collection containing artifacts, photographs, and historical documents"},
	{"Library", "Library collection containing books and publications"},
	{"Test Collection", "Collection for testing and development purposes"},
}

// CreateCollection inserts a new collection and returns it
func (s *Store) CreateCollection(name, description string, isPublic bool) (*Collection, error) {
	id := uuid.New().String()

	public := 0
	if isPublic {
		public = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO collections (id, name, description, is_public)
		VALUES (?, ?, ?, ?)
	`, id, name, description, public)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", classify(err))
	}

	return s.GetCollection(id)
}

// SeedCollections ensures the default collections exist. Safe to call on
// every startup: collections already present are left untouched.
func (s *Store) SeedCollections() error {
	for _, c := range defaultCollections {
		_, err := s.db.Exec(`
			INSERT INTO collections (id, name, description, is_public)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(name) DO NOTHING
		`, uuid.New().String(), c.name, c.description)
		if err != nil {
			return fmt.Errorf("failed to seed collection %s: %w", c.name, err)
		}
	}
	return nil
}

// GetCollection retrieves a collection by ID
func (s *Store) GetCollection(id string) (*Collection, error) {
	row := s.db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), is_public, created_at, updated_at
		FROM collections
		WHERE id = ?
	`, id)
	return scanCollection(row)
}

// GetCollectionByName retrieves a collection by its unique name
func (s *Store) GetCollectionByName(name string) (*Collection, error) {
	row := s.db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), is_public, created_at, updated_at
		FROM collections
		WHERE name = ?
	`, name)
	return scanCollection(row)
}

// ListCollections returns all collections ordered by name
func (s *Store) ListCollections() ([]*Collection, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(description, ''), is_public, created_at, updated_at
		FROM collections
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}

	return collections, rows.Err()
}

// ListCollectionsWithCounts returns all collections with their record counts
func (s *Store) ListCollectionsWithCounts() ([]*CollectionWithCount, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, COALESCE(c.description, ''), c.is_public,
		       c.created_at, c.updated_at, COUNT(r.id)
		FROM collections c
		LEFT JOIN dublin_core_records r ON r.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*CollectionWithCount
	for rows.Next() {
		var c CollectionWithCount
		var public int64
		err := rows.Scan(&c.ID, &c.Name, &c.Description, &public,
			&c.CreatedAt, &c.UpdatedAt, &c.RecordCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		c.IsPublic = public != 0
		collections = append(collections, &c)
	}

	return collections, rows.Err()
}

// UpdateCollection updates a collection's name, description and visibility
func (s *Store) UpdateCollection(id, name, description string, isPublic bool) error {
	public := 0
	if isPublic {
		public = 1
	}

	result, err := touchExec(s.db, "collections",
		"name = ?, description = ?, is_public = ?",
		"id = ?",
		name, description, public, id)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", classify(err))
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

// DeleteCollection removes a collection. Records in the collection and
// their media files are removed by cascade.
func (s *Store) DeleteCollection(id string) error {
	result, err := s.db.Exec("DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
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

func scanCollection(row rowScanner) (*Collection, error) {
	var c Collection
	var public int64
	err := row.Scan(&c.ID, &c.Name, &c.Description, &public, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	c.IsPublic = public != 0
	return &c, nil
}
