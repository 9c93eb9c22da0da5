package store

import (
	"errors"
	"testing"
)

func TestSeedCollections(t *testing.T) {
	tmpFile := "test-seed.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	if err := s.SeedCollections(); err != nil {
		t.Fatalf("failed to seed collections: %v", err)
	}

	collections, err := s.ListCollections()
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 3 {
		t.Fatalf("collection count = %d, want 3", len(collections))
	}

	// Seeding again must not duplicate or overwrite
	archive, err := s.GetCollectionByName("Museum Archive")
	if err != nil {
		t.Fatalf("failed to get Museum Archive: %v", err)
	}

	if err := s.SeedCollections(); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	collections, err = s.ListCollections()
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	if len(collections) != 3 {
		t.Errorf("collection count after reseed = %d, want 3", len(collections))
	}

	again, err := s.GetCollectionByName("Museum Archive")
	if err != nil {
		t.Fatalf("failed to get Museum Archive after reseed: %v", err)
	}
	if again.ID != archive.ID {
		t.Error("reseed replaced an existing collection")
	}
}

func TestCollectionCRUD(t *testing.T) {
	tmpFile := "test-collections.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCollection("Postcards", "Early 20th century postcards", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	if c.ID == "" {
		t.Error("created collection has no ID")
	}
	if !c.IsPublic {
		t.Error("created collection should be public")
	}

	got, err := s.GetCollection(c.ID)
	if err != nil {
		t.Fatalf("failed to get collection: %v", err)
	}
	if got.Name != "Postcards" {
		t.Errorf("name = %q, want Postcards", got.Name)
	}
	if got.Description != "Early 20th century postcards" {
		t.Errorf("description = %q", got.Description)
	}

	before := got.UpdatedAt
	if err := s.UpdateCollection(c.ID, "Postcards", "Revised description", false); err != nil {
		t.Fatalf("failed to update collection: %v", err)
	}

	got, err = s.GetCollection(c.ID)
	if err != nil {
		t.Fatalf("failed to get collection after update: %v", err)
	}
	if got.Description != "Revised description" {
		t.Errorf("description after update = %q", got.Description)
	}
	if got.IsPublic {
		t.Error("collection should be private after update")
	}
	if got.UpdatedAt.Before(before) {
		t.Error("updated_at went backwards")
	}

	if err := s.DeleteCollection(c.ID); err != nil {
		t.Fatalf("failed to delete collection: %v", err)
	}
	if _, err := s.GetCollection(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDuplicateCollectionName(t *testing.T) {
	tmpFile := "test-dup-collection.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	if _, err := s.CreateCollection("Maps", "", true); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	_, err = s.CreateCollection("Maps", "another", true)
	if !errors.Is(err, ErrUniqueConstraint) {
		t.Errorf("expected ErrUniqueConstraint, got %v", err)
	}
}

func TestDeleteCollectionCascades(t *testing.T) {
	tmpFile := "test-cascade.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCollection("Doomed", "", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	r1 := &Record{CollectionID: c.ID, Title: "First item"}
	r2 := &Record{CollectionID: c.ID, Title: "Second item"}
	if err := s.InsertRecord(r1); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}
	if err := s.InsertRecord(r2); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	if err := s.AttachMedia(&MediaFile{RecordID: r1.ID, FilePath: "/scans/a.jpg"}); err != nil {
		t.Fatalf("failed to attach media: %v", err)
	}

	if err := s.DeleteCollection(c.ID); err != nil {
		t.Fatalf("failed to delete collection: %v", err)
	}

	records, err := s.CountRecords()
	if err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if records != 0 {
		t.Errorf("record count after cascade = %d, want 0", records)
	}

	media, err := s.CountMedia()
	if err != nil {
		t.Fatalf("failed to count media: %v", err)
	}
	if media != 0 {
		t.Errorf("media count after cascade = %d, want 0", media)
	}
}

func TestListCollectionsWithCounts(t *testing.T) {
	tmpFile := "test-counts.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	full, err := s.CreateCollection("Full", "", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	if _, err := s.CreateCollection("Empty", "", true); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.InsertRecord(&Record{CollectionID: full.ID, Title: "Item"}); err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}
	}

	counts, err := s.ListCollectionsWithCounts()
	if err != nil {
		t.Fatalf("failed to list collections with counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("collection count = %d, want 2", len(counts))
	}

	// Ordered by name: Empty first
	if counts[0].Name != "Empty" || counts[0].RecordCount != 0 {
		t.Errorf("Empty collection count = %d, want 0", counts[0].RecordCount)
	}
	if counts[1].Name != "Full" || counts[1].RecordCount != 3 {
		t.Errorf("Full collection count = %d, want 3", counts[1].RecordCount)
	}
}
