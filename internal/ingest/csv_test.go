package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vhagen/archive-curator/internal/store"
)

func openSeededStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.SeedCollections(); err != nil {
		t.Fatalf("Failed to seed collections: %v", err)
	}
	return db
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}
	return path
}

func TestImportCSVFile(t *testing.T) {
	db := openSeededStore(t)

	csv := "Title,Artist,Keywords,Summary,Comments,Catalog Number,Year,Donor\n" +
		"Spinning wheel,Unknown,\"textile, tools\",Oak spinning wheel,Minor woodworm,1918.7,1890,E. Berg\n" +
		"Christening gown,,,Linen gown,,1920.3,1902,\n"

	path := writeCSV(t, t.TempDir(), "donations.csv", csv)

	imp := NewCSVImporter(&CSVConfig{Store: db})
	result, err := imp.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}

	if result.RowsRead != 2 {
		t.Errorf("RowsRead = %d, expected 2", result.RowsRead)
	}
	if result.RowsImported != 2 {
		t.Errorf("RowsImported = %d, expected 2", result.RowsImported)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, expected none", result.Errors)
	}

	coll, err := db.GetCollectionByName(store.DefaultCollectionName)
	if err != nil {
		t.Fatalf("GetCollectionByName failed: %v", err)
	}

	records, err := db.FindRecords(store.RecordQuery{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("FindRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	var wheel *store.Record
	for _, r := range records {
		if r.Title == "Spinning wheel" {
			wheel = r
		}
	}
	if wheel == nil {
		t.Fatal("Spinning wheel record not found")
	}

	// Aliased headers land in their Dublin Core fields
	if wheel.Creator != "Unknown" {
		t.Errorf("Creator = %q", wheel.Creator)
	}
	if wheel.Subject != "textile, tools" {
		t.Errorf("Subject = %q", wheel.Subject)
	}
	// Free-form comments have no column of their own: they are
	// folded into the description
	if wheel.Description != "Oak spinning wheel Minor woodworm" {
		t.Errorf("Description = %q", wheel.Description)
	}
	if wheel.Identifier != "1918.7" {
		t.Errorf("Identifier = %q", wheel.Identifier)
	}
	if wheel.DateCreated != "1890" {
		t.Errorf("DateCreated = %q", wheel.DateCreated)
	}
	if wheel.Contributor != "E. Berg" {
		t.Errorf("Contributor = %q", wheel.Contributor)
	}

	if !strings.Contains(wheel.SearchableContent, "woodworm") {
		t.Errorf("SearchableContent missing notes text: %q", wheel.SearchableContent)
	}

	// Notes-only search finds the record through the index
	hits, err := db.SearchRecords("woodworm", "", 10)
	if err != nil {
		t.Fatalf("SearchRecords failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Record.ID != wheel.ID {
		t.Errorf("Search for notes text returned %d hits", len(hits))
	}
}

func TestImportCSVTitleFallback(t *testing.T) {
	db := openSeededStore(t)

	csv := "Creator,Identifier\nA. Nilsson,1931.4\n"
	path := writeCSV(t, t.TempDir(), "untitled.csv", csv)

	imp := NewCSVImporter(&CSVConfig{Store: db})
	result, err := imp.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.RowsImported != 1 {
		t.Fatalf("RowsImported = %d, expected 1", result.RowsImported)
	}

	records, err := db.FindRecords(store.RecordQuery{IdentifierPrefix: "1931.4"})
	if err != nil {
		t.Fatalf("FindRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Item 1 from untitled.csv" {
		t.Errorf("Title = %q, expected fallback title", records[0].Title)
	}
}

func TestImportCSVSkipsEmptyRows(t *testing.T) {
	db := openSeededStore(t)

	// Second row has values only in unmapped columns
	csv := "Title,Shelf\nLantern,B4\n,C9\n"
	path := writeCSV(t, t.TempDir(), "sparse.csv", csv)

	imp := NewCSVImporter(&CSVConfig{Store: db})
	result, err := imp.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}

	if result.RowsRead != 2 {
		t.Errorf("RowsRead = %d, expected 2", result.RowsRead)
	}
	if result.RowsImported != 1 {
		t.Errorf("RowsImported = %d, expected 1", result.RowsImported)
	}
	if result.RowsSkipped != 1 {
		t.Errorf("RowsSkipped = %d, expected 1", result.RowsSkipped)
	}
}

func TestImportCSVMissingCollection(t *testing.T) {
	// Unseeded database: the default collection does not exist
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	path := writeCSV(t, t.TempDir(), "donations.csv", "Title\nLantern\n")

	imp := NewCSVImporter(&CSVConfig{Store: db})
	if _, err := imp.ImportFile(path); err == nil {
		t.Error("Expected error when default collection is missing")
	}
}

func TestImportCSVIntoNamedCollection(t *testing.T) {
	db := openSeededStore(t)

	path := writeCSV(t, t.TempDir(), "books.csv", "Title,Author\nNordic flora,C. Lindman\n")

	imp := NewCSVImporter(&CSVConfig{Store: db, Collection: "Library"})
	result, err := imp.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.RowsImported != 1 {
		t.Fatalf("RowsImported = %d, expected 1", result.RowsImported)
	}

	lib, err := db.GetCollectionByName("Library")
	if err != nil {
		t.Fatalf("GetCollectionByName failed: %v", err)
	}
	records, err := db.FindRecords(store.RecordQuery{CollectionID: lib.ID})
	if err != nil {
		t.Fatalf("FindRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].Creator != "C. Lindman" {
		t.Errorf("Library records = %d", len(records))
	}
}
