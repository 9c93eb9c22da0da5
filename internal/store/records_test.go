package store

import (
	"errors"
	"testing"
)

func TestRecordCRUD(t *testing.T) {
	tmpFile := "test-records.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCollection("Photographs", "", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	r := &Record{
		CollectionID: c.ID,
		Title:        "Harbor at dawn",
		Creator:      "E. Walcott",
		Subject:      "harbors, ships",
		Description:  "Silver gelatin print of the east harbor",
		Type:         "photograph",
		Identifier:   "PH-1021",
		Metadata:     Meta{MetaDirectory: "Box12"},
	}
	if err := s.InsertRecord(r); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}
	if r.ID == "" {
		t.Fatal("insert did not assign an ID")
	}

	got, err := s.GetRecord(r.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.Title != "Harbor at dawn" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Language != "en" {
		t.Errorf("language = %q, want default en", got.Language)
	}
	if got.Metadata[MetaDirectory] != "Box12" {
		t.Errorf("metadata directory = %q", got.Metadata[MetaDirectory])
	}

	// Searchable content is derived from descriptive fields
	if got.SearchableContent == "" {
		t.Error("searchable content was not derived")
	}

	before := got.UpdatedAt
	err = s.UpdateRecordFields(r.ID, map[string]string{
		"title":   "Harbor at dusk",
		"creator": "Edith Walcott",
	})
	if err != nil {
		t.Fatalf("failed to update record: %v", err)
	}

	got, err = s.GetRecord(r.ID)
	if err != nil {
		t.Fatalf("failed to get record after update: %v", err)
	}
	if got.Title != "Harbor at dusk" {
		t.Errorf("title after update = %q", got.Title)
	}
	if got.UpdatedAt.Before(before) {
		t.Error("updated_at went backwards")
	}

	if err := s.DeleteRecord(r.ID); err != nil {
		t.Fatalf("failed to delete record: %v", err)
	}
	if _, err := s.GetRecord(r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMergeRecordMeta(t *testing.T) {
	tmpFile := "test-meta-merge.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	r := &Record{
		Title:    "Interview tape",
		Type:     "audio",
		Metadata: Meta{MetaDirectory: "Shelf3"},
	}
	if err := s.InsertRecord(r); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	err = s.MergeRecordMeta(r.ID, Meta{
		MetaAudioTags: `{"artist":"K. Lindgren"}`,
		MetaDirectory: "Shelf4",
	})
	if err != nil {
		t.Fatalf("failed to merge metadata: %v", err)
	}

	got, err := s.GetRecord(r.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.Metadata[MetaAudioTags] != `{"artist":"K. Lindgren"}` {
		t.Errorf("audio tags = %q", got.Metadata[MetaAudioTags])
	}
	if got.Metadata[MetaDirectory] != "Shelf4" {
		t.Errorf("directory = %q, want overwritten value", got.Metadata[MetaDirectory])
	}

	if err := s.MergeRecordMeta("no-such-record", Meta{"k": "v"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown record, got %v", err)
	}
}

func TestUpdateRecordRejectsUnknownColumn(t *testing.T) {
	tmpFile := "test-badcol.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	r := &Record{Title: "Item"}
	if err := s.InsertRecord(r); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	err = s.UpdateRecordFields(r.ID, map[string]string{"id": "hijack"})
	if err == nil {
		t.Error("expected error updating protected column")
	}

	err = s.UpdateRecordFields(r.ID, map[string]string{"no_such_column": "x"})
	if err == nil {
		t.Error("expected error updating unknown column")
	}
}

func TestDeleteRecordCascadesMedia(t *testing.T) {
	tmpFile := "test-record-cascade.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	r := &Record{Title: "Card 204"}
	if err := s.InsertRecord(r); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	front := &MediaFile{RecordID: r.ID, FilePath: "/scans/204A.jpg", FileType: "front_image"}
	back := &MediaFile{RecordID: r.ID, FilePath: "/scans/204B.jpg", FileType: "back_image"}
	if err := s.AttachMedia(front); err != nil {
		t.Fatalf("failed to attach front: %v", err)
	}
	if err := s.AttachMedia(back); err != nil {
		t.Fatalf("failed to attach back: %v", err)
	}

	files, err := s.ListMediaByRecord(r.ID)
	if err != nil {
		t.Fatalf("failed to list media: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("media count = %d, want 2", len(files))
	}

	if err := s.DeleteRecord(r.ID); err != nil {
		t.Fatalf("failed to delete record: %v", err)
	}

	count, err := s.CountMedia()
	if err != nil {
		t.Fatalf("failed to count media: %v", err)
	}
	if count != 0 {
		t.Errorf("media count after record delete = %d, want 0", count)
	}
}

func TestFindRecords(t *testing.T) {
	tmpFile := "test-find.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCollection("Cards", "", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	records := []*Record{
		{CollectionID: c.ID, Title: "Card 100", Creator: "Unknown", Type: "photograph", Identifier: "1001", DateCreated: "1957"},
		{CollectionID: c.ID, Title: "Card 101", Creator: "Hallström", Type: "photograph", Identifier: "1002"},
		{CollectionID: c.ID, Title: "Card 102", Type: "document", Identifier: "2001"},
		{Title: "Stray", Type: "photograph", Identifier: "1003"},
	}
	for _, r := range records {
		if err := s.InsertRecord(r); err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}
	}

	byCollection, err := s.FindRecords(RecordQuery{CollectionID: c.ID})
	if err != nil {
		t.Fatalf("find by collection failed: %v", err)
	}
	if len(byCollection) != 3 {
		t.Errorf("records in collection = %d, want 3", len(byCollection))
	}

	byType, err := s.FindRecords(RecordQuery{Type: "photograph"})
	if err != nil {
		t.Fatalf("find by type failed: %v", err)
	}
	if len(byType) != 3 {
		t.Errorf("photograph records = %d, want 3", len(byType))
	}

	byPrefix, err := s.FindRecords(RecordQuery{IdentifierPrefix: "100"})
	if err != nil {
		t.Fatalf("find by identifier prefix failed: %v", err)
	}
	if len(byPrefix) != 3 {
		t.Errorf("identifier prefix matches = %d, want 3", len(byPrefix))
	}

	limited, err := s.FindRecords(RecordQuery{CollectionID: c.ID, Limit: 2})
	if err != nil {
		t.Fatalf("find with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited results = %d, want 2", len(limited))
	}

	byCreator, err := s.FindRecords(RecordQuery{Creator: "Hallström"})
	if err != nil {
		t.Fatalf("find by creator failed: %v", err)
	}
	if len(byCreator) != 1 || byCreator[0].Title != "Card 101" {
		t.Errorf("creator match = %+v, want Card 101", byCreator)
	}

	byDate, err := s.FindRecords(RecordQuery{DateCreated: "1957"})
	if err != nil {
		t.Fatalf("find by date failed: %v", err)
	}
	if len(byDate) != 1 || byDate[0].Title != "Card 100" {
		t.Errorf("date match = %+v, want Card 100", byDate)
	}

	byExactID, err := s.FindRecords(RecordQuery{Identifier: "1002", Type: "photograph"})
	if err != nil {
		t.Fatalf("find by identifier failed: %v", err)
	}
	if len(byExactID) != 1 || byExactID[0].Identifier != "1002" {
		t.Errorf("identifier match = %+v, want identifier 1002", byExactID)
	}
}

func TestListRecordsWithCollection(t *testing.T) {
	tmpFile := "test-view.db"
	defer removeTestDB(t, tmpFile)

	s, err := Open(tmpFile)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCollection("Ephemera", "", true)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	if err := s.InsertRecord(&Record{CollectionID: c.ID, Title: "Ticket stub"}); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}
	if err := s.InsertRecord(&Record{Title: "Unfiled note"}); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	listed, err := s.ListRecordsWithCollection(10, 0)
	if err != nil {
		t.Fatalf("failed to list records with collection: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed count = %d, want 2", len(listed))
	}

	names := map[string]string{}
	for _, r := range listed {
		names[r.Title] = r.CollectionName
	}
	if names["Ticket stub"] != "Ephemera" {
		t.Errorf("collection name = %q, want Ephemera", names["Ticket stub"])
	}
	if names["Unfiled note"] != "" {
		t.Errorf("unfiled record has collection name %q", names["Unfiled note"])
	}
}

func TestBuildSearchable(t *testing.T) {
	got := BuildSearchable("Harbor at dawn", "", "  ", "ships", "E. Walcott")
	want := "Harbor at dawn ships E. Walcott"
	if got != want {
		t.Errorf("BuildSearchable = %q, want %q", got, want)
	}

	if BuildSearchable("", " ") != "" {
		t.Error("BuildSearchable of empty fields should be empty")
	}
}
