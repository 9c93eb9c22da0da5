package review

import (
	"strings"
	"testing"
	"time"

	"github.com/vhagen/archive-curator/internal/store"
)

func TestItemsTable(t *testing.T) {
	items := []*store.StagingItem{
		{
			ID:               1,
			Directory:        "0001",
			IDNumber:         "1957.042",
			HandwrittenNotes: "Donated by the Hallström estate",
			Flags:            store.FlagList{store.FlagQualityIssue, store.FlagDuplicateID},
		},
		{
			ID:        2,
			Directory: "0002",
			IDNumber:  "not_found",
		},
	}

	var buf strings.Builder
	ItemsTable(&buf, items)
	out := buf.String()

	for _, want := range []string{"1957.042", "0001", "quality_issue,duplicate_id", "not_found"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table output missing %q:\n%s", want, out)
		}
	}

	// Unflagged items render a dash, not an empty cell
	if !strings.Contains(out, "-") {
		t.Errorf("Expected dash for empty flags:\n%s", out)
	}
}

func TestItemsTableTruncatesLongNotes(t *testing.T) {
	long := strings.Repeat("mycket lång handskriven anteckning ", 10)
	items := []*store.StagingItem{
		{ID: 1, Directory: "0001", IDNumber: "X", HandwrittenNotes: long},
	}

	var buf strings.Builder
	ItemsTable(&buf, items)
	out := buf.String()

	if strings.Contains(out, long) {
		t.Error("Long notes were not truncated")
	}
	if !strings.Contains(out, "...") {
		t.Errorf("Expected ellipsis in truncated cell:\n%s", out)
	}
}

func TestItemDetail(t *testing.T) {
	item := &store.StagingItem{
		ID:               7,
		SessionID:        "20240830_142500",
		Directory:        "0001",
		IDNumber:         "1957.042",
		FrontImagePath:   "/archive/0001/0001A.jpg",
		HandwrittenNotes: "Donated by the Hallström estate",
		ExtractionNotes:  "Clear handwriting",
		ModelUsed:        "gpt-4o",
		CreatedAt:        time.Now(),
	}

	var buf strings.Builder
	ItemDetail(&buf, item)
	out := buf.String()

	for _, want := range []string{
		"Item #7",
		"20240830_142500",
		"1957.042",
		"/archive/0001/0001A.jpg",
		"Donated by the Hallström estate",
		"gpt-4o",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Detail output missing %q:\n%s", want, out)
		}
	}

	// Missing back scan renders a dash
	backLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Back scan:") {
			backLine = line
		}
	}
	if !strings.HasSuffix(backLine, "-") {
		t.Errorf("Expected dash for missing back scan, got %q", backLine)
	}
}

func TestSessionsTable(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour)
	imported := time.Now().Add(-1 * time.Hour)

	sessions := []*store.Session{
		{
			SessionID:       "20240830_142500",
			Status:          store.StatusImported,
			TotalItems:      42,
			DuplicatesFound: 3,
			QualityIssues:   5,
			CreatedAt:       created,
			ImportedAt:      &imported,
		},
		{
			SessionID: "20240831_090000",
			Status:    store.StatusReviewReady,
			CreatedAt: created,
		},
	}

	var buf strings.Builder
	SessionsTable(&buf, sessions)
	out := buf.String()

	for _, want := range []string{"20240830_142500", "imported", "42", "review_ready", "hour"} {
		if !strings.Contains(out, want) {
			t.Errorf("Sessions table missing %q:\n%s", want, out)
		}
	}
}

func TestSessionDetailWithPipeline(t *testing.T) {
	s := &store.Session{
		SessionID:  "20240830_142500",
		Status:     store.StatusReviewReady,
		TotalItems: 10,
		CreatedAt:  time.Now(),
	}
	pipe := &store.PipelineState{
		SessionID:      "20240830_142500",
		CurrentStep:    store.StepAwaitingReview,
		StepsCompleted: store.StepList{store.StepUpload, store.StepTextExtraction},
		ErrorLog:       "2024-08-30T14:25:00Z: scan missing\n",
	}

	var buf strings.Builder
	SessionDetail(&buf, s, pipe)
	out := buf.String()

	for _, want := range []string{
		"awaiting_review",
		"upload → text_extraction",
		"scan missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Session detail missing %q:\n%s", want, out)
		}
	}
}

func TestRecordsTable(t *testing.T) {
	records := []*store.RecordWithCollection{
		{
			Record: store.Record{
				ID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
				Title:      "Item 0001 - ID: 1957.042",
				Identifier: "1957.042",
				Type:       "photograph",
				CreatedAt:  time.Now(),
			},
			CollectionName: "Museum Archive",
		},
	}

	var buf strings.Builder
	RecordsTable(&buf, records)
	out := buf.String()

	if !strings.Contains(out, "0f8fad5b") {
		t.Errorf("Expected abbreviated ID:\n%s", out)
	}
	if strings.Contains(out, "0f8fad5b-d9cb") {
		t.Errorf("Expected full UUID to be shortened:\n%s", out)
	}
	for _, want := range []string{"Item 0001 - ID: 1957.042", "Museum Archive", "photograph"} {
		if !strings.Contains(out, want) {
			t.Errorf("Records table missing %q:\n%s", want, out)
		}
	}
}

func TestSearchTable(t *testing.T) {
	results := []*store.SearchResult{
		{
			Record: store.Record{
				ID:    "0f8fad5b-d9cb-469f-a165-70867728950e",
				Title: "Item 0001 - ID: 1957.042",
			},
			CollectionName: "Museum Archive",
			Snippet:        "Donated by the [Hallström] estate",
		},
	}

	var buf strings.Builder
	SearchTable(&buf, results)
	out := buf.String()

	if !strings.Contains(out, "[Hallström]") {
		t.Errorf("Search table missing snippet highlight:\n%s", out)
	}
}

func TestCollectionsTable(t *testing.T) {
	collections := []*store.CollectionWithCount{
		{
			Collection: store.Collection{
				ID:          "0f8fad5b-d9cb-469f-a165-70867728950e",
				Name:        "Museum Archive",
				Description: "Main museum archive collection",
				IsPublic:    true,
			},
			RecordCount: 128,
		},
	}

	var buf strings.Builder
	CollectionsTable(&buf, collections)
	out := buf.String()

	for _, want := range []string{"Museum Archive", "128", "true"} {
		if !strings.Contains(out, want) {
			t.Errorf("Collections table missing %q:\n%s", want, out)
		}
	}
}

func TestMediaTable(t *testing.T) {
	files := []*store.MediaFile{
		{
			ID:       "0f8fad5b-d9cb-469f-a165-70867728950e",
			FileType: "front_image",
			FilePath: "/archive/0001/0001A.jpg",
			MimeType: "image/jpeg",
			FileSize: 2048,
		},
	}

	var buf strings.Builder
	MediaTable(&buf, files)
	out := buf.String()

	for _, want := range []string{"front_image", "/archive/0001/0001A.jpg", "image/jpeg", "2.0 kB"} {
		if !strings.Contains(out, want) {
			t.Errorf("Media table missing %q:\n%s", want, out)
		}
	}
}
