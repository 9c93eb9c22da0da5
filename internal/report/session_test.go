package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vhagen/archive-curator/internal/store"
)

func TestGenerateSessionReport(t *testing.T) {
	s := openTestStore(t)

	const sessionID = "20240830_142500"
	if _, err := s.CreateSession(sessionID, "batch.zip", "/sessions/"+sessionID); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if _, err := s.CreatePipeline(sessionID); err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	if err := s.AdvancePipeline(sessionID, store.StepUpload); err != nil {
		t.Fatalf("failed to advance pipeline: %v", err)
	}
	if err := s.IncrementSessionCounters(sessionID, 3, 0, 1); err != nil {
		t.Fatalf("failed to increment counters: %v", err)
	}
	if err := s.InsertStagingItems([]*store.StagingItem{
		{SessionID: sessionID, Directory: "1042", IDNumber: "1042"},
		{SessionID: sessionID, Directory: "1043", IDNumber: "1043"},
		{SessionID: sessionID, Directory: "1044", IDNumber: "1044",
			Flags: store.FlagList{store.FlagQualityIssue}},
	}); err != nil {
		t.Fatalf("failed to insert staging items: %v", err)
	}

	report, err := GenerateSessionReport(s, sessionID)
	if err != nil {
		t.Fatalf("GenerateSessionReport failed: %v", err)
	}

	if report.Session.SessionID != sessionID {
		t.Errorf("session = %s, want %s", report.Session.SessionID, sessionID)
	}
	if report.Pipeline == nil {
		t.Fatal("expected a pipeline in the report")
	}
	if report.Pipeline.CurrentStep != store.StepUpload {
		t.Errorf("current step = %s, want %s", report.Pipeline.CurrentStep, store.StepUpload)
	}
	if report.ItemsStaged != 3 {
		t.Errorf("ItemsStaged = %d, want 3", report.ItemsStaged)
	}
	if len(report.FlaggedItems) != 1 {
		t.Fatalf("FlaggedItems = %d, want 1", len(report.FlaggedItems))
	}
	flagged := report.FlaggedItems[0]
	if flagged.IDNumber != "1044" {
		t.Errorf("flagged item = %s, want 1044", flagged.IDNumber)
	}
	if !flagged.Flags.Has(store.FlagQualityIssue) {
		t.Errorf("flagged item missing quality flag: %v", flagged.Flags)
	}
}

func TestGenerateSessionReportWithoutPipeline(t *testing.T) {
	s := openTestStore(t)

	// Sessions registered by older tooling have no step tracker
	if _, err := s.CreateSession("20240830_150000", "", ""); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	report, err := GenerateSessionReport(s, "20240830_150000")
	if err != nil {
		t.Fatalf("GenerateSessionReport failed: %v", err)
	}
	if report.Pipeline != nil {
		t.Errorf("expected nil pipeline, got %+v", report.Pipeline)
	}
}

func TestGenerateSessionReportUnknownSession(t *testing.T) {
	s := openTestStore(t)

	_, err := GenerateSessionReport(s, "20991231_235959")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteSessionMarkdown(t *testing.T) {
	s := openTestStore(t)

	const sessionID = "20240830_142500"
	if _, err := s.CreateSession(sessionID, "batch.zip", "/sessions/"+sessionID); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if _, err := s.CreatePipeline(sessionID); err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	if err := s.RecordPipelineError(sessionID, "back scan unreadable"); err != nil {
		t.Fatalf("failed to record error: %v", err)
	}
	if err := s.InsertStagingItems([]*store.StagingItem{
		{SessionID: sessionID, Directory: "1042", IDNumber: "1042",
			Flags: store.FlagList{store.FlagDuplicateID}},
	}); err != nil {
		t.Fatalf("failed to insert staging items: %v", err)
	}

	report, err := GenerateSessionReport(s, sessionID)
	if err != nil {
		t.Fatalf("GenerateSessionReport failed: %v", err)
	}
	report.DatabasePath = "/data/catalog.db"

	outputPath := filepath.Join(t.TempDir(), "reports", "session.md")
	if err := WriteSessionMarkdown(report, outputPath); err != nil {
		t.Fatalf("WriteSessionMarkdown failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	text := string(content)

	wantSections := []string{
		"# Archive Curator - Session " + sessionID,
		"/data/catalog.db",
		"## 📋 Session",
		"## 🚩 Flagged Items",
		"duplicate_id",
		"back scan unreadable",
	}
	for _, want := range wantSections {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
