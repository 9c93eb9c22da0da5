package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.path == "" {
		t.Error("EventLogger path is empty")
	}

	// Verify file exists
	if _, err := os.Stat(logger.path); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.path)
	}

	// Verify filename format
	filename := filepath.Base(logger.path)
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	event := &Event{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Event:     EventStage,
		SessionID: "20240830_142500",
		Directory: "1042",
		IDNumber:  "1042",
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	// Verify event was written
	logger.Close()
	content, err := os.ReadFile(logger.path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if len(content) == 0 {
		t.Error("Log file is empty")
	}

	// Verify JSONL format
	var decoded Event
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Failed to decode JSONL: %v", err)
	}

	if decoded.SessionID != "20240830_142500" {
		t.Errorf("Expected session_id '20240830_142500', got '%s'", decoded.SessionID)
	}
	if decoded.Directory != "1042" {
		t.Errorf("Expected directory '1042', got '%s'", decoded.Directory)
	}
}

func TestEventLogger_MultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	events := []*Event{
		{Level: LevelInfo, Event: EventSession, SessionID: "20240830_142500"},
		{Level: LevelDebug, Event: EventStage, SessionID: "20240830_142500", Directory: "1042"},
		{Level: LevelWarning, Event: EventDuplicate, SessionID: "20240830_142500", IDNumber: "1042"},
		{Level: LevelError, Event: EventError, SrcPath: "/sessions/1043/1043.json", Error: "test error"},
	}

	for _, event := range events {
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	logger.Close()

	// Read and verify all events
	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", lineCount, err)
		}
	}

	if lineCount != len(events) {
		t.Errorf("Expected %d events, got %d lines", len(events), lineCount)
	}
}

func TestEventLogger_LevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()

	// Logger at info level should drop debug events
	logger, err := NewEventLogger(tmpDir, LevelInfo)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.LogItemStaged("20240830_142500", "1042", "1042"); err != nil {
		t.Fatalf("LogItemStaged failed: %v", err)
	}
	if err := logger.LogSessionCreated("20240830_142500", "/sessions/20240830_142500"); err != nil {
		t.Fatalf("LogSessionCreated failed: %v", err)
	}

	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line: %v", err)
		}
		if decoded.Event != EventSession {
			t.Errorf("Unexpected event type %s survived the filter", decoded.Event)
		}
	}

	if lineCount != 1 {
		t.Errorf("Expected 1 event after filtering, got %d", lineCount)
	}
}

func TestEventLogger_TypedHelpers(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogSessionCreated("20240830_142500", "/sessions/20240830_142500")
	logger.LogItemStaged("20240830_142500", "1042", "1042")
	logger.LogItemFlagged("20240830_142500", "1043", "quality_issue", "faded text")
	logger.LogDuplicate("20240830_142500", "1042", 2)
	logger.LogPromotion("20240830_142500", "1042", "1042", "rec-1")
	logger.LogCopy("/in/1042A.jpg", "/archive/1042A.jpg", 2048, 120*time.Millisecond, nil)
	logger.LogCSVImport("/uploads/items.csv", "rec-2", "Harbor chart")
	logger.LogError(EventStage, "/sessions/1044/1044.json", errors.New("malformed JSON"))

	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	seen := map[EventType]int{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line: %v", err)
		}
		seen[decoded.Event]++
	}

	wantTypes := []EventType{
		EventSession, EventStage, EventFlag, EventDuplicate,
		EventPromote, EventCopy, EventCSV, EventError,
	}
	for _, et := range wantTypes {
		if seen[et] != 1 {
			t.Errorf("Event type %s logged %d times, want 1", et, seen[et])
		}
	}
}

func TestEventLogger_NilSafety(t *testing.T) {
	logger := NullLogger()

	// All operations on a nil logger must be no-ops
	if err := logger.Log(&Event{Level: LevelInfo, Event: EventStage}); err != nil {
		t.Errorf("nil logger Log returned error: %v", err)
	}
	if err := logger.LogItemStaged("s", "d", "i"); err != nil {
		t.Errorf("nil logger LogItemStaged returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("nil logger Close returned error: %v", err)
	}
	if logger.Path() != "" {
		t.Error("nil logger Path should be empty")
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				logger.LogItemStaged("20240830_142500", "1042", "1042")
			}
		}()
	}
	wg.Wait()
	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v", lineCount, err)
		}
	}

	if lineCount != goroutines*perGoroutine {
		t.Errorf("Expected %d events, got %d", goroutines*perGoroutine, lineCount)
	}
}
