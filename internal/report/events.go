package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventSession   EventType = "session"
	EventStage     EventType = "stage"
	EventFlag      EventType = "flag"
	EventDuplicate EventType = "duplicate"
	EventPromote   EventType = "promote"
	EventCopy      EventType = "copy"
	EventCSV       EventType = "csv"
	EventWatch     EventType = "watch"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the cataloguing pipeline
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	Level        EventLevel        `json:"level"`
	Event        EventType         `json:"event"`
	SessionID    string            `json:"session_id,omitempty"`
	Directory    string            `json:"directory,omitempty"`
	IDNumber     string            `json:"id_number,omitempty"`
	RecordID     string            `json:"record_id,omitempty"`
	SrcPath      string            `json:"src_path,omitempty"`
	DestPath     string            `json:"dest_path,omitempty"`
	Flag         string            `json:"flag,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	BytesWritten int64             `json:"bytes_written,omitempty"`
	Duration     int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Open file for writing
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil // Skip events below minimum level
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogSessionCreated logs the registration of a processing session
func (l *EventLogger) LogSessionCreated(sessionID, sessionPath string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventSession,
		SessionID: sessionID,
		SrcPath:   sessionPath,
	})
}

// LogItemStaged logs an extracted item landing in the staging table
func (l *EventLogger) LogItemStaged(sessionID, directory, idNumber string) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventStage,
		SessionID: sessionID,
		Directory: directory,
		IDNumber:  idNumber,
	})
}

// LogItemFlagged logs a flag raised on a staged item
func (l *EventLogger) LogItemFlagged(sessionID, directory, flag, reason string) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventFlag,
		SessionID: sessionID,
		Directory: directory,
		Flag:      flag,
		Reason:    reason,
	})
}

// LogDuplicate logs an ID number shared by multiple items in a session
func (l *EventLogger) LogDuplicate(sessionID, idNumber string, memberCount int) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventDuplicate,
		SessionID: sessionID,
		IDNumber:  idNumber,
		Extra: map[string]string{
			"member_count": fmt.Sprintf("%d", memberCount),
		},
	})
}

// LogPromotion logs a staged item becoming a catalog record
func (l *EventLogger) LogPromotion(sessionID, directory, idNumber, recordID string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventPromote,
		SessionID: sessionID,
		Directory: directory,
		IDNumber:  idNumber,
		RecordID:  recordID,
	})
}

// LogCopy logs an archival copy of a scan into the archive root
func (l *EventLogger) LogCopy(srcPath, destPath string, bytesWritten int64, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:        level,
		Event:        EventCopy,
		SrcPath:      srcPath,
		DestPath:     destPath,
		BytesWritten: bytesWritten,
		Duration:     duration.Milliseconds(),
		Error:        errMsg,
	})
}

// LogCSVImport logs a record created from a spreadsheet row
func (l *EventLogger) LogCSVImport(srcPath, recordID, title string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventCSV,
		SrcPath:  srcPath,
		RecordID: recordID,
		Extra: map[string]string{
			"title": title,
		},
	})
}

// LogWatch logs the watch loop handing off a settled drop directory
func (l *EventLogger) LogWatch(dir, reason string) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventWatch,
		SrcPath: dir,
		Reason:  reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
