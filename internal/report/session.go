package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vhagen/archive-curator/internal/store"
)

// SessionReport summarizes a single scanning session
type SessionReport struct {
	GeneratedAt time.Time

	Session *store.Session

	// Pipeline is nil when the session has no step tracker
	Pipeline *store.PipelineState

	ItemsStaged    int64
	FlaggedItems   []FlaggedItem
	RecordsCreated int64

	DatabasePath string
	EventLogPath string
}

// FlaggedItem is a staged item a reviewer should look at
type FlaggedItem struct {
	ID        int64
	IDNumber  string
	Directory string
	Flags     store.FlagList
}

// GenerateSessionReport creates a report for one session from the
// catalog database
func GenerateSessionReport(db *store.Store, sessionID string) (*SessionReport, error) {
	sess, err := db.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	report := &SessionReport{
		GeneratedAt:  time.Now(),
		Session:      sess,
		FlaggedItems: make([]FlaggedItem, 0),
	}

	// Sessions registered by older tooling may have no step tracker
	pipe, err := db.GetPipeline(sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	report.Pipeline = pipe

	report.ItemsStaged, _ = db.CountStagingBySession(sessionID)
	report.RecordsCreated, _ = db.CountRecordsBySession(sessionID)

	flagged, _ := db.ListFlaggedStagingBySession(sessionID)
	for _, item := range flagged {
		report.FlaggedItems = append(report.FlaggedItems, FlaggedItem{
			ID:        item.ID,
			IDNumber:  item.IDNumber,
			Directory: item.Directory,
			Flags:     item.Flags,
		})
	}

	return report, nil
}

// WriteSessionMarkdown writes the session report as Markdown
func WriteSessionMarkdown(report *SessionReport, outputPath string) error {
	// Create output directory
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sess := report.Session

	var md strings.Builder

	// Header
	md.WriteString(fmt.Sprintf("# Archive Curator - Session %s\n\n", sess.SessionID))
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Session overview
	md.WriteString("## 📋 Session\n\n")
	md.WriteString("| Field | Value |\n")
	md.WriteString("|-------|-------|\n")
	md.WriteString(fmt.Sprintf("| Status | %s |\n", sess.Status))
	md.WriteString(fmt.Sprintf("| Created | %s |\n", sess.CreatedAt.Format("2006-01-02 15:04:05")))
	if sess.UploadedFilename != "" {
		md.WriteString(fmt.Sprintf("| Uploaded As | `%s` |\n", sess.UploadedFilename))
	}
	if sess.SessionPath != "" {
		md.WriteString(fmt.Sprintf("| Session Path | `%s` |\n", sess.SessionPath))
	}
	md.WriteString(fmt.Sprintf("| Items | %d |\n", sess.TotalItems))
	md.WriteString(fmt.Sprintf("| Items Staged | %d |\n", report.ItemsStaged))
	if sess.DuplicatesFound > 0 {
		md.WriteString(fmt.Sprintf("| Duplicates Found | %d |\n", sess.DuplicatesFound))
	}
	if sess.QualityIssues > 0 {
		md.WriteString(fmt.Sprintf("| Quality Issues | %d |\n", sess.QualityIssues))
	}
	if sess.CompletedAt != nil {
		md.WriteString(fmt.Sprintf("| Completed | %s |\n", sess.CompletedAt.Format("2006-01-02 15:04:05")))
	}
	if sess.ImportedAt != nil {
		md.WriteString(fmt.Sprintf("| Imported | %s |\n", sess.ImportedAt.Format("2006-01-02 15:04:05")))
	}
	if report.RecordsCreated > 0 {
		md.WriteString(fmt.Sprintf("| Catalog Records | %d |\n", report.RecordsCreated))
	}
	md.WriteString("\n")

	// Pipeline progress
	if pipe := report.Pipeline; pipe != nil {
		md.WriteString("## 🔄 Processing Steps\n\n")
		if pipe.CurrentStep != "" {
			md.WriteString(fmt.Sprintf("**Current step:** %s\n\n", pipe.CurrentStep))
		}
		if len(pipe.StepsCompleted) > 0 {
			md.WriteString("| Step | Status |\n")
			md.WriteString("|------|--------|\n")
			for _, step := range pipe.StepsCompleted {
				md.WriteString(fmt.Sprintf("| %s | done |\n", step))
			}
			md.WriteString("\n")
		}
		if len(pipe.Stats) > 0 {
			md.WriteString("| Counter | Value |\n")
			md.WriteString("|---------|-------|\n")
			for _, key := range sortedStatKeys(pipe.Stats) {
				md.WriteString(fmt.Sprintf("| %s | %d |\n", key, pipe.Stats[key]))
			}
			md.WriteString("\n")
		}
		if pipe.ErrorLog != "" {
			md.WriteString("### Errors\n\n")
			for _, line := range strings.Split(strings.TrimSpace(pipe.ErrorLog), "\n") {
				md.WriteString(fmt.Sprintf("- %s\n", line))
			}
			md.WriteString("\n")
		}
	}

	// Flagged items
	if len(report.FlaggedItems) > 0 {
		md.WriteString("## 🚩 Flagged Items\n\n")
		md.WriteString("*Items a reviewer should look at before promotion*\n\n")
		md.WriteString("| Item | ID Number | Directory | Flags |\n")
		md.WriteString("|------|-----------|-----------|-------|\n")
		for _, item := range report.FlaggedItems {
			md.WriteString(fmt.Sprintf("| %d | %s | `%s` | %s |\n",
				item.ID,
				item.IDNumber,
				item.Directory,
				strings.Join(flagNames(item.Flags), ", ")))
		}
		md.WriteString("\n")
	}

	// Footer
	md.WriteString("---\n\n")
	md.WriteString("*Generated by [arc](https://github.com/vhagen/archive-curator) - Archive Curator*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func flagNames(flags store.FlagList) []string {
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, string(f))
	}
	return names
}

func sortedStatKeys(stats store.Stats) []string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
