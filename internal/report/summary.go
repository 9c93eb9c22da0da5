package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vhagen/archive-curator/internal/store"
)

// SummaryReport represents a complete catalog and pipeline summary
type SummaryReport struct {
	GeneratedAt time.Time

	// Catalog statistics
	RecordCount     int64
	MediaCount      int64
	MediaBytes      int64
	Collections     []CollectionStat
	ImportedRecords int64

	// Session statistics
	SessionsTotal       int
	SessionsProcessing  int
	SessionsReviewReady int
	SessionsImported    int
	SessionsFailed      int

	ItemsStaged     int64
	DuplicatesFound int64
	QualityIssues   int64

	// Details
	ReviewQueue []SessionQueueEntry
	TopErrors   []ErrorSummary

	// Metadata
	DatabasePath string
	ArchiveRoot  string
	EventLogPath string
}

// CollectionStat is a collection with its record count
type CollectionStat struct {
	Name    string
	Records int64
}

// SessionQueueEntry is a session waiting for review
type SessionQueueEntry struct {
	SessionID     string
	CreatedAt     time.Time
	Staged        int64
	Flagged       int64
	Duplicates    int64
	QualityIssues int64
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// GenerateSummaryReport creates a summary report from the catalog database
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		EventLogPath: eventLogPath,
		Collections:  make([]CollectionStat, 0),
		ReviewQueue:  make([]SessionQueueEntry, 0),
		TopErrors:    make([]ErrorSummary, 0),
	}

	// Gather catalog statistics
	report.RecordCount, _ = db.CountRecords()
	report.MediaCount, _ = db.CountMedia()
	report.MediaBytes, _ = db.TotalMediaBytes()

	collections, _ := db.ListCollectionsWithCounts()
	for _, c := range collections {
		report.Collections = append(report.Collections, CollectionStat{
			Name:    c.Name,
			Records: c.RecordCount,
		})
	}

	// Gather session statistics
	sessions, _ := db.ListSessions("")
	report.SessionsTotal = len(sessions)

	for _, sess := range sessions {
		report.ItemsStaged += sess.TotalItems
		report.DuplicatesFound += sess.DuplicatesFound
		report.QualityIssues += sess.QualityIssues

		switch sess.Status {
		case store.StatusProcessing, store.StatusCreated:
			report.SessionsProcessing++
		case store.StatusReviewReady:
			report.SessionsReviewReady++
		case store.StatusImported:
			report.SessionsImported++
			imported, _ := db.CountRecordsBySession(sess.SessionID)
			report.ImportedRecords += imported
		case store.StatusError:
			report.SessionsFailed++
		}

		if sess.Status == store.StatusReviewReady {
			staged, _ := db.CountStagingBySession(sess.SessionID)
			flagged, _ := db.ListFlaggedStagingBySession(sess.SessionID)

			report.ReviewQueue = append(report.ReviewQueue, SessionQueueEntry{
				SessionID:     sess.SessionID,
				CreatedAt:     sess.CreatedAt,
				Staged:        staged,
				Flagged:       int64(len(flagged)),
				Duplicates:    sess.DuplicatesFound,
				QualityIssues: sess.QualityIssues,
			})
		}
	}

	// Gather top errors from the step trackers (top 10)
	report.TopErrors = gatherTopErrors(db, 10)

	return report, nil
}

// gatherTopErrors retrieves the most common pipeline error messages
func gatherTopErrors(db *store.Store, limit int) []ErrorSummary {
	pipelines, _ := db.ListPipelines()

	errorCounts := make(map[string]int)
	for _, p := range pipelines {
		for _, line := range strings.Split(p.ErrorLog, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			// Each entry is "timestamp: message"
			if _, msg, found := strings.Cut(line, ": "); found {
				errorCounts[msg]++
			} else {
				errorCounts[line]++
			}
		}
	}

	// Convert to slice
	errors := make([]ErrorSummary, 0, len(errorCounts))
	for err, count := range errorCounts {
		errors = append(errors, ErrorSummary{
			Error: err,
			Count: count,
		})
	}

	// Sort by count (descending), ties by message for stable output
	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	// Limit results
	if len(errors) > limit {
		errors = errors[:limit]
	}

	return errors
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	// Create output directory
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate markdown content
	var md strings.Builder

	// Header
	md.WriteString("# Archive Curator - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.ArchiveRoot != "" {
		md.WriteString(fmt.Sprintf("**Archive Root:** `%s`\n\n", report.ArchiveRoot))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## 📊 Catalog\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Records | %d |\n", report.RecordCount))
	md.WriteString(fmt.Sprintf("| Media Files | %d |\n", report.MediaCount))
	md.WriteString(fmt.Sprintf("| Media Size | %s |\n", humanize.Bytes(uint64(report.MediaBytes))))
	if report.ImportedRecords > 0 {
		md.WriteString(fmt.Sprintf("| Records from Sessions | %d |\n", report.ImportedRecords))
	}
	md.WriteString("\n")

	// Collections
	if len(report.Collections) > 0 {
		md.WriteString("## 🗂 Collections\n\n")
		md.WriteString("| Collection | Records |\n")
		md.WriteString("|------------|---------|\n")
		for _, c := range report.Collections {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", c.Name, c.Records))
		}
		md.WriteString("\n")
	}

	// Sessions
	if report.SessionsTotal > 0 {
		md.WriteString("## 🔄 Processing Sessions\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Total Sessions | %d |\n", report.SessionsTotal))
		if report.SessionsProcessing > 0 {
			md.WriteString(fmt.Sprintf("| In Progress | %d |\n", report.SessionsProcessing))
		}
		md.WriteString(fmt.Sprintf("| Awaiting Review | %d |\n", report.SessionsReviewReady))
		md.WriteString(fmt.Sprintf("| Imported | %d |\n", report.SessionsImported))
		if report.SessionsFailed > 0 {
			md.WriteString(fmt.Sprintf("| Failed | %d |\n", report.SessionsFailed))
		}
		md.WriteString(fmt.Sprintf("| Items Staged | %d |\n", report.ItemsStaged))
		md.WriteString(fmt.Sprintf("| Duplicates Found | %d |\n", report.DuplicatesFound))
		md.WriteString(fmt.Sprintf("| Quality Issues | %d |\n", report.QualityIssues))
		md.WriteString("\n")
	}

	// Review queue
	if len(report.ReviewQueue) > 0 {
		md.WriteString("## 👀 Review Queue\n\n")
		md.WriteString("*Sessions staged and waiting for a reviewer*\n\n")
		md.WriteString("| Session | Created | Items | Flagged | Duplicates | Quality |\n")
		md.WriteString("|---------|---------|-------|---------|------------|--------|\n")
		for _, entry := range report.ReviewQueue {
			md.WriteString(fmt.Sprintf("| `%s` | %s | %d | %d | %d | %d |\n",
				entry.SessionID,
				entry.CreatedAt.Format("2006-01-02 15:04"),
				entry.Staged,
				entry.Flagged,
				entry.Duplicates,
				entry.QualityIssues))
		}
		md.WriteString("\n")
	}

	// Errors
	if len(report.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, err.Error))
		}
		md.WriteString("\n")
	}

	// Footer
	md.WriteString("---\n\n")
	md.WriteString("*Generated by [arc](https://github.com/vhagen/archive-curator) - Archive Curator*\n")

	// Write to file
	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
