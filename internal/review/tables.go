package review

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/vhagen/archive-curator/internal/store"
)

// Column caps keep the review table on one screen; extraction text is
// previewed, not reproduced.
const (
	previewWidth = 48
	titleWidth   = 60
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// preview truncates s for a table cell, accounting for multi-byte
// characters
func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

func flagCell(flags store.FlagList) string {
	if len(flags) == 0 {
		return "-"
	}
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

// ItemsTable renders staged items for review
func ItemsTable(w io.Writer, items []*store.StagingItem) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Directory", "ID Number", "Flags", "Handwritten Notes"})

	for _, item := range items {
		t.AppendRow(table.Row{
			item.ID,
			item.Directory,
			item.IDNumber,
			flagCell(item.Flags),
			preview(item.HandwrittenNotes, previewWidth),
		})
	}

	t.Render()
}

// ItemDetail renders one staged item in full
func ItemDetail(w io.Writer, item *store.StagingItem) {
	fmt.Fprintf(w, "Item #%d (session %s)\n", item.ID, item.SessionID)
	fmt.Fprintf(w, "  Directory:         %s\n", item.Directory)
	fmt.Fprintf(w, "  ID number:         %s\n", item.IDNumber)
	fmt.Fprintf(w, "  Flags:             %s\n", flagCell(item.Flags))
	fmt.Fprintf(w, "  Front scan:        %s\n", orDash(item.FrontImagePath))
	fmt.Fprintf(w, "  Back scan:         %s\n", orDash(item.BackImagePath))
	fmt.Fprintf(w, "  Handwritten notes: %s\n", orDash(item.HandwrittenNotes))
	fmt.Fprintf(w, "  Printed labels:    %s\n", orDash(item.PrintedLabels))
	fmt.Fprintf(w, "  Addresses:         %s\n", orDash(item.Addresses))
	fmt.Fprintf(w, "  Other markings:    %s\n", orDash(item.OtherMarkings))
	fmt.Fprintf(w, "  Extraction notes:  %s\n", orDash(item.ExtractionNotes))
	fmt.Fprintf(w, "  Model:             %s\n", orDash(item.ModelUsed))
	fmt.Fprintf(w, "  Processed at:      %s\n", orDash(item.ProcessedAt))
	fmt.Fprintf(w, "  Staged:            %s\n", humanize.Time(item.CreatedAt))
}

// SessionsTable renders processing sessions with humanized ages
func SessionsTable(w io.Writer, sessions []*store.Session) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Session", "Status", "Items", "Duplicates", "Quality", "Created", "Imported"})

	for _, s := range sessions {
		imported := "-"
		if s.ImportedAt != nil {
			imported = humanize.Time(*s.ImportedAt)
		}
		t.AppendRow(table.Row{
			s.SessionID,
			string(s.Status),
			s.TotalItems,
			s.DuplicatesFound,
			s.QualityIssues,
			humanize.Time(s.CreatedAt),
			imported,
		})
	}

	t.Render()
}

// SessionDetail renders one session plus its step tracker state
func SessionDetail(w io.Writer, s *store.Session, pipe *store.PipelineState) {
	fmt.Fprintf(w, "Session %s\n", s.SessionID)
	fmt.Fprintf(w, "  Status:       %s\n", s.Status)
	fmt.Fprintf(w, "  Uploaded:     %s\n", orDash(s.UploadedFilename))
	fmt.Fprintf(w, "  Path:         %s\n", orDash(s.SessionPath))
	fmt.Fprintf(w, "  Items:        %d (%d duplicates, %d quality issues)\n",
		s.TotalItems, s.DuplicatesFound, s.QualityIssues)
	fmt.Fprintf(w, "  Created:      %s\n", humanize.Time(s.CreatedAt))
	if s.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed:    %s\n", humanize.Time(*s.CompletedAt))
	}
	if s.ImportedAt != nil {
		fmt.Fprintf(w, "  Imported:     %s\n", humanize.Time(*s.ImportedAt))
	}

	if pipe == nil {
		return
	}

	fmt.Fprintf(w, "  Current step: %s\n", orDash(string(pipe.CurrentStep)))
	if len(pipe.StepsCompleted) > 0 {
		names := make([]string, len(pipe.StepsCompleted))
		for i, step := range pipe.StepsCompleted {
			names[i] = string(step)
		}
		fmt.Fprintf(w, "  Steps done:   %s\n", strings.Join(names, " → "))
	}
	if pipe.ErrorLog != "" {
		fmt.Fprintf(w, "  Errors:\n")
		for _, line := range strings.Split(strings.TrimSpace(pipe.ErrorLog), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// RecordsTable renders catalog records with their collection names
func RecordsTable(w io.Writer, records []*store.RecordWithCollection) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Identifier", "Type", "Collection", "Created"})

	for _, r := range records {
		t.AppendRow(table.Row{
			shortID(r.ID),
			preview(r.Title, titleWidth),
			r.Identifier,
			orDash(r.Type),
			orDash(r.CollectionName),
			humanize.Time(r.CreatedAt),
		})
	}

	t.Render()
}

// RecordDetail renders one catalog record in full
func RecordDetail(w io.Writer, r *store.Record, mediaFiles []*store.MediaFile) {
	fmt.Fprintf(w, "Record %s\n", r.ID)
	fmt.Fprintf(w, "  Title:        %s\n", r.Title)
	fmt.Fprintf(w, "  Creator:      %s\n", orDash(r.Creator))
	fmt.Fprintf(w, "  Subject:      %s\n", orDash(r.Subject))
	fmt.Fprintf(w, "  Description:  %s\n", orDash(r.Description))
	fmt.Fprintf(w, "  Publisher:    %s\n", orDash(r.Publisher))
	fmt.Fprintf(w, "  Contributor:  %s\n", orDash(r.Contributor))
	fmt.Fprintf(w, "  Date created: %s\n", orDash(r.DateCreated))
	fmt.Fprintf(w, "  Type:         %s\n", orDash(r.Type))
	fmt.Fprintf(w, "  Format:       %s\n", orDash(r.Format))
	fmt.Fprintf(w, "  Identifier:   %s\n", orDash(r.Identifier))
	fmt.Fprintf(w, "  Source:       %s\n", orDash(r.Source))
	fmt.Fprintf(w, "  Language:     %s\n", orDash(r.Language))
	fmt.Fprintf(w, "  Relation:     %s\n", orDash(r.Relation))
	fmt.Fprintf(w, "  Coverage:     %s\n", orDash(r.Coverage))
	fmt.Fprintf(w, "  Rights:       %s\n", orDash(r.Rights))
	if r.SessionID != "" {
		fmt.Fprintf(w, "  Session:      %s\n", r.SessionID)
	}
	if r.ImportedAt != nil {
		fmt.Fprintf(w, "  Imported:     %s\n", humanize.Time(*r.ImportedAt))
	}
	if len(r.Metadata) > 0 {
		fmt.Fprintf(w, "  Metadata:\n")
		for _, k := range sortedKeys(r.Metadata) {
			fmt.Fprintf(w, "    %s: %s\n", k, r.Metadata[k])
		}
	}
	if len(mediaFiles) > 0 {
		fmt.Fprintf(w, "  Media:\n")
		for _, m := range mediaFiles {
			fmt.Fprintf(w, "    [%s] %s (%s, %s)\n",
				m.FileType, m.FilePath, m.MimeType, humanize.Bytes(uint64(m.FileSize)))
		}
	}
}

// SearchTable renders full-text hits, best first
func SearchTable(w io.Writer, results []*store.SearchResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Collection", "Match"})

	for _, hit := range results {
		t.AppendRow(table.Row{
			shortID(hit.Record.ID),
			preview(hit.Record.Title, titleWidth),
			orDash(hit.CollectionName),
			preview(hit.Snippet, previewWidth),
		})
	}

	t.Render()
}

// CollectionsTable renders collections with their record counts
func CollectionsTable(w io.Writer, collections []*store.CollectionWithCount) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Records", "Public", "Description"})

	for _, c := range collections {
		t.AppendRow(table.Row{
			shortID(c.ID),
			c.Name,
			c.RecordCount,
			c.IsPublic,
			preview(c.Description, previewWidth),
		})
	}

	t.Render()
}

// MediaTable renders the files attached to a record
func MediaTable(w io.Writer, files []*store.MediaFile) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Type", "Path", "MIME", "Size"})

	for _, m := range files {
		t.AppendRow(table.Row{
			shortID(m.ID),
			orDash(m.FileType),
			m.FilePath,
			orDash(m.MimeType),
			humanize.Bytes(uint64(m.FileSize)),
		})
	}

	t.Render()
}

// shortID abbreviates a UUID for table display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m store.Meta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
