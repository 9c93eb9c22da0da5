package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

// csvColumnAliases maps lowercased spreadsheet headers to record
// fields. Donor spreadsheets never agree on naming, so each field
// accepts the variants seen in practice.
var csvColumnAliases = map[string]string{
	"title":       "title",
	"name":        "title",
	"item_name":   "title",
	"object_name": "title",

	"creator": "creator",
	"artist":  "creator",
	"author":  "creator",
	"maker":   "creator",

	"subject":  "subject",
	"topic":    "subject",
	"keywords": "subject",
	"tags":     "subject",

	"description": "description",
	"summary":     "description",

	"notes":           "notes",
	"comments":        "notes",
	"remarks":         "notes",
	"additional_info": "notes",

	"type":        "type",
	"category":    "type",
	"object_type": "type",

	"format": "format",
	"medium": "format",

	"identifier":     "identifier",
	"id":             "identifier",
	"object_id":      "identifier",
	"catalog_number": "identifier",

	"date_created": "date_created",
	"date":         "date_created",
	"year":         "date_created",
	"created":      "date_created",

	"publisher": "publisher",

	"source":     "source",
	"collection": "source",

	"rights":    "rights",
	"copyright": "rights",
	"license":   "rights",

	"contributor": "contributor",
	"donor":       "contributor",
}

// CSVImporter loads donor spreadsheets straight into the catalog,
// bypassing the staging pipeline.
type CSVImporter struct {
	store      *store.Store
	logger     *report.EventLogger
	collection string
}

// CSVConfig holds CSV importer configuration
type CSVConfig struct {
	Store *store.Store
	// Collection names the target collection; empty means
	// store.DefaultCollectionName.
	Collection string
	Logger     *report.EventLogger
}

// NewCSVImporter creates a new CSVImporter
func NewCSVImporter(cfg *CSVConfig) *CSVImporter {
	collection := cfg.Collection
	if collection == "" {
		collection = store.DefaultCollectionName
	}

	return &CSVImporter{
		store:      cfg.Store,
		logger:     cfg.Logger,
		collection: collection,
	}
}

// CSVResult represents a CSV import run
type CSVResult struct {
	File         string
	RowsRead     int
	RowsImported int
	RowsSkipped  int
	Errors       []error
}

// ImportFile reads a CSV file and inserts one catalog record per data
// row. Rows that map to no known column are skipped rather than
// imported empty; row-level failures are collected so one bad row does
// not abort the rest of the file.
func (imp *CSVImporter) ImportFile(path string) (*CSVResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	coll, err := imp.store.GetCollectionByName(imp.collection)
	if err != nil {
		return nil, fmt.Errorf("collection %q not found, run init first: %w", imp.collection, err)
	}

	result := &CSVResult{File: filepath.Base(path)}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	fieldFor := mapHeader(header)

	util.InfoLog("Importing %s into %s", result.File, coll.Name)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("row %d: %w", result.RowsRead+2, err))
			continue
		}
		result.RowsRead++

		fields := rowFields(row, fieldFor)
		if len(fields) == 0 {
			result.RowsSkipped++
			continue
		}

		rec := recordFromCSVRow(fields, coll.ID, result.File, result.RowsRead)
		if err := imp.store.InsertRecord(rec); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("row %d: %w", result.RowsRead+1, err))
			continue
		}

		imp.logger.LogCSVImport(result.File, rec.ID, rec.Title)
		result.RowsImported++
	}

	util.InfoLog("Imported %d of %d rows from %s", result.RowsImported, result.RowsRead, result.File)

	return result, nil
}

// mapHeader resolves each CSV column index to the record field its
// header aliases, skipping headers nothing maps to.
func mapHeader(header []string) map[int]string {
	fieldFor := make(map[int]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := csvColumnAliases[key]; ok {
			fieldFor[i] = field
		}
	}
	return fieldFor
}

// rowFields collects the mapped, non-empty cell values of one row.
// First alias wins when two columns map to the same field.
func rowFields(row []string, fieldFor map[int]string) map[string]string {
	fields := make(map[string]string)
	for i, cell := range row {
		field, ok := fieldFor[i]
		if !ok {
			continue
		}
		value := strings.TrimSpace(cell)
		if value == "" {
			continue
		}
		if _, exists := fields[field]; exists {
			continue
		}
		fields[field] = value
	}
	return fields
}

func recordFromCSVRow(fields map[string]string, collectionID, filename string, rowNum int) *store.Record {
	title := fields["title"]
	if title == "" {
		title = fmt.Sprintf("Item %d from %s", rowNum, filename)
	}

	// The catalog schema has no notes column: free-form notes are
	// folded into the description, the same way promotion folds
	// extraction notes in
	description := strings.TrimSpace(fields["description"] + " " + fields["notes"])

	return &store.Record{
		CollectionID: collectionID,
		Title:        title,
		Creator:      fields["creator"],
		Subject:      fields["subject"],
		Description:  description,
		Publisher:    fields["publisher"],
		Contributor:  fields["contributor"],
		DateCreated:  fields["date_created"],
		Type:         fields["type"],
		Format:       fields["format"],
		Identifier:   fields["identifier"],
		Source:       fields["source"],
		Rights:       fields["rights"],
		SearchableContent: store.BuildSearchable(
			title,
			fields["creator"],
			fields["subject"],
			fields["description"],
			fields["notes"],
		),
	}
}
