package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vhagen/archive-curator/internal/util"
)

// DefaultModel is recorded for items whose extraction output does not
// name the model that produced it
const DefaultModel = "gpt-4o"

// Sentinel ID numbers written by the extraction stage when it could not
// read an ID off the card
const (
	IDNotFound     = "not_found"
	IDParsingError = "parsing_error"
)

// Extraction is the JSON document the text-extraction stage leaves in
// each item directory
type Extraction struct {
	IDNumber        string          `json:"id_number"`
	Metadata        ExtractionText  `json:"metadata"`
	ExtractionNotes string          `json:"extraction_notes"`
	ProcessingInfo  *ProcessingInfo `json:"processing_info,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// ExtractionText holds the transcribed text regions of a card
type ExtractionText struct {
	HandwrittenNotes []string `json:"handwritten_notes"`
	PrintedLabels    []string `json:"printed_labels"`
	Addresses        []string `json:"addresses"`
	OtherMarkings    []string `json:"other_markings"`
}

// ProcessingInfo records when and by what the card was transcribed
type ProcessingInfo struct {
	ProcessedAt string `json:"processed_at"`
	ModelUsed   string `json:"model_used"`
}

// ParseExtraction decodes an extraction document
func ParseExtraction(data []byte) (*Extraction, error) {
	var e Extraction
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse extraction (%v): %w", err, util.ErrCorrupt)
	}
	return &e, nil
}

// ReadExtractionFile reads and decodes the extraction document at path
func ReadExtractionFile(path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction file: %w", err)
	}
	return ParseExtraction(data)
}

// ProcessedAt returns the extraction timestamp, if recorded
func (e *Extraction) ProcessedAt() string {
	if e.ProcessingInfo == nil {
		return ""
	}
	return e.ProcessingInfo.ProcessedAt
}

// Model returns the model that produced the extraction, falling back to
// the default when the document does not say
func (e *Extraction) Model() string {
	if e.ProcessingInfo == nil || e.ProcessingInfo.ModelUsed == "" {
		return DefaultModel
	}
	return e.ProcessingInfo.ModelUsed
}

// joinText flattens a transcribed text region into a single column value
func joinText(parts []string) string {
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// AllText returns every transcribed fragment plus the extraction notes,
// for phrase scanning
func (e *Extraction) AllText() string {
	var parts []string
	parts = append(parts, e.Metadata.HandwrittenNotes...)
	parts = append(parts, e.Metadata.PrintedLabels...)
	parts = append(parts, e.Metadata.Addresses...)
	parts = append(parts, e.Metadata.OtherMarkings...)
	if e.ExtractionNotes != "" {
		parts = append(parts, e.ExtractionNotes)
	}
	return strings.Join(parts, " ")
}
