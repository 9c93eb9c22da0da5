package store

import (
	"encoding/json"
	"fmt"
)

// Status tracks where a processing session sits in its lifecycle
type Status string

const (
	StatusCreated     Status = "created"
	StatusProcessing  Status = "processing"
	StatusReviewReady Status = "review_ready"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusImported    Status = "imported"
)

// Step names the stages a session's material moves through, from drop-off
// to catalog import
type Step string

const (
	StepWaitingUpload    Step = "waiting_upload"
	StepUpload           Step = "upload"
	StepScanFormatting   Step = "scan_formatting"
	StepClassifyRename   Step = "classify_rename"
	StepTextExtraction   Step = "text_extraction"
	StepGenerateTable    Step = "generate_table"
	StepDatabaseImport   Step = "database_import"
	StepAwaitingReview   Step = "awaiting_review"
	StepZipCreated       Step = "zip_created"
	StepProcessingFailed Step = "processing_failed"
)

// Flag marks a staged item for reviewer attention
type Flag string

const (
	FlagDuplicateID     Flag = "duplicate_id"
	FlagQualityIssue    Flag = "quality_issue"
	FlagNoText          Flag = "no_text"
	FlagProcessingError Flag = "processing_error"
)

// FlagList is the set of flags on a staged item, stored as a JSON array
type FlagList []Flag

// Has reports whether the list contains the given flag
func (fl FlagList) Has(flag Flag) bool {
	for _, f := range fl {
		if f == flag {
			return true
		}
	}
	return false
}

// Add returns the list with the flag appended, without duplicating it
func (fl FlagList) Add(flag Flag) FlagList {
	if fl.Has(flag) {
		return fl
	}
	return append(fl, flag)
}

func (fl FlagList) marshal() (string, error) {
	if fl == nil {
		fl = FlagList{}
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return "", fmt.Errorf("failed to marshal flags: %w", err)
	}
	return string(data), nil
}

func parseFlags(raw string) (FlagList, error) {
	if raw == "" {
		return FlagList{}, nil
	}
	var fl FlagList
	if err := json.Unmarshal([]byte(raw), &fl); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	return fl, nil
}

// StepList is the ordered record of completed steps, stored as a JSON array
type StepList []Step

func (sl StepList) marshal() (string, error) {
	if sl == nil {
		sl = StepList{}
	}
	data, err := json.Marshal(sl)
	if err != nil {
		return "", fmt.Errorf("failed to marshal steps: %w", err)
	}
	return string(data), nil
}

func parseSteps(raw string) (StepList, error) {
	if raw == "" {
		return StepList{}, nil
	}
	var sl StepList
	if err := json.Unmarshal([]byte(raw), &sl); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}
	return sl, nil
}

// Stats holds named counters for a session's stats column
type Stats map[string]int64

func (st Stats) marshal() (string, error) {
	if st == nil {
		st = Stats{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
	}
	return string(data), nil
}

func parseStats(raw string) (Stats, error) {
	if raw == "" {
		return Stats{}, nil
	}
	var st Stats
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	return st, nil
}

// Meta carries free-form record metadata as string key/value pairs,
// stored as a JSON object
type Meta map[string]string

// Well-known metadata keys written during promotion and media probing
const (
	MetaDirectory  = "directory"
	MetaModelUsed  = "model_used"
	MetaFlags      = "flags"
	MetaFrontImage = "front_image"
	MetaBackImage  = "back_image"
	MetaAudioTags  = "audio_tags"
)

func (m Meta) marshal() (string, error) {
	if m == nil {
		m = Meta{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

func parseMeta(raw string) (Meta, error) {
	if raw == "" {
		return Meta{}, nil
	}
	var m Meta
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return m, nil
}
