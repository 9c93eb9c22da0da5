package ingest

import (
	"testing"

	"github.com/vhagen/archive-curator/internal/store"
)

func TestDetectFlags(t *testing.T) {
	tests := []struct {
		name     string
		e        *Extraction
		expected []store.Flag
	}{
		{
			name: "clean card",
			e: &Extraction{
				IDNumber: "1901.15",
				Metadata: ExtractionText{HandwrittenNotes: []string{"Gift of A. Lindqvist"}},
			},
			expected: nil,
		},
		{
			name: "faint handwriting",
			e: &Extraction{
				IDNumber: "1901.16",
				Metadata: ExtractionText{HandwrittenNotes: []string{"Faint text along the top margin"}},
			},
			expected: []store.Flag{store.FlagQualityIssue},
		},
		{
			name: "illegible in notes",
			e: &Extraction{
				IDNumber:        "1901.17",
				ExtractionNotes: "Lower half illegible due to water damage",
			},
			expected: []store.Flag{store.FlagQualityIssue},
		},
		{
			name: "blank card",
			e: &Extraction{
				IDNumber: "1901.18",
				Metadata: ExtractionText{OtherMarkings: []string{"Card is blank apart from the ID"}},
			},
			expected: []store.Flag{store.FlagNoText},
		},
		{
			name: "no other text phrasing",
			e: &Extraction{
				IDNumber:        "1901.19",
				ExtractionNotes: "No other text visible on this card",
			},
			expected: []store.Flag{store.FlagNoText},
		},
		{
			name: "extraction error",
			e: &Extraction{
				IDNumber: "1901.20",
				Error:    "vision API timeout",
			},
			expected: []store.Flag{store.FlagProcessingError},
		},
		{
			name: "parsing error sentinel",
			e: &Extraction{
				IDNumber: IDParsingError,
			},
			expected: []store.Flag{store.FlagProcessingError},
		},
		{
			name: "quality and no-text together",
			e: &Extraction{
				IDNumber:        "1901.21",
				ExtractionNotes: "Blank card, remaining marks unreadable",
			},
			expected: []store.Flag{store.FlagQualityIssue, store.FlagNoText},
		},
		{
			name: "case insensitive matching",
			e: &Extraction{
				IDNumber: "1901.22",
				Metadata: ExtractionText{HandwrittenNotes: []string{"DAMAGED along fold"}},
			},
			expected: []store.Flag{store.FlagQualityIssue},
		},
	}

	for _, tt := range tests {
		flags := DetectFlags(tt.e)
		if len(flags) != len(tt.expected) {
			t.Errorf("%s: got %v, expected %v", tt.name, flags, tt.expected)
			continue
		}
		for _, want := range tt.expected {
			if !flags.Has(want) {
				t.Errorf("%s: missing flag %s in %v", tt.name, want, flags)
			}
		}
	}
}

func TestDetectFlagsSingleFlagPerCategory(t *testing.T) {
	// Several quality phrases in one card still yield one quality flag
	e := &Extraction{
		IDNumber: "1930.2",
		Metadata: ExtractionText{
			HandwrittenNotes: []string{"faded text throughout", "worn at edges"},
			OtherMarkings:    []string{"scratched surface"},
		},
	}

	flags := DetectFlags(e)
	if len(flags) != 1 || !flags.Has(store.FlagQualityIssue) {
		t.Errorf("Expected exactly [quality_issue], got %v", flags)
	}
}
