package ingest

import (
	"strings"

	"github.com/vhagen/archive-curator/internal/store"
)

// qualityPhrases are the wordings the extraction stage uses when a card
// was hard to read. Any of them flags the item for review.
var qualityPhrases = []string{
	"faint text",
	"faded text",
	"unclear text",
	"blurry text",
	"not able to read",
	"cannot read",
	"unreadable",
	"illegible",
	"partially visible",
	"hard to read",
	"difficult to read",
	"poor quality",
	"damaged",
	"worn",
	"scratched",
}

// noTextPhrases mark cards the extraction stage found nothing on
var noTextPhrases = []string{
	"no text",
	"no other text",
	"blank",
	"empty",
	"nothing visible",
	"no content",
}

// DetectFlags scans an extraction's text for phrases that need reviewer
// attention. Duplicate detection happens separately, once the whole
// session is staged.
func DetectFlags(e *Extraction) store.FlagList {
	flags := store.FlagList{}

	if e.Error != "" || e.IDNumber == IDParsingError {
		flags = flags.Add(store.FlagProcessingError)
	}

	text := strings.ToLower(e.AllText())
	for _, phrase := range qualityPhrases {
		if strings.Contains(text, phrase) {
			flags = flags.Add(store.FlagQualityIssue)
			break
		}
	}
	for _, phrase := range noTextPhrases {
		if strings.Contains(text, phrase) {
			flags = flags.Add(store.FlagNoText)
			break
		}
	}

	return flags
}
