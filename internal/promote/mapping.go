package promote

import (
	"fmt"
	"strings"

	"github.com/vhagen/archive-curator/internal/store"
)

// RecordFromStaging maps one staged item onto the catalog record it
// becomes on import. The extraction text regions land in the Dublin
// Core fields a card reviewer would expect: printed labels as subject,
// addresses as coverage, other markings as source.
func RecordFromStaging(item *store.StagingItem, collectionID string) *store.Record {
	title := fmt.Sprintf("Item %s - ID: %s", item.Directory, item.IDNumber)
	description := strings.TrimSpace(item.HandwrittenNotes + " " + item.ExtractionNotes)

	meta := store.Meta{}
	if item.Directory != "" {
		meta[store.MetaDirectory] = item.Directory
	}
	if item.ModelUsed != "" {
		meta[store.MetaModelUsed] = item.ModelUsed
	}
	if len(item.Flags) > 0 {
		names := make([]string, len(item.Flags))
		for i, f := range item.Flags {
			names[i] = string(f)
		}
		meta[store.MetaFlags] = strings.Join(names, ",")
	}
	if item.FrontImagePath != "" {
		meta[store.MetaFrontImage] = item.FrontImagePath
	}
	if item.BackImagePath != "" {
		meta[store.MetaBackImage] = item.BackImagePath
	}
	if len(meta) == 0 {
		meta = nil
	}

	return &store.Record{
		CollectionID: collectionID,
		Title:        title,
		Description:  description,
		Subject:      item.PrintedLabels,
		Coverage:     item.Addresses,
		Source:       item.OtherMarkings,
		Identifier:   item.IDNumber,
		SessionID:    item.SessionID,
		SearchableContent: store.BuildSearchable(
			title,
			description,
			item.PrintedLabels,
			item.Addresses,
			item.OtherMarkings,
		),
		Metadata: meta,
	}
}
