package ingest

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/vhagen/archive-curator/internal/store"
)

// NormalizeIDNumber canonicalizes an ID number for duplicate comparison.
// Transcribed IDs arrive with full-width digits and stray whitespace, so
// compatibility folding runs before the case fold.
func NormalizeIDNumber(id string) string {
	id = norm.NFKC.String(id)
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.Join(strings.Fields(id), " ")
}

// countableID reports whether an ID number participates in duplicate
// detection. Empty IDs and the extraction-failure sentinels are shared
// by unrelated items, so they never count.
func countableID(id string) bool {
	switch NormalizeIDNumber(id) {
	case "", IDNotFound, IDParsingError:
		return false
	}
	return true
}

// DuplicateGroup is a set of staged items sharing one ID number
type DuplicateGroup struct {
	IDNumber string
	Items    []*store.StagingItem
}

// FindDuplicateGroups groups staged items by normalized ID number and
// returns the groups with more than one member, ordered by ID
func FindDuplicateGroups(items []*store.StagingItem) []DuplicateGroup {
	byID := make(map[string][]*store.StagingItem)
	for _, item := range items {
		if !countableID(item.IDNumber) {
			continue
		}
		key := NormalizeIDNumber(item.IDNumber)
		byID[key] = append(byID[key], item)
	}

	var groups []DuplicateGroup
	for id, members := range byID {
		if len(members) > 1 {
			groups = append(groups, DuplicateGroup{IDNumber: id, Items: members})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].IDNumber < groups[j].IDNumber
	})

	return groups
}
