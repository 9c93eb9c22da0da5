package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vhagen/archive-curator/internal/review"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Work with Dublin Core catalog records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, with exact-match and prefix filters",
	Long: `List catalog records, newest first.

Without filters, prints the join-enriched listing (records with their
collection names). Filter flags narrow by exact field value; --prefix
matches the start of the identifier, so 'arc records list --prefix
1957.' finds every accession of 1957.`,
	RunE: runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show one record with its metadata and attached media",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsShow,
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a catalog record by hand",
	RunE:  runRecordsCreate,
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <record-id>",
	Short: "Update fields on a record",
	Long: `Update one or more fields of a catalog record.

Only the given flags change; everything else stays. The searchable
content and full-text index follow the update automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordsUpdate,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete a record and its attached media references",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsDelete,
}

// dcFieldFlags maps record flag names onto their database columns, shared
// by create and update
var dcFieldFlags = []struct {
	flag   string
	column string
	usage  string
}{
	{"title", "title", "record title"},
	{"creator", "creator", "creator or maker"},
	{"subject", "subject", "subject keywords"},
	{"description", "description", "free-text description"},
	{"publisher", "publisher", "publisher"},
	{"contributor", "contributor", "contributor or donor"},
	{"date", "date_created", "creation date"},
	{"type", "type", "object type (photograph, document, ...)"},
	{"format", "format", "physical format or medium"},
	{"identifier", "identifier", "accession or catalog number"},
	{"source", "source", "provenance source"},
	{"language", "language", "language code"},
	{"relation", "relation", "related resources"},
	{"coverage", "coverage", "spatial or temporal coverage"},
	{"rights", "rights", "rights statement"},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsCreateCmd,
		recordsUpdateCmd, recordsDeleteCmd)

	recordsListCmd.Flags().String("title", "", "exact title match")
	recordsListCmd.Flags().String("creator", "", "exact creator match")
	recordsListCmd.Flags().String("subject", "", "exact subject match")
	recordsListCmd.Flags().String("identifier", "", "exact identifier match")
	recordsListCmd.Flags().String("type", "", "exact type match")
	recordsListCmd.Flags().String("date", "", "exact creation date match")
	recordsListCmd.Flags().String("collection", "", "collection name")
	recordsListCmd.Flags().String("prefix", "", "identifier prefix match")
	recordsListCmd.Flags().IntP("limit", "l", 50, "maximum results")
	recordsListCmd.Flags().Int("offset", 0, "skip this many results (unfiltered listing only)")

	for _, f := range dcFieldFlags {
		recordsCreateCmd.Flags().String(f.flag, "", f.usage)
		recordsUpdateCmd.Flags().String(f.flag, "", f.usage)
	}
	recordsCreateCmd.Flags().String("collection", "", "collection name (record is uncollected if omitted)")
	recordsCreateCmd.MarkFlagRequired("title")
	recordsUpdateCmd.Flags().String("collection", "", "move the record to this collection")
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	q := store.RecordQuery{Limit: limit}
	q.Title, _ = cmd.Flags().GetString("title")
	q.Creator, _ = cmd.Flags().GetString("creator")
	q.Subject, _ = cmd.Flags().GetString("subject")
	q.Identifier, _ = cmd.Flags().GetString("identifier")
	q.Type, _ = cmd.Flags().GetString("type")
	q.DateCreated, _ = cmd.Flags().GetString("date")
	q.IdentifierPrefix, _ = cmd.Flags().GetString("prefix")

	collectionName, _ := cmd.Flags().GetString("collection")
	if collectionName != "" {
		c, err := resolveCollection(db, collectionName)
		if err != nil {
			return err
		}
		q.CollectionID = c.ID
	}

	filtered := q.Title != "" || q.Creator != "" || q.Subject != "" ||
		q.Identifier != "" || q.Type != "" || q.DateCreated != "" ||
		q.IdentifierPrefix != "" || q.CollectionID != ""

	var records []*store.RecordWithCollection
	if filtered {
		found, err := db.FindRecords(q)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		records, err = withCollectionNames(db, found)
		if err != nil {
			return err
		}
	} else {
		records, err = db.ListRecordsWithCollection(limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
	}

	if len(records) == 0 {
		util.InfoLog("No records found")
		return nil
	}

	total, _ := db.CountRecords()
	review.RecordsTable(os.Stdout, records)
	fmt.Println()
	util.InfoLog("Showing %d of %d records", len(records), total)

	return nil
}

// withCollectionNames joins filtered records with their collection names
// without issuing a query per record
func withCollectionNames(db *store.Store, records []*store.Record) ([]*store.RecordWithCollection, error) {
	collections, err := db.ListCollections()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	names := make(map[string]string, len(collections))
	for _, c := range collections {
		names[c.ID] = c.Name
	}

	out := make([]*store.RecordWithCollection, 0, len(records))
	for _, r := range records {
		out = append(out, &store.RecordWithCollection{
			Record:         *r,
			CollectionName: names[r.CollectionID],
		})
	}
	return out, nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.GetRecord(args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("record %s not found", args[0])
		}
		return err
	}

	mediaFiles, err := db.ListMediaByRecord(r.ID)
	if err != nil {
		return fmt.Errorf("failed to list media: %w", err)
	}

	review.RecordDetail(os.Stdout, r, mediaFiles)
	return nil
}

func runRecordsCreate(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	r := &store.Record{}
	fields := map[string]*string{
		"title":       &r.Title,
		"creator":     &r.Creator,
		"subject":     &r.Subject,
		"description": &r.Description,
		"publisher":   &r.Publisher,
		"contributor": &r.Contributor,
		"date":        &r.DateCreated,
		"type":        &r.Type,
		"format":      &r.Format,
		"identifier":  &r.Identifier,
		"source":      &r.Source,
		"language":    &r.Language,
		"relation":    &r.Relation,
		"coverage":    &r.Coverage,
		"rights":      &r.Rights,
	}
	for flag, dest := range fields {
		*dest, _ = cmd.Flags().GetString(flag)
	}

	collectionName, _ := cmd.Flags().GetString("collection")
	if collectionName != "" {
		c, err := resolveCollection(db, collectionName)
		if err != nil {
			return err
		}
		r.CollectionID = c.ID
	}

	if err := db.InsertRecord(r); err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	util.SuccessLog("Created record %s", r.ID)
	util.InfoLog("Attach scans or recordings: arc media attach %s <file>", r.ID)

	return nil
}

func runRecordsUpdate(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	updates := make(map[string]string)
	for _, f := range dcFieldFlags {
		if cmd.Flags().Changed(f.flag) {
			value, _ := cmd.Flags().GetString(f.flag)
			updates[f.column] = value
		}
	}
	if cmd.Flags().Changed("collection") {
		collectionName, _ := cmd.Flags().GetString("collection")
		c, err := resolveCollection(db, collectionName)
		if err != nil {
			return err
		}
		updates["collection_id"] = c.ID
	}

	if len(updates) == 0 {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	if err := db.UpdateRecordFields(args[0], updates); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("record %s not found", args[0])
		}
		return fmt.Errorf("failed to update record: %w", err)
	}

	util.SuccessLog("Updated %d field(s) on record %s", len(updates), args[0])
	return nil
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteRecord(args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("record %s not found", args[0])
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	util.SuccessLog("Deleted record %s (attached media references removed)", args[0])
	return nil
}
