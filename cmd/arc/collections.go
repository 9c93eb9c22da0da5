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

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage the collections records are grouped into",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections with their record counts",
	RunE:  runCollectionsList,
}

var collectionsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a collection and its most recent records",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsShow,
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsCreate,
}

var collectionsUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Rename a collection or change its description and visibility",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsUpdate,
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and every record in it",
	Long: `Delete a collection.

This cascades: every record in the collection and their media
references go with it. The files on disk are not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollectionsDelete,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.AddCommand(collectionsListCmd, collectionsShowCmd,
		collectionsCreateCmd, collectionsUpdateCmd, collectionsDeleteCmd)

	collectionsShowCmd.Flags().IntP("limit", "l", 20, "records to show")
	collectionsCreateCmd.Flags().String("description", "", "collection description")
	collectionsCreateCmd.Flags().Bool("private", false, "mark the collection non-public")
	collectionsUpdateCmd.Flags().String("rename", "", "new collection name")
	collectionsUpdateCmd.Flags().String("description", "", "new description")
	collectionsUpdateCmd.Flags().Bool("public", false, "make the collection public")
	collectionsUpdateCmd.Flags().Bool("private", false, "make the collection non-public")
	collectionsUpdateCmd.MarkFlagsMutuallyExclusive("public", "private")
}

func runCollectionsList(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	collections, err := db.ListCollectionsWithCounts()
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if len(collections) == 0 {
		util.InfoLog("No collections yet. Run 'arc init' to seed the defaults.")
		return nil
	}

	review.CollectionsTable(os.Stdout, collections)
	return nil
}

func runCollectionsShow(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.GetCollectionByName(args[0])
	if errors.Is(err, store.ErrNotFound) {
		// Allow lookup by ID as well, for copy-paste from other output
		c, err = db.GetCollection(args[0])
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("collection %q not found", args[0])
		}
		return err
	}

	records, err := db.FindRecords(store.RecordQuery{CollectionID: c.ID, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	fmt.Printf("Collection: %s\n", c.Name)
	if c.Description != "" {
		fmt.Printf("Description: %s\n", c.Description)
	}
	fmt.Printf("ID: %s\n", c.ID)
	fmt.Printf("Public: %v\n", c.IsPublic)
	fmt.Println()

	if len(records) == 0 {
		util.InfoLog("No records in this collection")
		return nil
	}

	enriched := make([]*store.RecordWithCollection, 0, len(records))
	for _, r := range records {
		enriched = append(enriched, &store.RecordWithCollection{
			Record:         *r,
			CollectionName: c.Name,
		})
	}
	review.RecordsTable(os.Stdout, enriched)
	fmt.Println()
	util.InfoLog("Showing up to %d most recent records", limit)

	return nil
}

func runCollectionsCreate(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	private, _ := cmd.Flags().GetBool("private")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.CreateCollection(args[0], description, !private)
	if err != nil {
		if errors.Is(err, store.ErrUniqueConstraint) {
			return fmt.Errorf("collection %q already exists", args[0])
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	util.SuccessLog("Created collection %q (%s)", c.Name, c.ID)
	return nil
}

func runCollectionsUpdate(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.GetCollectionByName(args[0])
	if errors.Is(err, store.ErrNotFound) {
		c, err = db.GetCollection(args[0])
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("collection %q not found", args[0])
		}
		return err
	}

	name := c.Name
	if cmd.Flags().Changed("rename") {
		name, _ = cmd.Flags().GetString("rename")
	}
	description := c.Description
	if cmd.Flags().Changed("description") {
		description, _ = cmd.Flags().GetString("description")
	}
	isPublic := c.IsPublic
	if cmd.Flags().Changed("public") {
		isPublic = true
	}
	if cmd.Flags().Changed("private") {
		isPublic = false
	}

	if name == c.Name && description == c.Description && isPublic == c.IsPublic {
		return fmt.Errorf("nothing to update: pass --rename, --description, --public or --private")
	}

	if err := db.UpdateCollection(c.ID, name, description, isPublic); err != nil {
		if errors.Is(err, store.ErrUniqueConstraint) {
			return fmt.Errorf("collection %q already exists", name)
		}
		return fmt.Errorf("failed to update collection: %w", err)
	}

	util.SuccessLog("Updated collection %q", name)
	return nil
}

func runCollectionsDelete(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.GetCollectionByName(args[0])
	if errors.Is(err, store.ErrNotFound) {
		c, err = db.GetCollection(args[0])
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("collection %q not found", args[0])
		}
		return err
	}

	records, err := db.FindRecords(store.RecordQuery{CollectionID: c.ID})
	if err != nil {
		return err
	}

	if err := db.DeleteCollection(c.ID); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	util.SuccessLog("Deleted collection %q and %d record(s)", c.Name, len(records))
	return nil
}
