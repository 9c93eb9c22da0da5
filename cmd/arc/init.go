package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/util"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the catalog database and seed the default collections",
	Long: `Initialize the catalog database.

Creates the database file if missing, applies any pending schema
migrations, and seeds the three standard collections (Museum Archive,
Library, Test Collection). Safe to run repeatedly: migrations and seeds
are idempotent.

With --rebuild-index the full-text search index is discarded and
rebuilt from the catalog, which repairs a drifted index.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("rebuild-index", false, "discard and rebuild the full-text search index")
}

func runInit(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")

	util.InfoLog("Initializing catalog: %s", dbPath)

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SeedCollections(); err != nil {
		return fmt.Errorf("failed to seed collections: %w", err)
	}

	if rebuild, _ := cmd.Flags().GetBool("rebuild-index"); rebuild {
		util.InfoLog("Rebuilding full-text search index...")
		if err := db.RebuildSearchIndex(); err != nil {
			return fmt.Errorf("failed to rebuild search index: %w", err)
		}
		util.SuccessLog("Search index rebuilt")
	}

	version, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	collections, err := db.ListCollections()
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	util.SuccessLog("Catalog ready at schema version %d", version)
	util.InfoLog("Collections:")
	for _, c := range collections {
		util.InfoLog("  %s", c.Name)
	}
	util.InfoLog("")
	util.InfoLog("Next step: arc ingest --dir <session-dir>")

	return nil
}
