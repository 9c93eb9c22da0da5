package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vhagen/archive-curator/internal/ingest"
	"github.com/vhagen/archive-curator/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import catalog data from external files",
}

var importCSVCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Import Dublin Core records from a CSV spreadsheet",
	Long: `Import catalog records from a CSV file.

Column headers are matched case-insensitively against the Dublin Core
field names and their common spreadsheet aliases (e.g. "Date" and
"date_created" both land in the date field, "Notes" is folded into the
description). Rows missing a title get a placeholder derived from the
filename and row number. Bad rows are reported and skipped; the rest
of the file still imports.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCSV,
}

var importCSVCollection string

func init() {
	importCSVCmd.Flags().StringVar(&importCSVCollection, "collection", "", "target collection name (default: the main archive)")

	importCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	importer := ingest.NewCSVImporter(&ingest.CSVConfig{
		Store:      db,
		Collection: importCSVCollection,
		Logger:     logger,
	})

	result, err := importer.ImportFile(path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println()
	util.InfoLog("=== Import Summary ===")
	util.InfoLog("File:     %s", result.File)
	util.InfoLog("Rows:     %d read", result.RowsRead)
	util.SuccessLog("Imported: %d records", result.RowsImported)
	if result.RowsSkipped > 0 {
		util.WarnLog("Skipped:  %d empty rows", result.RowsSkipped)
	}

	if len(result.Errors) > 0 {
		util.WarnLog("Errors:   %d rows failed", len(result.Errors))
		for i, rowErr := range result.Errors {
			if i >= 10 {
				util.WarnLog("  ... and %d more errors", len(result.Errors)-10)
				break
			}
			util.WarnLog("  %v", rowErr)
		}
	}

	if result.RowsImported > 0 {
		fmt.Println()
		util.InfoLog("Next: browse the imports with 'arc records list' or 'arc search <query>'")
	}
	return nil
}
