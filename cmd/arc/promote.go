package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/promote"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Import a reviewed session's staged items into the catalog",
	Long: `Promote a session from staging into the catalog.

Every staged item becomes a Dublin Core record with its front and back
scans attached as media files. The import is a single transaction: it
either lands completely or not at all, and a session that was already
imported is refused. Items flagged duplicate_id stay behind unless
--include-flagged is given; staged rows are retained afterwards as the
audit trail of what the reviewer saw.`,
	RunE: runPromote,
}

func init() {
	rootCmd.AddCommand(promoteCmd)

	promoteCmd.Flags().StringP("session", "s", "", "session ID (required)")
	promoteCmd.Flags().String("collection", "", "target collection name (default \""+store.DefaultCollectionName+"\")")
	promoteCmd.Flags().Bool("include-flagged", false, "also promote items flagged duplicate_id")
	promoteCmd.Flags().Bool("dry-run", false, "report what would be imported without writing")

	viper.BindPFlag("include-flagged", promoteCmd.Flags().Lookup("include-flagged"))
}

func runPromote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		return fmt.Errorf("session ID is required (use --session/-s)")
	}
	collectionName, _ := cmd.Flags().GetString("collection")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	includeFlagged := util.IncludeFlagged()

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	promoter := promote.New(&promote.Config{
		Store:          db,
		Logger:         logger,
		IncludeFlagged: includeFlagged,
		DryRun:         dryRun,
	})

	startTime := time.Now()
	result, err := promoter.Promote(ctx, sessionID, collectionName)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyImported) {
			return fmt.Errorf("session %s was already imported; re-running promotion never duplicates records", sessionID)
		}
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %s not found (see 'arc sessions list')", sessionID)
		}
		return fmt.Errorf("promotion failed: %w", err)
	}

	util.InfoLog("")
	if dryRun {
		util.SuccessLog("=== Promotion (dry run) ===")
	} else {
		util.SuccessLog("=== Promotion Summary ===")
	}
	util.InfoLog("Session: %s", result.SessionID)
	util.InfoLog("Total time: %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Records imported: %d", result.Imported)
	util.InfoLog("  Media attached: %d", result.MediaAttached)
	if result.SkippedDuplicates > 0 {
		util.WarnLog("  Skipped (duplicate_id): %d", result.SkippedDuplicates)
		if !includeFlagged && !dryRun {
			util.InfoLog("Re-run with --include-flagged to import them anyway")
		}
	}
	if dryRun {
		util.InfoLog("")
		util.InfoLog("Nothing was written. Run again without --dry-run to import.")
	}

	return nil
}
