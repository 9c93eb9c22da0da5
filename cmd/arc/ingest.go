package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/archive"
	"github.com/vhagen/archive-curator/internal/ingest"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Register a processed session directory and stage its items for review",
	Long: `Ingest a scanning session into the staging area.

The session directory is expected to hold one subdirectory per card,
each containing the front/back scans and the extraction JSON produced
by the scanning workflow. Ingest walks the directory, parses every
extraction document, derives review flags (duplicate IDs, quality
issues, missing text), and stages the items for 'arc review'.

With --copy-root the scans are first copied into the managed archive
tree (atomic, verified, resumable); staged items then reference the
archived copies instead of the drop directory.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("dir", "d", "", "session directory to ingest (required)")
	ingestCmd.Flags().String("session", "", "session ID (default: directory name if session-shaped, else a new timestamp)")
	ingestCmd.Flags().IntP("concurrency", "c", 0, "worker count (default 4, auto-tuned on network storage)")
	ingestCmd.Flags().Bool("nas-mode", false, "force network-storage tuning on or off (default: auto-detect)")
	ingestCmd.Flags().String("copy-root", "", "archive root to copy the session into before staging")
	ingestCmd.Flags().String("verify", "size", "copy verification: none, size, hash")
	ingestCmd.Flags().Bool("hardlink", false, "hardlink instead of copying when source and archive share a filesystem")
	ingestCmd.MarkFlagRequired("dir")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sessionDir, _ := cmd.Flags().GetString("dir")
	sessionID, _ := cmd.Flags().GetString("session")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	copyRoot, _ := cmd.Flags().GetString("copy-root")
	verifyMode, _ := cmd.Flags().GetString("verify")
	hardlink, _ := cmd.Flags().GetBool("hardlink")

	if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
		return fmt.Errorf("session directory does not exist: %s", sessionDir)
	}

	// Auto-tune workers and retries when the session tree sits on a NAS.
	// An explicit --nas-mode overrides detection either way.
	var nasMode *bool
	if cmd.Flags().Changed("nas-mode") {
		v, _ := cmd.Flags().GetBool("nas-mode")
		nasMode = &v
	}
	tuned, err := util.AutoTuneForPath(sessionDir, nasMode, concurrency)
	if err != nil {
		return fmt.Errorf("failed to inspect session directory: %w", err)
	}

	dbPath := viper.GetString("db")
	util.InfoLog("Opening database: %s", dbPath)

	// The database itself may live on network storage too
	dbNetworkOptimized := false
	if dbInfo, err := util.DetectNetworkFilesystem(dbPath); err == nil && dbInfo.IsNetwork {
		dbNetworkOptimized = true
		util.InfoLog("Database on network storage (%s) - applying optimizations", dbInfo.Protocol)
	}

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{
		NetworkOptimized: dbNetworkOptimized,
	})
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	var retryConfig *util.RetryConfig
	if tuned.IsNASMode {
		retryConfig = util.NASRetryConfig()
	}

	// Phase 1 (optional): copy scans into the managed archive tree
	if copyRoot != "" {
		util.InfoLog("=== Phase 1: Archiving scans ===")
		util.InfoLog("Source: %s", sessionDir)
		util.InfoLog("Archive root: %s", copyRoot)

		copier := archive.New(&archive.Config{
			Concurrency: tuned.Concurrency,
			VerifyMode:  verifyMode,
			BufferSize:  tuned.BufferSize,
			RetryConfig: retryConfig,
			Hardlink:    hardlink,
			Logger:      logger,
		})

		copyStart := time.Now()
		copyResult, err := copier.CopySession(ctx, sessionDir, copyRoot)
		if err != nil {
			return fmt.Errorf("archive copy failed: %w", err)
		}

		util.SuccessLog("Archive copy complete in %v", time.Since(copyStart).Round(time.Millisecond))
		util.InfoLog("  Files copied: %d", copyResult.FilesCopied)
		util.InfoLog("  Files skipped: %d", copyResult.FilesSkipped)
		if copyResult.FilesFailed > 0 {
			util.WarnLog("  Files failed: %d", copyResult.FilesFailed)
		}

		// Stage from the archived copy so the catalog references
		// paths that will outlive the drop directory
		sessionDir = copyResult.DestDir
	}

	// Phase 2: stage items
	util.InfoLog("=== Staging items ===")
	util.InfoLog("Session directory: %s", sessionDir)
	util.InfoLog("Concurrency: %d", tuned.Concurrency)

	ingestor := ingest.New(&ingest.Config{
		Store:       db,
		Concurrency: tuned.Concurrency,
		Logger:      logger,
	})

	startTime := time.Now()
	result, err := ingestor.Ingest(ctx, sessionDir, sessionID)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	duration := time.Since(startTime)

	// Summary
	util.InfoLog("")
	util.SuccessLog("=== Ingest Summary ===")
	util.InfoLog("Session: %s", result.SessionID)
	util.InfoLog("Total time: %v", duration.Round(time.Millisecond))
	util.InfoLog("  Items staged: %d", result.ItemsStaged)
	util.InfoLog("  Items flagged: %d", result.ItemsFlagged)
	if result.Duplicates > 0 {
		util.WarnLog("  Duplicate IDs: %d", result.Duplicates)
	}
	if result.QualityIssues > 0 {
		util.WarnLog("  Quality issues: %d", result.QualityIssues)
	}
	if len(result.Errors) > 0 {
		util.WarnLog("Errors encountered:")
		for i, err := range result.Errors {
			if i >= 10 {
				util.WarnLog("... and %d more errors", len(result.Errors)-10)
				break
			}
			util.WarnLog("  - %v", err)
		}
	}

	util.InfoLog("")
	util.InfoLog("Next step: arc review --session %s", result.SessionID)

	return nil
}
