package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vhagen/archive-curator/internal/archive"
	"github.com/vhagen/archive-curator/internal/ingest"
	"github.com/vhagen/archive-curator/internal/util"
	"github.com/vhagen/archive-curator/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop directory and ingest sessions as they arrive",
	Long: `Watch a drop directory for new session directories.

A session counts as arrived once its contents have stopped changing
for the settle period and at least one extraction document is present,
so half-uploaded sessions are never ingested. Each settled session is
staged for review exactly once; with --copy-root the scans are first
copied into the managed archive tree, as in 'arc ingest'.

Runs until interrupted (Ctrl-C).`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("dir", "d", "", "drop directory to watch (required)")
	watchCmd.Flags().String("copy-root", "", "archive root to copy each session into before staging")
	watchCmd.Flags().Duration("settle", 30*time.Second, "quiet period before a session counts as fully uploaded")
	watchCmd.Flags().IntP("concurrency", "c", 0, "worker count per session (default 4)")
	watchCmd.Flags().String("verify", "size", "copy verification: none, size, hash")
	watchCmd.MarkFlagRequired("dir")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dropDir, _ := cmd.Flags().GetString("dir")
	copyRoot, _ := cmd.Flags().GetString("copy-root")
	settle, _ := cmd.Flags().GetDuration("settle")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	verifyMode, _ := cmd.Flags().GetString("verify")

	if _, err := os.Stat(dropDir); os.IsNotExist(err) {
		return fmt.Errorf("drop directory does not exist: %s", dropDir)
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	ingestor := ingest.New(&ingest.Config{
		Store:       db,
		Concurrency: concurrency,
		Logger:      logger,
	})

	handle := func(ctx context.Context, sessionDir string) error {
		if copyRoot != "" {
			copier := archive.New(&archive.Config{
				Concurrency: concurrency,
				VerifyMode:  verifyMode,
				Logger:      logger,
			})
			copyResult, err := copier.CopySession(ctx, sessionDir, copyRoot)
			if err != nil {
				return fmt.Errorf("archive copy failed: %w", err)
			}
			sessionDir = copyResult.DestDir
		}

		result, err := ingestor.Ingest(ctx, sessionDir, "")
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		util.SuccessLog("Session %s staged: %d items (%d flagged)",
			result.SessionID, result.ItemsStaged, result.ItemsFlagged)
		util.InfoLog("Next step: arc review --session %s", result.SessionID)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(&watch.Config{
		DropDir: dropDir,
		Settle:  settle,
		Logger:  logger,
	})
	return watcher.Run(ctx, handle)
}
