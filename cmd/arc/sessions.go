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

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Track scanning sessions through the pipeline",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's counters, step history, and catalog output",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)

	sessionsListCmd.Flags().String("status", "", "filter by status (created, processing, review_ready, imported, error)")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	statusFilter, _ := cmd.Flags().GetString("status")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ListSessions(store.Status(statusFilter))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		if statusFilter != "" {
			util.InfoLog("No sessions with status %s", statusFilter)
		} else {
			util.InfoLog("No sessions yet. Run 'arc ingest --dir <session-dir>' to register one.")
		}
		return nil
	}

	review.SessionsTable(os.Stdout, sessions)
	fmt.Println()
	util.InfoLog("Details: arc sessions show <session-id>")

	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := db.GetSession(args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		return err
	}

	// The step tracker may be missing for sessions registered by
	// older tooling; the detail view renders without it
	pipe, err := db.GetPipeline(session.SessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	review.SessionDetail(os.Stdout, session, pipe)

	staged, _ := db.CountStagingBySession(session.SessionID)
	imported, _ := db.CountRecordsBySession(session.SessionID)
	fmt.Println()
	util.InfoLog("Staged items: %d", staged)
	util.InfoLog("Catalog records from this session: %d", imported)

	if session.Status == store.StatusReviewReady {
		util.InfoLog("")
		util.InfoLog("Next step: arc review --session %s", session.SessionID)
	}

	return nil
}
