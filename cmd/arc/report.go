package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/util"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a Markdown report from the catalog and event logs",
	Long: `Generate a summary report in Markdown format.

The catalog-wide report covers record and media counts, per-collection
totals, session progress, the review queue, and the most common
pipeline errors. With --session the report covers a single scanning
session instead: its status, processing steps, staged items, and
anything flagged for review.

Reports are saved under artifacts/reports/<timestamp>/ unless --out
points somewhere else.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session", "s", "", "report on a single session instead of the whole catalog")
	reportCmd.Flags().String("out", "", "output directory (default: artifacts/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "path to an event log to reference from the report")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	eventLogPath, _ := cmd.Flags().GetString("event-log")

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join("artifacts", "reports", timestamp)
	}

	if sessionID != "" {
		util.InfoLog("=== Generating Session Report ===")
		util.InfoLog("Session: %s", sessionID)

		sessionReport, err := report.GenerateSessionReport(db, sessionID)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		sessionReport.DatabasePath = dbPath
		sessionReport.EventLogPath = eventLogPath

		outputPath := filepath.Join(outputDir, fmt.Sprintf("session-%s.md", sessionID))
		util.InfoLog("Writing report to: %s", outputPath)
		if err := report.WriteSessionMarkdown(sessionReport, outputPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		util.SuccessLog("Report generated successfully!")
		util.InfoLog("")
		util.InfoLog("Report saved to: %s", outputPath)
		util.InfoLog("")
		util.InfoLog("Summary:")
		util.InfoLog("  Status: %s", sessionReport.Session.Status)
		util.InfoLog("  Items staged: %d", sessionReport.ItemsStaged)
		if len(sessionReport.FlaggedItems) > 0 {
			util.WarnLog("  Flagged items: %d", len(sessionReport.FlaggedItems))
		}
		if sessionReport.RecordsCreated > 0 {
			util.InfoLog("  Catalog records: %d", sessionReport.RecordsCreated)
		}
		return nil
	}

	util.InfoLog("=== Generating Catalog Report ===")
	util.InfoLog("Database: %s", dbPath)

	util.InfoLog("Analyzing data...")
	summaryReport, err := report.GenerateSummaryReport(db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	summaryReport.DatabasePath = dbPath

	outputPath := filepath.Join(outputDir, "summary.md")
	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(summaryReport, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report generated successfully!")
	util.InfoLog("")
	util.InfoLog("Report saved to: %s", outputPath)
	util.InfoLog("")
	util.InfoLog("Summary:")
	util.InfoLog("  Records: %d", summaryReport.RecordCount)
	util.InfoLog("  Media files: %d (%s)", summaryReport.MediaCount, humanize.Bytes(uint64(summaryReport.MediaBytes)))
	util.InfoLog("  Sessions: %d", summaryReport.SessionsTotal)
	if summaryReport.SessionsReviewReady > 0 {
		util.WarnLog("  Awaiting review: %d", summaryReport.SessionsReviewReady)
	}
	if summaryReport.SessionsFailed > 0 {
		util.WarnLog("  Failed sessions: %d", summaryReport.SessionsFailed)
	}
	if len(summaryReport.TopErrors) > 0 {
		util.WarnLog("  Distinct errors: %d", len(summaryReport.TopErrors))
	}

	return nil
}
