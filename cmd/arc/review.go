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

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect and correct staged items before promotion",
	Long: `Review the staged items of a session.

Without a subcommand, prints the session's staging table: directory,
extracted ID number, flags, and a preview of the handwritten notes.
Use the subcommands to inspect a single item, fix extraction mistakes,
or adjust review flags before 'arc promote'.`,
	RunE: runReviewList,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every extracted field of one staged item",
	RunE:  runReviewShow,
}

var reviewEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Correct an extracted field on a staged item",
	Long: `Overwrite one extracted field of a staged item.

Editable fields: id_number, handwritten_notes, printed_labels,
addresses, other_markings, extraction_notes.`,
	RunE: runReviewEdit,
}

var reviewFlagCmd = &cobra.Command{
	Use:   "flag",
	Short: "Add a review flag to a staged item",
	RunE:  runReviewFlag,
}

var reviewUnflagCmd = &cobra.Command{
	Use:   "unflag",
	Short: "Remove a review flag from a staged item",
	RunE:  runReviewUnflag,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewShowCmd, reviewEditCmd, reviewFlagCmd, reviewUnflagCmd)

	reviewCmd.Flags().StringP("session", "s", "", "session ID (required)")
	reviewCmd.Flags().Bool("flagged", false, "show only flagged items")

	reviewShowCmd.Flags().Int64("item", 0, "staging item ID (required)")

	reviewEditCmd.Flags().Int64("item", 0, "staging item ID (required)")
	reviewEditCmd.Flags().String("field", "", "field to edit (required)")
	reviewEditCmd.Flags().String("value", "", "new value")

	for _, c := range []*cobra.Command{reviewFlagCmd, reviewUnflagCmd} {
		c.Flags().Int64("item", 0, "staging item ID (required)")
		c.Flags().String("flag", "", "flag name (required)")
	}
}

// requireItem reads the --item flag shared by the review subcommands
func requireItem(cmd *cobra.Command) (int64, error) {
	itemID, _ := cmd.Flags().GetInt64("item")
	if itemID == 0 {
		return 0, fmt.Errorf("staging item ID is required (use --item)")
	}
	return itemID, nil
}

// knownFlags are the review flags the pipeline understands
var knownFlags = []store.Flag{
	store.FlagDuplicateID,
	store.FlagQualityIssue,
	store.FlagNoText,
	store.FlagProcessingError,
}

func parseReviewFlag(name string) (store.Flag, error) {
	for _, f := range knownFlags {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown flag %q (valid: %s, %s, %s, %s)", name,
		store.FlagDuplicateID, store.FlagQualityIssue, store.FlagNoText, store.FlagProcessingError)
}

func runReviewList(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		return fmt.Errorf("session ID is required (use --session/-s)")
	}
	flaggedOnly, _ := cmd.Flags().GetBool("flagged")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	session, err := db.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %s not found (see 'arc sessions list')", sessionID)
		}
		return err
	}

	var items []*store.StagingItem
	if flaggedOnly {
		items, err = db.ListFlaggedStagingBySession(sessionID)
	} else {
		items, err = db.ListStagingBySession(sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to list staged items: %w", err)
	}

	if len(items) == 0 {
		util.InfoLog("No staged items for session %s", sessionID)
		return nil
	}

	util.InfoLog("Session %s (%s): %d items, %d duplicates, %d quality issues",
		session.SessionID, session.Status, session.TotalItems,
		session.DuplicatesFound, session.QualityIssues)
	fmt.Println()
	review.ItemsTable(os.Stdout, items)
	fmt.Println()
	util.InfoLog("Inspect an item:  arc review show --item <id>")
	util.InfoLog("Fix a field:      arc review edit --item <id> --field <field> --value <text>")
	util.InfoLog("When done:        arc promote --session %s", sessionID)

	return nil
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	itemID, err := requireItem(cmd)
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	item, err := db.GetStagingItem(itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("staging item %d not found", itemID)
		}
		return err
	}

	review.ItemDetail(os.Stdout, item)
	return nil
}

func runReviewEdit(cmd *cobra.Command, args []string) error {
	itemID, err := requireItem(cmd)
	if err != nil {
		return err
	}
	field, _ := cmd.Flags().GetString("field")
	if field == "" {
		return fmt.Errorf("field name is required (use --field)")
	}
	value, _ := cmd.Flags().GetString("value")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.UpdateStagingFields(itemID, map[string]string{field: value})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("staging item %d not found", itemID)
		}
		return fmt.Errorf("failed to update item %d: %w", itemID, err)
	}

	util.SuccessLog("Updated %s on item %d", field, itemID)

	item, err := db.GetStagingItem(itemID)
	if err != nil {
		return err
	}
	review.ItemDetail(os.Stdout, item)
	return nil
}

func runReviewFlag(cmd *cobra.Command, args []string) error {
	itemID, err := requireItem(cmd)
	if err != nil {
		return err
	}
	flagName, _ := cmd.Flags().GetString("flag")

	flag, err := parseReviewFlag(flagName)
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AddStagingFlag(itemID, flag); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("staging item %d not found", itemID)
		}
		return fmt.Errorf("failed to flag item %d: %w", itemID, err)
	}

	util.SuccessLog("Flagged item %d as %s", itemID, flag)
	return nil
}

func runReviewUnflag(cmd *cobra.Command, args []string) error {
	itemID, err := requireItem(cmd)
	if err != nil {
		return err
	}
	flagName, _ := cmd.Flags().GetString("flag")

	flag, err := parseReviewFlag(flagName)
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	item, err := db.GetStagingItem(itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("staging item %d not found", itemID)
		}
		return err
	}

	if !item.Flags.Has(flag) {
		util.InfoLog("Item %d does not carry flag %s", itemID, flag)
		return nil
	}

	kept := make(store.FlagList, 0, len(item.Flags))
	for _, f := range item.Flags {
		if f != flag {
			kept = append(kept, f)
		}
	}

	if err := db.SetStagingFlags(itemID, kept); err != nil {
		return fmt.Errorf("failed to update flags on item %d: %w", itemID, err)
	}

	util.SuccessLog("Removed flag %s from item %d", flag, itemID)
	return nil
}
