package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vhagen/archive-curator/internal/review"
	"github.com/vhagen/archive-curator/internal/util"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the catalog",
	Long: `Search catalog records by relevance.

The query runs over titles, descriptions, and the combined searchable
content of every record, best match first. Punctuation in the query is
safe: terms are matched literally, not as search syntax.

Examples:
  arc search "spinning wheel"
  arc search Hallström --collection "Museum Archive"
  arc search 1957.042 --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("collection", "", "limit results to one collection")
	searchCmd.Flags().IntP("limit", "l", 20, "maximum results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	collectionName, _ := cmd.Flags().GetString("collection")
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	collectionID := ""
	if collectionName != "" {
		c, err := resolveCollection(db, collectionName)
		if err != nil {
			return err
		}
		collectionID = c.ID
	}

	results, err := db.SearchRecords(query, collectionID, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		util.InfoLog("No matches for %q", query)
		return nil
	}

	util.InfoLog("%d matches for %q", len(results), query)
	fmt.Println()
	review.SearchTable(os.Stdout, results)
	fmt.Println()
	util.InfoLog("Show a record: arc records show <id>")

	return nil
}
