package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and catalog",
	Long: `Run diagnostic checks to ensure arc can operate correctly.

This command checks:
- SQLite version and full-text search availability
- Catalog accessibility, integrity, and schema version
- Journal mode (WAL expected)
- Seeded collections and search index consistency
- Disk space availability
- Drop and archive directory permissions

Use this command to troubleshoot issues before running arc operations.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	// Doctor-specific flags
	doctorCmd.Flags().String("drop", "", "drop directory to check (optional)")
	doctorCmd.Flags().String("archive", "", "archive root to check (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Arc Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	// 1. SQLite engine and full-text search
	results = append(results, checkSQLite())
	results = append(results, checkFTS5())

	// 2. Catalog database
	dbPath := viper.GetString("db")
	results = append(results, checkCatalog(dbPath)...)

	// 3. Drop directory
	dropPath, _ := cmd.Flags().GetString("drop")
	if dropPath != "" {
		results = append(results, checkDropDirectory(dropPath))
	}

	// 4. Archive root
	archivePath, _ := cmd.Flags().GetString("archive")
	if archivePath != "" {
		results = append(results, checkArchiveDirectory(archivePath))
	}

	// 5. Disk space
	results = append(results, checkDiskSpace(filepath.Dir(dbPath), "catalog"))
	if archivePath != "" && archivePath != filepath.Dir(dbPath) {
		results = append(results, checkDiskSpace(archivePath, "archive"))
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running arc.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! System is ready for arc operations.")
	}

	return nil
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	// The driver is compiled in, so this only fails if the build is broken
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkFTS5 verifies the full-text search module is available
func checkFTS5() checkResult {
	if err := store.CheckFTS5(); err != nil {
		return checkResult{
			name:    "Full-text search",
			error:   true,
			message: fmt.Sprintf("FTS5 unavailable: %v", err),
		}
	}

	return checkResult{
		name:    "Full-text search",
		message: "FTS5 available",
	}
}

// checkCatalog verifies the catalog database end to end: file, open,
// integrity, schema, journal mode, seeded collections, search index
func checkCatalog(dbPath string) []checkResult {
	if dbPath == "" {
		return []checkResult{{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []checkResult{{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created by 'arc init')", dbPath),
			}}
		}
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}}
	}
	if !info.Mode().IsRegular() {
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}}
	}
	defer db.Close()

	results := []checkResult{}

	if err := db.CheckIntegrity(); err != nil {
		results = append(results, checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		})
	} else {
		records, _ := db.CountRecords()
		results = append(results, checkResult{
			name: "Database",
			message: fmt.Sprintf("%s (%s, %d records)",
				dbPath, humanize.Bytes(uint64(info.Size())), records),
		})
	}

	version, err := db.SchemaVersion()
	if err != nil {
		results = append(results, checkResult{
			name:    "Schema",
			error:   true,
			message: fmt.Sprintf("cannot read version: %v", err),
		})
	} else {
		results = append(results, checkResult{
			name:    "Schema",
			message: fmt.Sprintf("version %d", version),
		})
	}

	mode, err := db.JournalMode()
	switch {
	case err != nil:
		results = append(results, checkResult{
			name:    "Journal mode",
			warning: true,
			message: fmt.Sprintf("cannot determine: %v", err),
		})
	case !strings.EqualFold(mode, "wal"):
		results = append(results, checkResult{
			name:    "Journal mode",
			warning: true,
			message: fmt.Sprintf("%s (WAL recommended for concurrent access)", mode),
		})
	default:
		results = append(results, checkResult{
			name:    "Journal mode",
			message: mode,
		})
	}

	if _, err := db.GetCollectionByName(store.DefaultCollectionName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			results = append(results, checkResult{
				name:    "Collections",
				warning: true,
				message: "default collections not seeded (run 'arc init')",
			})
		} else {
			results = append(results, checkResult{
				name:    "Collections",
				error:   true,
				message: fmt.Sprintf("cannot read collections: %v", err),
			})
		}
	} else {
		collections, _ := db.ListCollections()
		results = append(results, checkResult{
			name:    "Collections",
			message: fmt.Sprintf("%d present", len(collections)),
		})
	}

	if err := db.CheckSearchIntegrity(); err != nil {
		results = append(results, checkResult{
			name:    "Search index",
			warning: true,
			message: fmt.Sprintf("%v (run 'arc init --rebuild-index')", err),
		})
	} else {
		results = append(results, checkResult{
			name:    "Search index",
			message: "consistent with catalog",
		})
	}

	return results
}

// checkDropDirectory verifies the drop directory is readable
func checkDropDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Drop directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Drop directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check read permission by trying to list the directory
	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{
			name:    "Drop directory",
			error:   true,
			message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	return checkResult{
		name:    "Drop directory",
		message: fmt.Sprintf("%s (%d entries)", path, len(entries)),
	}
}

// checkArchiveDirectory verifies the archive root is writable
func checkArchiveDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Try to create it
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Archive root",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Archive root",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check write permission by creating a temp file
	testFile := filepath.Join(path, ".arc_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Archive root",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	// Available bytes = available blocks * block size
	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	availGB := float64(availBytes) / (1024 * 1024 * 1024)
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	// Warn if less than 10GB available or >90% used
	warning := false
	warningMsg := ""
	if availGB < 10 {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (>90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%.1f GB available%s", availGB, warningMsg),
	}
}
