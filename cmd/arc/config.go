package main

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

// openCatalog opens the catalog database named by the db flag/config.
// Migrations run on open, so a fresh path comes back at the current
// schema version.
func openCatalog() (*store.Store, error) {
	dbPath := viper.GetString("db")

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return db, nil
}

// newEventLogger creates the JSONL event logger under artifacts/, filtered
// to match the verbose/quiet flags. Logging never blocks a command: on
// failure a null logger is returned and a warning printed.
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}

// resolveCollection looks a collection up by name, defaulting to the
// main archive collection when name is empty.
func resolveCollection(db *store.Store, name string) (*store.Collection, error) {
	if name == "" {
		name = store.DefaultCollectionName
	}

	c, err := db.GetCollectionByName(name)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w (run 'arc init' to seed the defaults)", name, err)
	}
	return c, nil
}
