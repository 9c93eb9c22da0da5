package promote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vhagen/archive-curator/internal/media"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

// Promoter imports a reviewed session's staged items into the catalog.
// The whole import is one transaction: either every item becomes a
// record with its scans attached, or nothing changes.
type Promoter struct {
	store          *store.Store
	logger         *report.EventLogger
	includeFlagged bool
	dryRun         bool
}

// Config holds promoter configuration
type Config struct {
	Store  *store.Store
	Logger *report.EventLogger
	// IncludeFlagged also promotes items carrying a duplicate_id flag.
	// By default those stay behind for the reviewer to resolve.
	IncludeFlagged bool
	DryRun         bool
}

// New creates a new Promoter
func New(cfg *Config) *Promoter {
	return &Promoter{
		store:          cfg.Store,
		logger:         cfg.Logger,
		includeFlagged: cfg.IncludeFlagged,
		dryRun:         cfg.DryRun,
	}
}

// Result represents a promotion run
type Result struct {
	SessionID         string
	CollectionID      string
	Imported          int
	SkippedDuplicates int
	MediaAttached     int
}

type promoted struct {
	directory string
	idNumber  string
	recordID  string
}

// Promote imports every staged item of a session into collectionName
// (the default collection when empty). A session already imported is
// refused with ErrAlreadyImported; staged items are retained afterwards
// as the audit trail of what the reviewer saw.
func (p *Promoter) Promote(ctx context.Context, sessionID, collectionName string) (*Result, error) {
	if collectionName == "" {
		collectionName = store.DefaultCollectionName
	}

	sess, err := p.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ImportedAt != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, store.ErrAlreadyImported)
	}

	coll, err := p.store.GetCollectionByName(collectionName)
	if err != nil {
		return nil, fmt.Errorf("collection %q not found, run init first: %w", collectionName, err)
	}

	items, err := p.store.ListStagingBySession(sessionID)
	if err != nil {
		return nil, err
	}

	util.InfoLog("=== Promoting session %s into %s ===", sessionID, coll.Name)

	result := &Result{
		SessionID:    sessionID,
		CollectionID: coll.ID,
	}

	if p.dryRun {
		for _, item := range items {
			if p.skipItem(item) {
				result.SkippedDuplicates++
				continue
			}
			rec := RecordFromStaging(item, coll.ID)
			util.InfoLog("DRY-RUN: would import %s as %q", item.Directory, rec.Title)
			result.Imported++
		}
		return result, nil
	}

	var done []promoted
	importedAt := time.Now().UTC()

	err = p.store.Transaction(func(tx *sql.Tx) error {
		// Claim the session first: the stamp only lands while
		// imported_at is still NULL, so a concurrent promotion loses
		// here and rolls back before inserting anything
		if err := p.store.MarkSessionImportedTx(tx, sessionID); err != nil {
			return err
		}

		for _, item := range items {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if p.skipItem(item) {
				util.DebugLog("Skipping %s: unresolved duplicate flag", item.Directory)
				result.SkippedDuplicates++
				continue
			}

			rec := RecordFromStaging(item, coll.ID)
			rec.ImportedAt = &importedAt
			if err := p.store.InsertRecordTx(tx, rec); err != nil {
				return fmt.Errorf("failed to import %s: %w", item.Directory, err)
			}

			attached, err := p.attachScans(tx, rec.ID, item)
			if err != nil {
				return fmt.Errorf("failed to attach scans for %s: %w", item.Directory, err)
			}
			result.MediaAttached += attached

			done = append(done, promoted{
				directory: item.Directory,
				idNumber:  item.IDNumber,
				recordID:  rec.ID,
			})
			result.Imported++
		}

		return nil
	})
	if err != nil {
		result.Imported = 0
		result.SkippedDuplicates = 0
		result.MediaAttached = 0
		return result, err
	}

	// Events only after the transaction is real
	for _, d := range done {
		p.logger.LogPromotion(sessionID, d.directory, d.idNumber, d.recordID)
	}

	if err := p.store.AdvancePipeline(sessionID, store.StepDatabaseImport); err != nil {
		util.WarnLog("Failed to advance pipeline step: %v", err)
	}
	if err := p.store.SetPipelineStatus(sessionID, store.StatusImported); err != nil {
		util.WarnLog("Failed to update step tracker status: %v", err)
	}
	if err := p.store.MergePipelineStats(sessionID, store.Stats{
		"records_imported": int64(result.Imported),
		"media_attached":   int64(result.MediaAttached),
	}); err != nil {
		util.WarnLog("Failed to record step tracker stats: %v", err)
	}

	util.SuccessLog("Imported %d items from session %s (%d scans attached, %d duplicates left in staging)",
		result.Imported, sessionID, result.MediaAttached, result.SkippedDuplicates)

	return result, nil
}

// skipItem reports whether promotion leaves the item in staging
func (p *Promoter) skipItem(item *store.StagingItem) bool {
	return !p.includeFlagged && item.Flags.Has(store.FlagDuplicateID)
}

// attachScans attaches the item's front and back scans to the record.
// A scan whose file has gone missing is skipped with a warning rather
// than failing the import.
func (p *Promoter) attachScans(tx *sql.Tx, recordID string, item *store.StagingItem) (int, error) {
	attached := 0

	for _, scan := range []struct {
		path     string
		fileType string
	}{
		{item.FrontImagePath, "front_image"},
		{item.BackImagePath, "back_image"},
	} {
		if scan.path == "" {
			continue
		}

		info, err := media.ProbeFile(scan.path)
		if err != nil {
			util.WarnLog("Scan missing for %s (%s): %v", item.Directory, scan.fileType, err)
			continue
		}

		err = p.store.AttachMediaTx(tx, &store.MediaFile{
			RecordID: recordID,
			FilePath: scan.path,
			FileType: scan.fileType,
			FileSize: info.Size,
			MimeType: info.MimeType,
		})
		if err != nil {
			return attached, err
		}
		attached++
	}

	return attached, nil
}
