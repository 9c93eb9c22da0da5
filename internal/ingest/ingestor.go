package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/store"
	"github.com/vhagen/archive-curator/internal/util"
)

// Ingestor stages a session directory's extracted items for review
type Ingestor struct {
	store       *store.Store
	concurrency int
	logger      *report.EventLogger
}

// Config holds ingestor configuration
type Config struct {
	Store       *store.Store
	Concurrency int
	Logger      *report.EventLogger
}

// New creates a new Ingestor
func New(cfg *Config) *Ingestor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Ingestor{
		store:       cfg.Store,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents an ingest run
type Result struct {
	SessionID     string
	ItemsStaged   int
	ItemsFlagged  int
	Duplicates    int
	QualityIssues int
	Errors        []error
}

// Ingest registers a session and stages every extracted item found under
// sessionDir. The directory is expected to hold one subdirectory per
// card, each with its extraction JSON and A/B scans. Re-ingesting a
// session that was staged but never imported replaces its staged items;
// an imported session is refused.
func (ing *Ingestor) Ingest(ctx context.Context, sessionDir, sessionID string) (*Result, error) {
	if sessionID == "" {
		// A directory already named like a session keeps its ID
		if base := filepath.Base(sessionDir); IsSessionID(base) {
			sessionID = base
		} else {
			sessionID = NewSessionID()
		}
	}

	util.InfoLog("=== Registering session %s ===", sessionID)
	util.InfoLog("Session directory: %s", sessionDir)

	info, err := os.Stat(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat session directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", sessionDir)
	}

	if _, err := ing.store.CreateSession(sessionID, filepath.Base(sessionDir), sessionDir); err != nil {
		if !errors.Is(err, store.ErrUniqueConstraint) {
			return nil, err
		}
		sess, err := ing.store.GetSession(sessionID)
		if err != nil {
			return nil, err
		}
		if sess.ImportedAt != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, store.ErrAlreadyImported)
		}
		removed, err := ing.store.DeleteStagingBySession(sessionID)
		if err != nil {
			return nil, err
		}
		if err := ing.store.ResetSessionCounters(sessionID); err != nil {
			return nil, err
		}
		// Re-ingesting may stage from a different directory, such as
		// the archived copy of the original drop; the session follows
		if sess.SessionPath != sessionDir {
			if err := ing.store.SetSessionPath(sessionID, sessionDir); err != nil {
				return nil, err
			}
			if err := ing.store.SetSessionUploadedFilename(sessionID, filepath.Base(sessionDir)); err != nil {
				return nil, err
			}
		}
		util.WarnLog("Session %s was already staged, replacing %d items", sessionID, removed)
	}
	if _, err := ing.store.CreatePipeline(sessionID); err != nil {
		return nil, err
	}
	ing.logger.LogSessionCreated(sessionID, sessionDir)

	if err := ing.store.SetSessionStatus(sessionID, store.StatusProcessing); err != nil {
		return nil, err
	}
	if err := ing.store.AdvancePipeline(sessionID, store.StepUpload); err != nil {
		return nil, err
	}

	result := &Result{
		SessionID: sessionID,
		Errors:    make([]error, 0),
	}

	util.InfoLog("=== Staging extracted items ===")

	// Channel for discovered extraction documents
	jsonPaths := make(chan string, 100)

	// Channel for staged items to batch insert
	staged := make(chan *store.StagingItem, 1000)

	// Counters for progress reporting (using atomic for thread-safety)
	var itemsFound atomic.Int64
	var itemsProcessed atomic.Int64
	var itemsStaged atomic.Int64
	var itemsFlagged atomic.Int64

	// Guards result.Errors, appended from workers and the batch writer
	var errMu sync.Mutex
	addError := func(err error) {
		errMu.Lock()
		result.Errors = append(result.Errors, err)
		errMu.Unlock()
	}

	// Start progress reporter with visual progress bar
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	// Check if stdout is a terminal (disable progress bar if piped/redirected)
	isTTY := util.IsTerminal(os.Stdout.Fd())
	var bar *progressbar.ProgressBar
	var lastRate float64
	var lastUpdate time.Time

	if isTTY && !util.IsQuiet() {
		// Create indeterminate progress bar (we don't know total yet)
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Staging"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("items"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
		lastUpdate = time.Now()
	}

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := itemsFound.Load()
				processed := itemsProcessed.Load()
				stagedCount := itemsStaged.Load()
				flagged := itemsFlagged.Load()

				if bar != nil && found > 0 {
					// Calculate rate
					elapsed := time.Since(lastUpdate).Seconds()
					if elapsed > 0 {
						lastRate = float64(processed) / elapsed
					}

					// Update progress bar description with stats
					description := fmt.Sprintf("Staging | %d found | %d staged | %d flagged | %.1f/s",
						found, stagedCount, flagged, lastRate)
					bar.Describe(description)
					bar.Set64(processed)
				} else if found > 0 {
					// Fallback to text output if not a TTY
					util.InfoLog("Progress: found %d items, staged %d (flagged: %d)",
						found, stagedCount, flagged)
				}
			}
		}
	}()

	// Start batch writer goroutine
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		batch := make([]*store.StagingItem, 0, 200)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		flush := func() {
			if len(batch) == 0 {
				return
			}

			var quality int64
			for _, item := range batch {
				if item.Flags.Has(store.FlagQualityIssue) {
					quality++
				}
			}

			if err := ing.store.InsertStagingItems(batch); err != nil {
				util.ErrorLog("Failed to batch insert items: %v", err)
				addError(err)
				batch = batch[:0]
				return
			}
			if err := ing.store.IncrementSessionCounters(sessionID, int64(len(batch)), 0, quality); err != nil {
				util.ErrorLog("Failed to update session counters: %v", err)
				addError(err)
			}

			for _, item := range batch {
				itemsStaged.Add(1)
				ing.logger.LogItemStaged(sessionID, item.Directory, item.IDNumber)
				for _, flag := range item.Flags {
					itemsFlagged.Add(1)
					ing.logger.LogItemFlagged(sessionID, item.Directory, string(flag), "")
				}
			}

			batch = batch[:0] // Reset batch
		}

		for {
			select {
			case item, ok := <-staged:
				if !ok {
					// Channel closed, flush remaining
					flush()
					return
				}
				batch = append(batch, item)
				if len(batch) >= 200 {
					flush()
				}
			case <-ticker.C:
				// Periodic flush
				flush()
			case <-ctx.Done():
				flush()
				return
			}
		}
	}()

	// Start worker pool
	var workers conc.WaitGroup
	for i := 0; i < ing.concurrency; i++ {
		workers.Go(func() {
			for path := range jsonPaths {
				// Check for cancellation
				select {
				case <-ctx.Done():
					return
				default:
				}

				item := ing.processExtraction(sessionID, path)
				itemsProcessed.Add(1)

				select {
				case staged <- item:
				case <-ctx.Done():
					return
				}
			}
		})
	}

	// Walk session tree for extraction documents
	walkErr := filepath.WalkDir(sessionDir, func(path string, d fs.DirEntry, err error) error {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			addError(fmt.Errorf("access error: %s: %w", path, err))
			return nil // Continue walking
		}

		if d.IsDir() {
			return nil
		}

		if IsExtractionFile(d.Name()) {
			itemsFound.Add(1)
			select {
			case jsonPaths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	// Close channel and wait for workers
	close(jsonPaths)
	workers.Wait()

	// Close staged channel and wait for batch writer
	close(staged)
	writerWg.Wait()

	cancelProgress()
	if bar != nil {
		bar.Finish()
	}

	if walkErr != nil && walkErr != context.Canceled {
		ing.store.RecordPipelineError(sessionID, walkErr.Error())
		ing.store.SetSessionStatus(sessionID, store.StatusError)
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	result.ItemsStaged = int(itemsStaged.Load())
	result.ItemsFlagged = int(itemsFlagged.Load())

	// The staged material proves the upstream stages ran
	for _, step := range []store.Step{
		store.StepScanFormatting,
		store.StepClassifyRename,
		store.StepTextExtraction,
	} {
		if err := ing.store.AdvancePipeline(sessionID, step); err != nil {
			return result, err
		}
	}

	util.InfoLog("=== Checking for duplicate ID numbers ===")
	if err := ing.flagDuplicates(sessionID, result); err != nil {
		return result, err
	}

	if err := ing.store.AdvancePipeline(sessionID, store.StepGenerateTable); err != nil {
		return result, err
	}
	if err := ing.store.AdvancePipeline(sessionID, store.StepAwaitingReview); err != nil {
		return result, err
	}
	if err := ing.store.MarkSessionCompleted(sessionID); err != nil {
		return result, err
	}

	sess, err := ing.store.GetSession(sessionID)
	if err != nil {
		return result, err
	}
	result.QualityIssues = int(sess.QualityIssues)

	// Mirror the run onto the step tracker. The session itself is already
	// review_ready, so tracker bookkeeping failures only warn.
	if err := ing.store.SetPipelineStatus(sessionID, store.StatusReviewReady); err != nil {
		util.WarnLog("Failed to update step tracker status: %v", err)
	}
	if err := ing.store.MergePipelineStats(sessionID, store.Stats{
		"total_items":      int64(result.ItemsStaged),
		"items_flagged":    int64(result.ItemsFlagged),
		"duplicates_found": int64(result.Duplicates),
		"quality_issues":   int64(result.QualityIssues),
	}); err != nil {
		util.WarnLog("Failed to record step tracker stats: %v", err)
	}

	util.SuccessLog("Session %s staged: %d items, %d flagged, %d duplicates, %d errors",
		sessionID, result.ItemsStaged, result.ItemsFlagged, result.Duplicates, len(result.Errors))

	return result, nil
}

// processExtraction turns one extraction document into a staging item.
// A document that cannot be read still produces an item, flagged as a
// processing error, so the failure reaches the reviewer.
func (ing *Ingestor) processExtraction(sessionID, path string) *store.StagingItem {
	dir := filepath.Dir(path)
	directory := filepath.Base(dir)

	front, back, imgErr := FindCardImages(dir)
	if imgErr != nil {
		util.WarnLog("Failed to locate scans for %s: %v", directory, imgErr)
	}

	ext, err := ReadExtractionFile(path)
	if err != nil {
		util.WarnLog("Failed to read extraction for %s: %v", directory, err)
		ing.logger.LogError(report.EventStage, path, err)

		return &store.StagingItem{
			SessionID:       sessionID,
			Directory:       directory,
			IDNumber:        IDParsingError,
			FrontImagePath:  front,
			BackImagePath:   back,
			ExtractionNotes: err.Error(),
			Flags:           store.FlagList{store.FlagProcessingError},
			ModelUsed:       DefaultModel,
		}
	}

	item := &store.StagingItem{
		SessionID:        sessionID,
		Directory:        directory,
		IDNumber:         ext.IDNumber,
		FrontImagePath:   front,
		BackImagePath:    back,
		HandwrittenNotes: joinText(ext.Metadata.HandwrittenNotes),
		PrintedLabels:    joinText(ext.Metadata.PrintedLabels),
		Addresses:        joinText(ext.Metadata.Addresses),
		OtherMarkings:    joinText(ext.Metadata.OtherMarkings),
		ExtractionNotes:  ext.ExtractionNotes,
		Flags:            DetectFlags(ext),
		ProcessedAt:      ext.ProcessedAt(),
		ModelUsed:        ext.Model(),
	}

	util.DebugLog("Staged: %s (ID: %s)", directory, item.IDNumber)
	return item
}

// flagDuplicates marks every staged item whose ID number appears more
// than once in the session
func (ing *Ingestor) flagDuplicates(sessionID string, result *Result) error {
	items, err := ing.store.ListStagingBySession(sessionID)
	if err != nil {
		return err
	}

	groups := FindDuplicateGroups(items)
	var flagged int64

	for _, group := range groups {
		util.WarnLog("Duplicate ID %s on %d items", group.IDNumber, len(group.Items))
		ing.logger.LogDuplicate(sessionID, group.IDNumber, len(group.Items))

		for _, item := range group.Items {
			if item.Flags.Has(store.FlagDuplicateID) {
				continue
			}
			if err := ing.store.AddStagingFlag(item.ID, store.FlagDuplicateID); err != nil {
				return err
			}
			flagged++
		}
	}

	if flagged > 0 {
		if err := ing.store.IncrementSessionCounters(sessionID, 0, flagged, 0); err != nil {
			return err
		}
	}

	result.Duplicates = int(flagged)
	return nil
}
