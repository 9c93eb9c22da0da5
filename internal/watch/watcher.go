// Package watch waits for session directories to finish arriving in a
// drop directory and hands each one off for ingestion exactly once.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vhagen/archive-curator/internal/ingest"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/util"
)

// Handler processes one settled session directory
type Handler func(ctx context.Context, dir string) error

// Config controls the drop directory watcher
type Config struct {
	// DropDir is the directory session directories are uploaded into
	DropDir string

	// Settle is how long a directory's contents must stay unchanged
	// before it counts as fully uploaded
	Settle time.Duration

	// Poll is the rescan interval backing up filesystem notifications
	Poll time.Duration

	Logger *report.EventLogger
}

// Watcher tracks directories appearing in a drop directory until their
// contents stop changing. Tracking maps are keyed by normalized path so a
// case-insensitive SMB share reporting "Session01" and "session01" can't
// get the same directory ingested twice.
type Watcher struct {
	dropDir       string
	settle        time.Duration
	poll          time.Duration
	logger        *report.EventLogger
	caseSensitive bool

	pending map[string]*candidate
	done    map[string]bool
}

// candidate is a directory that has appeared but not yet settled
type candidate struct {
	dir   string // path as the filesystem reported it
	sig   signature
	since time.Time
}

// signature summarizes a directory's contents. An upload in progress
// keeps changing it; a stable signature means the copy has finished
type signature struct {
	files       int
	bytes       int64
	newest      time.Time
	extractions int
}

func (s signature) equal(o signature) bool {
	return s.files == o.files &&
		s.bytes == o.bytes &&
		s.extractions == o.extractions &&
		s.newest.Equal(o.newest)
}

// New creates a watcher for the given drop directory
func New(cfg *Config) *Watcher {
	settle := cfg.Settle
	if settle <= 0 {
		settle = 30 * time.Second
	}
	poll := cfg.Poll
	if poll <= 0 {
		poll = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Watcher{
		dropDir:       filepath.Clean(cfg.DropDir),
		settle:        settle,
		poll:          poll,
		logger:        logger,
		caseSensitive: true,
		pending:       make(map[string]*candidate),
		done:          make(map[string]bool),
	}
}

// Run watches the drop directory until ctx is cancelled, passing each
// session directory to handle once its contents have settled and at
// least one extraction document is present. Directories already in the
// drop directory at startup are picked up too, after one settle period.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	info, err := os.Stat(w.dropDir)
	if err != nil {
		return fmt.Errorf("failed to stat drop directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.dropDir)
	}

	if sensitive, err := util.DetectFilesystemCaseSensitivity(w.dropDir); err == nil {
		w.caseSensitive = sensitive
		if !sensitive {
			util.DebugLog("Drop directory is case-insensitive, folding paths for tracking")
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start filesystem watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dropDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dropDir, err)
	}

	util.InfoLog("Watching %s (settle %s, rescan every %s)", w.dropDir, w.settle, w.poll)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	w.rescan(ctx, handle)

	for {
		select {
		case <-ctx.Done():
			util.InfoLog("Watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("filesystem watcher closed unexpectedly")
			}
			// Notifications only speed up discovery; the poll loop
			// decides when a directory has settled
			if ev.Has(fsnotify.Create) && util.PathsEqual(filepath.Dir(ev.Name), w.dropDir, w.caseSensitive) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.observe(ev.Name)
				}
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("filesystem watcher closed unexpectedly")
			}
			util.WarnLog("Watcher error: %v", werr)

		case <-ticker.C:
			w.rescan(ctx, handle)
		}
	}
}

// rescan refreshes every candidate under the drop directory and hands
// off the ones that have settled
func (w *Watcher) rescan(ctx context.Context, handle Handler) {
	entries, err := os.ReadDir(w.dropDir)
	if err != nil {
		util.WarnLog("Failed to read %s: %v", w.dropDir, err)
		return
	}

	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(w.dropDir, entry.Name())
		present[w.key(dir)] = true
		w.observe(dir)
	}

	// Directories removed out from under us stop being candidates
	for key := range w.pending {
		if !present[key] {
			delete(w.pending, key)
		}
	}

	now := time.Now()
	for key, cand := range w.pending {
		if cand.sig.extractions == 0 || now.Sub(cand.since) < w.settle {
			continue
		}
		delete(w.pending, key)
		w.done[key] = true

		util.InfoLog("Session directory settled: %s (%d files, %d extraction documents)",
			cand.dir, cand.sig.files, cand.sig.extractions)
		w.logger.LogWatch(cand.dir, "settled")

		if err := handle(ctx, cand.dir); err != nil {
			// Leave the directory marked done rather than retrying a
			// failing ingest forever; the operator sees the error
			util.ErrorLog("Failed to process %s: %v", cand.dir, err)
			w.logger.LogError(report.EventError, cand.dir, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// observe measures dir and starts or restarts its settle clock
func (w *Watcher) observe(dir string) {
	key := w.key(dir)
	if w.done[key] {
		return
	}

	sig, err := measure(dir)
	if err != nil {
		util.DebugLog("Skipping %s: %v", dir, err)
		delete(w.pending, key)
		return
	}

	cand, ok := w.pending[key]
	if !ok {
		util.DebugLog("Tracking new directory: %s", dir)
		w.pending[key] = &candidate{dir: dir, sig: sig, since: time.Now()}
		return
	}
	if !cand.sig.equal(sig) {
		cand.sig = sig
		cand.since = time.Now()
	}
}

// key folds a directory path for map lookups per the drop directory's
// case sensitivity
func (w *Watcher) key(dir string) string {
	return util.NormalizePath(dir, w.caseSensitive)
}

// measure walks dir and summarizes its contents
func measure(dir string) (signature, error) {
	var sig signature
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sig.files++
		sig.bytes += info.Size()
		if info.ModTime().After(sig.newest) {
			sig.newest = info.ModTime()
		}
		if ingest.IsExtractionFile(d.Name()) {
			sig.extractions++
		}
		return nil
	})
	if err != nil {
		return signature{}, err
	}
	return sig, nil
}
