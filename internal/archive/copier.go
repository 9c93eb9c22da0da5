package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc"
	"github.com/vhagen/archive-curator/internal/report"
	"github.com/vhagen/archive-curator/internal/util"
)

// Copier copies session trees into the managed archive root. Copies are
// atomic (written to a .part file, then renamed) so a crashed run never
// leaves a half-written scan behind under the final name.
type Copier struct {
	concurrency int
	verifyMode  string // "none", "size", "hash"
	bufferSize  int
	retryConfig *util.RetryConfig
	hardlink    bool
	logger      *report.EventLogger
}

// Config holds copier configuration
type Config struct {
	Concurrency int
	VerifyMode  string            // "none", "size", "hash"
	BufferSize  int               // Buffer size for file copying (0 = use default)
	RetryConfig *util.RetryConfig // Retry configuration (nil = use default)
	// Hardlink links files instead of copying when source and archive
	// root share a filesystem
	Hardlink bool
	Logger   *report.EventLogger
}

// New creates a new Copier
func New(cfg *Config) *Copier {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.VerifyMode == "" {
		cfg.VerifyMode = "size"
	}
	if cfg.BufferSize <= 0 {
		// Default 128KB - good balance for both local and network storage
		cfg.BufferSize = 128 * 1024
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = &util.RetryConfig{
			MaxAttempts: 1, // No retries by default (NAS will override)
			InitialWait: 0,
			MaxWait:     0,
		}
	}

	return &Copier{
		concurrency: cfg.Concurrency,
		verifyMode:  cfg.VerifyMode,
		bufferSize:  cfg.BufferSize,
		retryConfig: cfg.RetryConfig,
		hardlink:    cfg.Hardlink,
		logger:      cfg.Logger,
	}
}

// Result represents a session copy
type Result struct {
	DestDir      string
	FilesCopied  int
	FilesSkipped int
	FilesFailed  int
	BytesWritten int64
	Errors       []error
}

// CopySession mirrors srcDir into archiveRoot under the session's own
// directory name and returns the destination path in the result. Files
// already present at the destination with matching size are skipped, so
// an interrupted copy can simply be rerun.
func (c *Copier) CopySession(ctx context.Context, srcDir, archiveRoot string) (*Result, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat session directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", srcDir)
	}

	destDir := filepath.Join(archiveRoot, filepath.Base(srcDir))
	if err := util.RetryableMkdirAll(destDir, 0755, c.retryConfig); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Hardlinking only works within one filesystem; decide once
	linkOK := false
	if c.hardlink {
		linkOK, err = util.IsSameFilesystem(srcDir, destDir)
		if err != nil {
			util.WarnLog("Failed to compare filesystems, falling back to copy: %v", err)
		}
	}

	util.InfoLog("=== Copying session into archive ===")
	util.InfoLog("Source: %s", srcDir)
	util.InfoLog("Destination: %s", destDir)

	result := &Result{
		DestDir: destDir,
		Errors:  make([]error, 0),
	}

	var copied atomic.Int64
	var skipped atomic.Int64
	var failed atomic.Int64
	var bytesWritten atomic.Int64

	var errMu sync.Mutex
	addError := func(err error) {
		errMu.Lock()
		result.Errors = append(result.Errors, err)
		errMu.Unlock()
	}

	// Periodic progress for long NAS copies
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				cp := copied.Load()
				if cp > 0 {
					util.InfoLog("Copying: %d files done, %d skipped, %s written",
						cp, skipped.Load(), humanize.Bytes(uint64(bytesWritten.Load())))
				}
			}
		}
	}()

	relPaths := make(chan string, c.concurrency*2)

	var workers conc.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		workers.Go(func() {
			for rel := range relPaths {
				select {
				case <-ctx.Done():
					return
				default:
				}

				n, err := c.copyOne(ctx, srcDir, destDir, rel, linkOK)
				switch {
				case err != nil:
					util.ErrorLog("Failed to copy %s: %v", rel, err)
					addError(fmt.Errorf("%s: %w", rel, err))
					failed.Add(1)
				case n < 0:
					skipped.Add(1)
				default:
					copied.Add(1)
					bytesWritten.Add(n)
				}
			}
		})
	}

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			addError(fmt.Errorf("access error: %s: %w", path, err))
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			addError(fmt.Errorf("failed to resolve %s: %w", path, err))
			return nil
		}

		select {
		case relPaths <- rel:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	close(relPaths)
	workers.Wait()
	cancelProgress()

	result.FilesCopied = int(copied.Load())
	result.FilesSkipped = int(skipped.Load())
	result.FilesFailed = int(failed.Load())
	result.BytesWritten = bytesWritten.Load()

	if walkErr != nil && walkErr != context.Canceled {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	util.SuccessLog("Copy complete: %d copied, %d skipped, %d failed, %s written",
		result.FilesCopied, result.FilesSkipped, result.FilesFailed,
		humanize.Bytes(uint64(result.BytesWritten)))

	return result, nil
}

// copyOne copies a single file into the archive.
// Returns bytes written, or -1 if the file was already in place.
func (c *Copier) copyOne(ctx context.Context, srcDir, destDir, rel string, linkOK bool) (int64, error) {
	srcPath := filepath.Join(srcDir, rel)
	destPath := filepath.Join(destDir, rel)

	srcStat, err := util.RetryableStat(srcPath, c.retryConfig)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source: %w", err)
	}

	// Already archived with the right size: nothing to do
	if destStat, err := os.Stat(destPath); err == nil && destStat.Size() == srcStat.Size() {
		util.DebugLog("Already archived: %s", rel)
		return -1, nil
	}

	if err := util.RetryableMkdirAll(filepath.Dir(destPath), 0755, c.retryConfig); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	start := time.Now()

	if linkOK {
		if err := os.Link(srcPath, destPath); err == nil {
			util.DebugLog("Hardlinked: %s", rel)
			c.logger.LogCopy(srcPath, destPath, 0, time.Since(start), nil)
			return 0, nil
		}
		// Fall through to a real copy (link can fail across mount
		// boundaries inside the tree, or on existing dest)
	}

	bytesWritten, err := c.copyFile(ctx, srcPath, destPath)
	if err != nil {
		c.logger.LogCopy(srcPath, destPath, 0, time.Since(start), err)
		return 0, err
	}

	if err := c.verify(srcPath, destPath, srcStat.Size()); err != nil {
		c.logger.LogCopy(srcPath, destPath, bytesWritten, time.Since(start), err)
		return 0, err
	}

	c.logger.LogCopy(srcPath, destPath, bytesWritten, time.Since(start), nil)
	return bytesWritten, nil
}

// copyFile copies a file atomically using a .part temporary file
func (c *Copier) copyFile(ctx context.Context, srcPath, destPath string) (int64, error) {
	src, err := util.RetryableOpen(srcPath, c.retryConfig)
	if err != nil {
		return 0, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	tempPath := destPath + ".part"
	dest, err := util.RetryableCreate(tempPath, c.retryConfig)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	bytesWritten, err := copyWithContext(ctx, dest, src, c.bufferSize)
	dest.Close()

	if err != nil {
		util.RetryableRemove(tempPath, c.retryConfig) // Clean up on error
		return 0, fmt.Errorf("failed to copy: %w", err)
	}

	if err := util.RetryableRename(tempPath, destPath, c.retryConfig); err != nil {
		util.RetryableRemove(tempPath, c.retryConfig) // Clean up on error
		return 0, fmt.Errorf("failed to rename: %w", err)
	}

	return bytesWritten, nil
}

// verify checks the archived copy against the original per the
// configured mode
func (c *Copier) verify(srcPath, destPath string, expectedSize int64) error {
	switch c.verifyMode {
	case "size":
		stat, err := os.Stat(destPath)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if stat.Size() != expectedSize {
			return fmt.Errorf("size %d != %d: %w", stat.Size(), expectedSize, util.ErrVerifyMismatch)
		}
	case "hash":
		srcHash, err := util.ContentHash(srcPath)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		destHash, err := util.ContentHash(destPath)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if srcHash != destHash {
			return fmt.Errorf("content hash mismatch: %w", util.ErrVerifyMismatch)
		}
	}
	return nil
}

// copyWithContext copies data with context cancellation support
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader, bufferSize int) (int64, error) {
	if bufferSize <= 0 {
		bufferSize = 128 * 1024
	}

	buf := make([]byte, bufferSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if ew == nil {
					ew = fmt.Errorf("invalid write result")
				}
			}
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er != io.EOF {
				return written, er
			}
			break
		}
	}
	return written, nil
}
