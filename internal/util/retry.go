package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"time"
)

// RetryConfig controls the exponential backoff applied to filesystem
// calls against session trees, which regularly live on flaky NAS mounts.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration // doubled after each failed attempt
	MaxWait     time.Duration // backoff ceiling
}

// DefaultRetryConfig is tuned for local disks.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// NASRetryConfig waits longer between attempts; SMB shares recover from
// hiccups on the order of seconds, not milliseconds.
func NASRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     10 * time.Second,
	}
}

// retryableErrnos are the transient syscall failures seen from network
// mounts under load.
var retryableErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.ETIMEDOUT,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.ECONNREFUSED,
	syscall.ENETDOWN,
	syscall.ENETUNREACH,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.EIO,
}

// retryablePhrases catch transient errors that arrive as plain strings,
// already stripped of their errno by an intermediate layer.
var retryablePhrases = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"connection aborted",
	"broken pipe",
	"no route to host",
	"network is unreachable",
	"network is down",
	"host is down",
	"temporary failure",
	"resource temporarily unavailable",
	"i/o error",
	"too many open files",
}

// IsRetryableError reports whether err looks transient. Permission and
// not-found errors are never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		err = linkErr.Err
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, e := range retryableErrnos {
			if errno == e {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}

// RetryWithBackoff runs operation until it succeeds, fails with a
// non-transient error, or exhausts cfg.MaxAttempts.
func RetryWithBackoff[T any](cfg *RetryConfig, operation func() (T, error), name string) (T, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var zero T
	wait := cfg.InitialWait

	for attempt := 1; ; attempt++ {
		result, err := operation()
		if err == nil {
			if attempt > 1 {
				DebugLog("Retry: %s succeeded on attempt %d/%d", name, attempt, cfg.MaxAttempts)
			}
			return result, nil
		}

		if !IsRetryableError(err) {
			DebugLog("Retry: %s failed permanently: %v", name, err)
			return zero, err
		}
		if attempt >= cfg.MaxAttempts {
			WarnLog("Retry: %s gave up after %d attempts: %v", name, cfg.MaxAttempts, err)
			return zero, fmt.Errorf("max retries exceeded (%d attempts): %w", cfg.MaxAttempts, err)
		}

		DebugLog("Retry: %s failed (attempt %d/%d), next try in %v: %v",
			name, attempt, cfg.MaxAttempts, wait, err)
		time.Sleep(wait)

		if wait *= 2; wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}
}

// Retry is RetryWithBackoff for operations without a result.
func Retry(cfg *RetryConfig, operation func() error, name string) error {
	_, err := RetryWithBackoff(cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, name)
	return err
}

// Retryable wrappers for the filesystem calls the copier and ingest walk
// make against session trees.

func RetryableOpen(path string, cfg *RetryConfig) (*os.File, error) {
	return RetryWithBackoff(cfg, func() (*os.File, error) {
		return os.Open(path)
	}, fmt.Sprintf("open(%s)", path))
}

func RetryableCreate(path string, cfg *RetryConfig) (*os.File, error) {
	return RetryWithBackoff(cfg, func() (*os.File, error) {
		return os.Create(path)
	}, fmt.Sprintf("create(%s)", path))
}

func RetryableStat(path string, cfg *RetryConfig) (fs.FileInfo, error) {
	return RetryWithBackoff(cfg, func() (fs.FileInfo, error) {
		return os.Stat(path)
	}, fmt.Sprintf("stat(%s)", path))
}

func RetryableReadDir(path string, cfg *RetryConfig) ([]os.DirEntry, error) {
	return RetryWithBackoff(cfg, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	}, fmt.Sprintf("readdir(%s)", path))
}

func RetryableRemove(path string, cfg *RetryConfig) error {
	return Retry(cfg, func() error {
		return os.Remove(path)
	}, fmt.Sprintf("remove(%s)", path))
}

func RetryableRename(oldpath, newpath string, cfg *RetryConfig) error {
	return Retry(cfg, func() error {
		return os.Rename(oldpath, newpath)
	}, fmt.Sprintf("rename(%s)", oldpath))
}

func RetryableMkdirAll(path string, perm os.FileMode, cfg *RetryConfig) error {
	return Retry(cfg, func() error {
		return os.MkdirAll(path, perm)
	}, fmt.Sprintf("mkdir(%s)", path))
}
