package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// IsSameFilesystem checks if two paths are on the same filesystem
// by comparing their device IDs (st_dev).
// Returns (true, nil) if on same filesystem
// Returns (false, nil) if on different filesystems
// Returns (false, err) if paths cannot be stat'd
func IsSameFilesystem(path1, path2 string) (bool, error) {
	stat1, err := os.Stat(path1)
	if err != nil {
		return false, err
	}

	stat2, err := os.Stat(path2)
	if err != nil {
		return false, err
	}

	sysStat1, ok1 := stat1.Sys().(*syscall.Stat_t)
	sysStat2, ok2 := stat2.Sys().(*syscall.Stat_t)

	if !ok1 || !ok2 {
		// If we can't get syscall.Stat_t, assume different filesystems
		// (better to warn when unsure)
		return false, nil
	}

	return sysStat1.Dev == sysStat2.Dev, nil
}

// DetectFilesystemCaseSensitivity probes whether the filesystem holding dir
// distinguishes file names by case. It creates a probe file and checks
// whether the opposite-case name resolves to it.
func DetectFilesystemCaseSensitivity(dir string) (bool, error) {
	probe, err := os.CreateTemp(dir, "CaseProbe-*.tmp")
	if err != nil {
		return false, fmt.Errorf("failed to create probe file: %w", err)
	}
	probePath := probe.Name()
	probe.Close()
	defer os.Remove(probePath)

	base := filepath.Base(probePath)
	swapped := filepath.Join(dir, strings.ToLower(base))
	if swapped == probePath {
		swapped = filepath.Join(dir, strings.ToUpper(base))
	}

	// On a case-insensitive filesystem the swapped-case name resolves
	// to the probe file we just created
	if _, err := os.Stat(swapped); err == nil {
		return false, nil
	}
	return true, nil
}

// NormalizePath cleans a path and, on case-insensitive filesystems, folds it
// to lower case so equivalent paths compare equal
func NormalizePath(path string, caseSensitive bool) string {
	cleaned := filepath.Clean(path)
	if caseSensitive {
		return cleaned
	}
	return strings.ToLower(cleaned)
}

// PathsEqual reports whether two paths refer to the same name under the
// filesystem's case sensitivity rules
func PathsEqual(path1, path2 string, caseSensitive bool) bool {
	return NormalizePath(path1, caseSensitive) == NormalizePath(path2, caseSensitive)
}
