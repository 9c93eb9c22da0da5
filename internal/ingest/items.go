package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ImageExtensions are the scan formats the digitization stage produces
var ImageExtensions = []string{
	".jpg",
	".jpeg",
	".png",
	".tiff",
	".tif",
	".bmp",
}

var imageExtMap = func() map[string]bool {
	m := make(map[string]bool, len(ImageExtensions))
	for _, ext := range ImageExtensions {
		m[ext] = true
	}
	return m
}()

// sessionIDPattern matches the timestamp-style session IDs the upload
// stage assigns, e.g. 20240830_142500
var sessionIDPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// NewSessionID generates a session ID from the current time
func NewSessionID() string {
	return time.Now().Format("20060102_150405")
}

// IsSessionID reports whether s has the session ID shape
func IsSessionID(s string) bool {
	return sessionIDPattern.MatchString(s)
}

// IsImageFile reports whether path has a supported scan extension
func IsImageFile(path string) bool {
	return imageExtMap[strings.ToLower(filepath.Ext(path))]
}

// IsExtractionFile reports whether name is an item extraction document
// rather than one of the pipeline's own bookkeeping files
func IsExtractionFile(name string) bool {
	if strings.ToLower(filepath.Ext(name)) != ".json" {
		return false
	}
	if name == "session_metadata.json" {
		return false
	}
	if strings.HasPrefix(name, "processing_summary") || strings.HasPrefix(name, "metadata_summary") {
		return false
	}
	return true
}

// FindCardImages locates the front and back scans in an item directory.
// By convention the front scan's name stem ends in A and the back's in B.
// Either side may be missing.
func FindCardImages(dir string) (front, back string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to read item directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem == "" {
			continue
		}
		switch stem[len(stem)-1] {
		case 'A', 'a':
			if front == "" {
				front = filepath.Join(dir, name)
			}
		case 'B', 'b':
			if back == "" {
				back = filepath.Join(dir, name)
			}
		}
	}

	return front, back, nil
}
