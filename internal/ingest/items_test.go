package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSessionID(t *testing.T) {
	tests := []struct {
		s        string
		expected bool
	}{
		{"20240830_142500", true},
		{"19991231_235959", true},
		{"20240830-142500", false},
		{"20240830_1425", false},
		{"session_20240830", false},
		{"", false},
		{"20240830_142500x", false},
	}

	for _, tt := range tests {
		if got := IsSessionID(tt.s); got != tt.expected {
			t.Errorf("IsSessionID(%q) = %v, expected %v", tt.s, got, tt.expected)
		}
	}
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if !IsSessionID(id) {
		t.Errorf("NewSessionID() = %q, not a valid session ID", id)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"001A.jpg", true},
		{"001A.JPG", true}, // Case insensitive
		{"001B.jpeg", true},
		{"scan.png", true},
		{"scan.tiff", true},
		{"scan.tif", true},
		{"scan.bmp", true},
		{"extraction.json", false},
		{"scan.pdf", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.path); got != tt.expected {
			t.Errorf("IsImageFile(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestIsExtractionFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"extraction.json", true},
		{"001.json", true},
		{"card_data.JSON", true},
		{"session_metadata.json", false},
		{"processing_summary.json", false},
		{"processing_summary_20240830.json", false},
		{"metadata_summary.json", false},
		{"001A.jpg", false},
		{"readme.txt", false},
	}

	for _, tt := range tests {
		if got := IsExtractionFile(tt.name); got != tt.expected {
			t.Errorf("IsExtractionFile(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestFindCardImages(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"0001A.jpg", "0001B.jpg", "extraction.json"} {
		f, err := os.Create(filepath.Join(tmpDir, name))
		if err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		f.Close()
	}

	front, back, err := FindCardImages(tmpDir)
	if err != nil {
		t.Fatalf("FindCardImages failed: %v", err)
	}
	if filepath.Base(front) != "0001A.jpg" {
		t.Errorf("front = %q, expected 0001A.jpg", front)
	}
	if filepath.Base(back) != "0001B.jpg" {
		t.Errorf("back = %q, expected 0001B.jpg", back)
	}
}

func TestFindCardImagesMissingSides(t *testing.T) {
	tmpDir := t.TempDir()

	// Front only, lowercase suffix
	f, err := os.Create(filepath.Join(tmpDir, "0002a.png"))
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	f.Close()

	front, back, err := FindCardImages(tmpDir)
	if err != nil {
		t.Fatalf("FindCardImages failed: %v", err)
	}
	if filepath.Base(front) != "0002a.png" {
		t.Errorf("front = %q, expected 0002a.png", front)
	}
	if back != "" {
		t.Errorf("back = %q, expected empty", back)
	}
}

func TestFindCardImagesFirstMatchWins(t *testing.T) {
	tmpDir := t.TempDir()

	// Two candidate fronts: the lexically first is kept
	for _, name := range []string{"0003A.jpg", "0003_extraA.jpg"} {
		f, err := os.Create(filepath.Join(tmpDir, name))
		if err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		f.Close()
	}

	front, _, err := FindCardImages(tmpDir)
	if err != nil {
		t.Fatalf("FindCardImages failed: %v", err)
	}
	if filepath.Base(front) != "0003A.jpg" {
		t.Errorf("front = %q, expected 0003A.jpg", front)
	}
}

func TestFindCardImagesMissingDir(t *testing.T) {
	if _, _, err := FindCardImages(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
