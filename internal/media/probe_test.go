package media

import (
	"os"
	"path/filepath"
	"testing"
)

// Minimal valid PNG (1x1 transparent pixel)
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

func TestProbeImage(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "0001A.png")
	if err := os.WriteFile(path, pngBytes, 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}

	if info.MimeType != "image/png" {
		t.Errorf("MimeType = %q, expected image/png", info.MimeType)
	}
	if info.FileType != "image" {
		t.Errorf("FileType = %q, expected image", info.FileType)
	}
	if info.Size != int64(len(pngBytes)) {
		t.Errorf("Size = %d, expected %d", info.Size, len(pngBytes))
	}
	if info.AudioTags != nil {
		t.Errorf("AudioTags = %v, expected nil for an image", info.AudioTags)
	}
	if info.TagsJSON() != "" {
		t.Errorf("TagsJSON = %q, expected empty", info.TagsJSON())
	}
}

func TestProbeSniffsContentNotExtension(t *testing.T) {
	tmpDir := t.TempDir()

	// PNG bytes behind a misleading extension
	path := filepath.Join(tmpDir, "scan.jpg")
	if err := os.WriteFile(path, pngBytes, 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if info.MimeType != "image/png" {
		t.Errorf("MimeType = %q, expected content-sniffed image/png", info.MimeType)
	}
}

func TestProbeTextDocument(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "ledger.txt")
	if err := os.WriteFile(path, []byte("Accession ledger, volume 3\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if info.FileType != "document" {
		t.Errorf("FileType = %q, expected document", info.FileType)
	}
}

func TestProbeMissingFile(t *testing.T) {
	if _, err := ProbeFile(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestProbeDirectory(t *testing.T) {
	if _, err := ProbeFile(t.TempDir()); err == nil {
		t.Error("Expected error for directory")
	}
}

func TestTypeFromMime(t *testing.T) {
	tests := []struct {
		mime     string
		expected string
	}{
		{"image/jpeg", "image"},
		{"image/tiff", "image"},
		{"audio/mpeg", "audio"},
		{"video/mp4", "video"},
		{"application/pdf", "document"},
		{"text/plain; charset=utf-8", "document"},
		{"application/zip", "other"},
	}

	for _, tt := range tests {
		if got := typeFromMime(tt.mime); got != tt.expected {
			t.Errorf("typeFromMime(%q) = %q, expected %q", tt.mime, got, tt.expected)
		}
	}
}
