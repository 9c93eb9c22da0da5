package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeSessionDir creates a session directory with one item holding an
// extraction document and a front scan
func writeSessionDir(t *testing.T, dropDir, name string) string {
	t.Helper()

	itemDir := filepath.Join(dropDir, name, "item_001")
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		t.Fatalf("Failed to create item dir: %v", err)
	}

	doc := `{"id_number": "1957.100", "metadata": {"handwritten_notes": ["donated"], "printed_labels": [], "addresses": [], "other_markings": []}, "extraction_notes": ""}`
	if err := os.WriteFile(filepath.Join(itemDir, "item_001.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("Failed to write extraction document: %v", err)
	}
	if err := os.WriteFile(filepath.Join(itemDir, "item_001_A.jpg"), []byte("front scan"), 0o644); err != nil {
		t.Fatalf("Failed to write scan: %v", err)
	}

	return filepath.Join(dropDir, name)
}

// startWatcher runs w in the background and returns the handled channel
// and a stop function that asserts a clean shutdown
func startWatcher(t *testing.T, w *Watcher) (chan string, func()) {
	t.Helper()

	handled := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan error, 1)
	go func() {
		runDone <- w.Run(ctx, func(ctx context.Context, dir string) error {
			handled <- dir
			return nil
		})
	}()

	stop := func() {
		cancel()
		if err := <-runDone; err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	}
	return handled, stop
}

func TestWatcherPicksUpNewDirectory(t *testing.T) {
	dropDir := t.TempDir()

	w := New(&Config{
		DropDir: dropDir,
		Settle:  150 * time.Millisecond,
		Poll:    50 * time.Millisecond,
	})
	handled, stop := startWatcher(t, w)
	defer stop()

	sessDir := writeSessionDir(t, dropDir, "20240830_142500")

	select {
	case got := <-handled:
		if got != sessDir {
			t.Errorf("Handled %q, expected %q", got, sessDir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Directory was never handed off")
	}

	// The same directory must not be handed off a second time
	select {
	case got := <-handled:
		t.Errorf("Directory handed off twice: %q", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherPicksUpExistingDirectory(t *testing.T) {
	dropDir := t.TempDir()
	sessDir := writeSessionDir(t, dropDir, "20240830_143000")

	w := New(&Config{
		DropDir: dropDir,
		Settle:  150 * time.Millisecond,
		Poll:    50 * time.Millisecond,
	})
	handled, stop := startWatcher(t, w)
	defer stop()

	select {
	case got := <-handled:
		if got != sessDir {
			t.Errorf("Handled %q, expected %q", got, sessDir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pre-existing directory was never handed off")
	}
}

func TestWatcherSkipsDirectoryWithoutExtraction(t *testing.T) {
	dropDir := t.TempDir()

	// Scans only; the extraction stage has not run yet
	itemDir := filepath.Join(dropDir, "20240830_150000", "item_001")
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		t.Fatalf("Failed to create item dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(itemDir, "item_001_A.jpg"), []byte("front scan"), 0o644); err != nil {
		t.Fatalf("Failed to write scan: %v", err)
	}

	w := New(&Config{
		DropDir: dropDir,
		Settle:  100 * time.Millisecond,
		Poll:    50 * time.Millisecond,
	})
	handled, stop := startWatcher(t, w)
	defer stop()

	select {
	case got := <-handled:
		t.Errorf("Directory without extraction documents handed off: %q", got)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()

	itemDir := filepath.Join(dir, "item_001")
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		t.Fatalf("Failed to create item dir: %v", err)
	}
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(itemDir, "item_001.json"), `{"id_number": "1957.100"}`},
		{filepath.Join(itemDir, "item_001_A.jpg"), "front scan"},
		{filepath.Join(dir, "session_metadata.json"), `{"uploaded_by": "curator"}`},
	}
	var want int64
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", f.path, err)
		}
		want += int64(len(f.content))
	}

	sig, err := measure(dir)
	if err != nil {
		t.Fatalf("measure failed: %v", err)
	}

	if sig.files != 3 {
		t.Errorf("Expected 3 files, got %d", sig.files)
	}
	if sig.bytes != want {
		t.Errorf("Expected %d bytes, got %d", want, sig.bytes)
	}
	// session_metadata.json is bookkeeping, not an extraction document
	if sig.extractions != 1 {
		t.Errorf("Expected 1 extraction document, got %d", sig.extractions)
	}

	// Growing a file must change the signature
	if err := os.WriteFile(filepath.Join(itemDir, "item_001_B.jpg"), []byte("back scan"), 0o644); err != nil {
		t.Fatalf("Failed to write scan: %v", err)
	}
	after, err := measure(dir)
	if err != nil {
		t.Fatalf("measure failed: %v", err)
	}
	if sig.equal(after) {
		t.Error("Expected signature to change after adding a file")
	}
}
