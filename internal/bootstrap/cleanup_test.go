package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanStaleRecordings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()
	files := map[string]time.Time{
		"recording-old.wav":   now.Add(-48 * time.Hour),
		"recording-fresh.wav": now.Add(-time.Minute),
		"notes-old.txt":       now.Add(-48 * time.Hour),
	}
	for name, mtime := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes failed: %v", err)
		}
	}

	removed, err := CleanStaleRecordings(dir, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "recording-old.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected stale recording to be removed")
	}
	for _, keep := range []string{"recording-fresh.wav", "notes-old.txt"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Fatalf("expected %s to remain: %v", keep, err)
		}
	}
}

func TestCleanStaleRecordingsMissingDir(t *testing.T) {
	t.Parallel()

	removed, err := CleanStaleRecordings(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now())
	if err != nil || removed != 0 {
		t.Fatalf("unexpected result: %d, %v", removed, err)
	}
}
