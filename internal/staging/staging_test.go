package staging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mural/internal/logging"
	"mural/internal/staging"
)

func TestCleanStaleRemovesOldFilesOnly(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "abandoned.jpg.download")
	freshFile := filepath.Join(dir, "current.jpg")
	for _, path := range []string{oldFile, freshFile} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed := staging.CleanStale(dir, 24*time.Hour, logging.NewNop())
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatal("stale file still present")
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}

func TestCleanStaleMissingDirectory(t *testing.T) {
	removed := staging.CleanStale(filepath.Join(t.TempDir(), "absent"), time.Hour, logging.NewNop())
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}
