package reconcile_test

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"mural/internal/logging"
	"mural/internal/reconcile"
	"mural/internal/transform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestCommitConvergesDestination(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(dest, "old1.jpg"), "previous cycle")
	writeFile(t, filepath.Join(staging, "new1.jpg"), "first")
	writeFile(t, filepath.Join(staging, "new2.jpg"), "second")

	r := reconcile.New(dest, logging.NewNop())
	committed := r.Commit([]transform.AcceptedAsset{
		{SourceURL: "https://example.com/new1.jpg", Path: filepath.Join(staging, "new1.jpg")},
		{SourceURL: "https://example.com/new2.jpg", Path: filepath.Join(staging, "new2.jpg")},
	})

	if len(committed) != 2 {
		t.Fatalf("expected 2 committed assets, got %d", len(committed))
	}
	if got := dirNames(t, dest); !reflect.DeepEqual(got, []string{"new1.jpg", "new2.jpg"}) {
		t.Fatalf("destination did not converge: %v", got)
	}
	if committed[0].FinalPath != filepath.Join(dest, "new1.jpg") {
		t.Fatalf("unexpected final path %s", committed[0].FinalPath)
	}
	// Staged files are gone after the move.
	if got := dirNames(t, staging); len(got) != 0 {
		t.Fatalf("staging not emptied: %v", got)
	}
}

func TestCommitToleratesPerFileFailure(t *testing.T) {
	staging := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(dest, "old1.jpg"), "previous cycle")
	writeFile(t, filepath.Join(staging, "good.jpg"), "payload")

	r := reconcile.New(dest, logging.NewNop())
	committed := r.Commit([]transform.AcceptedAsset{
		{SourceURL: "https://example.com/missing.jpg", Path: filepath.Join(staging, "missing.jpg")},
		{SourceURL: "https://example.com/good.jpg", Path: filepath.Join(staging, "good.jpg")},
	})

	if len(committed) != 1 || filepath.Base(committed[0].FinalPath) != "good.jpg" {
		t.Fatalf("expected only good.jpg committed, got %+v", committed)
	}
	if got := dirNames(t, dest); !reflect.DeepEqual(got, []string{"good.jpg"}) {
		t.Fatalf("destination did not converge: %v", got)
	}
}

func TestCommitAllMovesFailedLeavesDestination(t *testing.T) {
	dest := t.TempDir()
	writeFile(t, filepath.Join(dest, "old1.jpg"), "previous cycle")

	r := reconcile.New(dest, logging.NewNop())
	committed := r.Commit([]transform.AcceptedAsset{
		{SourceURL: "https://example.com/a.jpg", Path: filepath.Join(t.TempDir(), "a.jpg")},
	})

	if committed != nil {
		t.Fatalf("expected no commits, got %+v", committed)
	}
	if got := dirNames(t, dest); !reflect.DeepEqual(got, []string{"old1.jpg"}) {
		t.Fatalf("destination must stay untouched when nothing lands: %v", got)
	}
}

func TestStaleEntries(t *testing.T) {
	desired := map[string]struct{}{"keep1.jpg": {}, "keep2.png": {}}
	got := reconcile.StaleEntries([]string{"zz.jpg", "keep1.jpg", "aa.jpg", "keep2.png"}, desired)
	if !reflect.DeepEqual(got, []string{"aa.jpg", "zz.jpg"}) {
		t.Fatalf("unexpected diff: %v", got)
	}
	if got := reconcile.StaleEntries([]string{"keep1.jpg"}, desired); got != nil {
		t.Fatalf("expected empty diff, got %v", got)
	}
}
