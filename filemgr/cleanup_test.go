package filemgr

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func putWithMTime(t *testing.T, root, rel string, age time.Duration) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := time.Now().Add(-age)
	if err := os.Chtimes(full, ts, ts); err != nil {
		t.Fatal(err)
	}
}

func TestCleanupDuplicates(t *testing.T) {
	root := t.TempDir()
	store := NewStore(NewLocalBackend(root))

	dir := "uploads/venue/the-crooked-billet"
	putWithMTime(t, root, dir+"/original_a.jpg", 3*time.Hour)
	putWithMTime(t, root, dir+"/original_b.jpg", 2*time.Hour)
	putWithMTime(t, root, dir+"/original_c.jpg", 1*time.Hour) // newest original
	putWithMTime(t, root, dir+"/thumb_a.jpg", 2*time.Hour)
	putWithMTime(t, root, dir+"/thumb_b.jpg", 1*time.Hour) // newest thumb

	// a second owner with no duplicates
	putWithMTime(t, root, "uploads/venue/the-anchor/original_x.jpg", time.Hour)

	report, err := store.CleanupDuplicates(false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if report.DirectoriesChecked != 2 {
		t.Errorf("directories_checked = %d, want 2", report.DirectoriesChecked)
	}
	if report.DirectoriesWithDuplicates != 1 {
		t.Errorf("directories_with_duplicates = %d, want 1", report.DirectoriesWithDuplicates)
	}
	if report.FilesRemoved != 3 {
		t.Errorf("files_removed = %d, want 3", report.FilesRemoved)
	}

	left, err := NewLocalBackend(root).List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 2 {
		t.Fatalf("files left = %v, want newest original + newest thumb", left)
	}
	names := map[string]bool{}
	for _, obj := range left {
		names[filepath.Base(obj.Path)] = true
	}
	if !names["original_c.jpg"] || !names["thumb_b.jpg"] {
		t.Errorf("kept wrong files: %v", names)
	}
}

func TestCleanupDuplicatesDryRun(t *testing.T) {
	root := t.TempDir()
	store := NewStore(NewLocalBackend(root))

	dir := "uploads/venue/the-crooked-billet"
	putWithMTime(t, root, dir+"/original_a.jpg", 3*time.Hour)
	putWithMTime(t, root, dir+"/original_b.jpg", 2*time.Hour)
	putWithMTime(t, root, dir+"/original_c.jpg", 1*time.Hour)
	putWithMTime(t, root, dir+"/thumb_a.jpg", 2*time.Hour)
	putWithMTime(t, root, dir+"/thumb_b.jpg", 1*time.Hour)

	report, err := store.CleanupDuplicates(true)
	if err != nil {
		t.Fatalf("cleanup dry run: %v", err)
	}
	if report.FilesRemoved != 3 {
		t.Errorf("dry-run files_removed = %d, want 3", report.FilesRemoved)
	}
	if !report.DryRun {
		t.Error("report should be marked dry run")
	}

	left, _ := NewLocalBackend(root).List(dir)
	if len(left) != 5 {
		t.Fatalf("dry run removed files: %d left, want 5", len(left))
	}
}

func TestCleanupLeavesUnrecognizedFilesAlone(t *testing.T) {
	root := t.TempDir()
	store := NewStore(NewLocalBackend(root))

	putWithMTime(t, root, "uploads/venue/x/notes.txt", time.Hour)
	putWithMTime(t, root, "uploads/venue/x/notes2.txt", 2*time.Hour)

	report, err := store.CleanupDuplicates(false)
	if err != nil {
		t.Fatal(err)
	}
	if report.FilesRemoved != 0 {
		t.Errorf("files_removed = %d, want 0", report.FilesRemoved)
	}
}
