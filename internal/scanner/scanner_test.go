package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_FindsFoldersWithAudio(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "teamA", "b.wav"))
	touch(t, filepath.Join(root, "teamA", "a.MP3"))
	touch(t, filepath.Join(root, "teamA", "notes.txt"))
	touch(t, filepath.Join(root, "teamB", "only.txt"))
	touch(t, filepath.Join(root, "teamC", "nested", "call.wav"))

	folders, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(folders))
	}

	teamA := folders[0]
	if teamA.Name != "teamA" {
		t.Errorf("first folder = %s, want teamA", teamA.Name)
	}
	if len(teamA.Items) != 2 {
		t.Fatalf("teamA items = %d, want 2", len(teamA.Items))
	}
	// Sorted by name; the .txt file is excluded.
	if teamA.Items[0].Name != "a.MP3" || teamA.Items[1].Name != "b.wav" {
		t.Errorf("unexpected item order: %s, %s", teamA.Items[0].Name, teamA.Items[1].Name)
	}
	if teamA.Items[0].MimeType != "audio/mpeg" || teamA.Items[1].MimeType != "audio/wav" {
		t.Errorf("unexpected mime types: %s, %s", teamA.Items[0].MimeType, teamA.Items[1].MimeType)
	}

	nested := folders[1]
	if nested.Name != "nested" {
		t.Errorf("second folder = %s, want nested", nested.Name)
	}
}

func TestScan_RootItselfCanBeAFolder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "direct.wav"))

	folders, err := Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 1 {
		t.Fatalf("expected root folder itself, got %d folders", len(folders))
	}
	if folders[0].Path != root {
		t.Errorf("folder path = %s, want %s", folders[0].Path, root)
	}
}

func TestScan_EmptyTree(t *testing.T) {
	folders, err := Scan(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 0 {
		t.Errorf("expected no folders, got %d", len(folders))
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestScan_Deterministic(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "z", "1.wav"))
	touch(t, filepath.Join(root, "a", "1.wav"))

	first, err := Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatal("scan results differ between runs")
	}
	for i := range first {
		if first[i].Path != second[i].Path {
			t.Errorf("folder order not deterministic: %s vs %s", first[i].Path, second[i].Path)
		}
	}
}
