package fswatch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planboard/internal/fswatch"
)

func TestWatcher_FileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drills.yaml")
	if err := os.WriteFile(path, []byte("drills: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 8)
	w, err := fswatch.New(func(p string) { changed <- p }, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.WatchFile(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("drills: [{id: a}]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if filepath.Base(got) != "drills.yaml" {
			t.Errorf("unexpected path %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_DirMatch(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)
	w, err := fswatch.New(func(p string) { changed <- p }, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.WatchDir(dir, func(name string) bool { return strings.HasSuffix(name, ".yaml") }); err != nil {
		t.Fatal(err)
	}

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte("a: b\n"), 0644)

	select {
	case got := <-changed:
		if filepath.Base(got) != "fr.yaml" {
			t.Errorf("unexpected path %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}
