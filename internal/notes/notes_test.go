package notes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "# a")
	writeFile(t, filepath.Join(dir, "sub", "b.markdown"), "# b")
	writeFile(t, filepath.Join(dir, "sub", "deep", "golang-notes.md"), "# c")
	writeFile(t, filepath.Join(dir, "ignore.txt"), "not a note")
	return dir
}

func TestCollectDirectory(t *testing.T) {
	dir := newTree(t)
	c, err := Collect(dir, Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3: %v", c.Len(), c.Files())
	}

	want := []string{
		"a.md",
		filepath.Join("sub", "b.markdown"),
		filepath.Join("sub", "deep", "golang-notes.md"),
	}
	for _, f := range c.Files() {
		if !slices.Contains(want, c.Rel(f)) {
			t.Errorf("unexpected file %s", c.Rel(f))
		}
	}
}

func TestCollectSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.md")
	writeFile(t, path, "hello")

	c, err := Collect(path, Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	got, err := c.PickRandom()
	if err != nil {
		t.Fatalf("PickRandom() error = %v", err)
	}
	if got != path {
		t.Errorf("PickRandom() = %s, want %s", got, path)
	}
	if rel := c.Rel(got); rel != "only.md" {
		t.Errorf("Rel() = %s, want only.md", rel)
	}
}

func TestCollectMissing(t *testing.T) {
	if _, err := Collect(filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestPickRandomEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.txt"), "x")

	c, err := Collect(dir, Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if _, err := c.PickRandom(); !errors.Is(err, ErrNoNotes) {
		t.Errorf("PickRandom() error = %v, want ErrNoNotes", err)
	}
}

func TestPickRandomCoversAll(t *testing.T) {
	c, err := Collect(newTree(t), Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 200 && len(seen) < 3; i++ {
		p, err := c.PickRandom()
		if err != nil {
			t.Fatalf("PickRandom() error = %v", err)
		}
		seen[p] = true
	}
	if len(seen) != 3 {
		t.Errorf("picked %d distinct notes, want 3", len(seen))
	}
}

func TestFilter(t *testing.T) {
	c, err := Collect(newTree(t), Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	got := c.Filter("golang")
	if len(got) != 1 || filepath.Base(got[0]) != "golang-notes.md" {
		t.Errorf("Filter(golang) = %v", got)
	}
	if n := len(c.Filter("")); n != 3 {
		t.Errorf("Filter(\"\") returned %d files, want 3", n)
	}

	c.SetFilter("golang")
	for i := 0; i < 10; i++ {
		p, err := c.PickRandom()
		if err != nil {
			t.Fatalf("PickRandom() error = %v", err)
		}
		if filepath.Base(p) != "golang-notes.md" {
			t.Errorf("filtered pick = %s", p)
		}
	}

	c.SetFilter("zzzzqqq")
	if _, err := c.PickRandom(); !errors.Is(err, ErrNoNotes) {
		t.Errorf("PickRandom() error = %v, want ErrNoNotes", err)
	}
}

func TestStaleRescan(t *testing.T) {
	dir := newTree(t)
	c, err := Collect(dir, Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	writeFile(t, filepath.Join(dir, "new.md"), "# new")
	if c.Len() != 3 {
		t.Fatalf("Len() = %d before rescan", c.Len())
	}

	c.MarkStale()
	if !c.Stale() {
		t.Fatal("Stale() = false after MarkStale")
	}
	if _, err := c.PickRandom(); err != nil {
		t.Fatalf("PickRandom() error = %v", err)
	}
	if c.Stale() {
		t.Error("Stale() = true after pick")
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d after rescan, want 4", c.Len())
	}
}

func TestWatch(t *testing.T) {
	dir := newTree(t)
	c, err := Collect(dir, Options{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, c, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "sub", "fresh.md"), "# fresh")

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
	if !c.Stale() {
		t.Error("collection not marked stale")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"note.md", true},
		{"note.markdown", true},
		{"note.txt", false},
		{".note.md.swp", false},
	}
	for _, tt := range tests {
		ev := fsnotify.Event{Name: filepath.Join("notes", tt.name), Op: fsnotify.Create}
		if got := relevant(ev); got != tt.want {
			t.Errorf("relevant(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
