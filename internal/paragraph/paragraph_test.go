package paragraph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	got := Split("line1\n\nline2\nline2b\n\n\nline3", "note")

	wantOriginal := []string{"note", "line1\n", "line2\nline2b\n", "line3\n"}
	wantCleaned := []string{"note", "line1", "line2,line2b", "line3"}

	if len(got) != len(wantOriginal) {
		t.Fatalf("Split() returned %d paragraphs, want %d: %#v", len(got), len(wantOriginal), got)
	}
	for i, p := range got {
		if p.OriginalText != wantOriginal[i] {
			t.Errorf("paragraph %d original = %q, want %q", i, p.OriginalText, wantOriginal[i])
		}
		if p.CleanedText != wantCleaned[i] {
			t.Errorf("paragraph %d cleaned = %q, want %q", i, p.CleanedText, wantCleaned[i])
		}
	}
}

func TestSplitEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		stem    string
		want    []string
	}{
		{"empty file with stem", "", "title", []string{"title"}},
		{"empty file without stem", "", "", nil},
		{"only blank lines", "\n\n  \n\t\n", "", nil},
		{"leading blank lines", "\n\nbody", "", []string{"body\n"}},
		{"crlf line endings", "a\r\nb\r\n\r\nc", "", []string{"a\nb\n", "c\n"}},
		{"trailing blank lines", "a\n\n\n", "", []string{"a\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.content, tt.stem)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() returned %d paragraphs, want %d: %#v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].OriginalText != tt.want[i] {
					t.Errorf("paragraph %d = %q, want %q", i, got[i].OriginalText, tt.want[i])
				}
			}
		})
	}
}

func TestSplitLongLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	content := "intro\n\n" + long + "\n\nafter the long line\n"

	got := Split(content, "note")
	want := []string{"note", "intro\n", long + "\n", "after the long line\n"}
	if len(got) != len(want) {
		t.Fatalf("Split() returned %d paragraphs, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].OriginalText != want[i] {
			t.Errorf("paragraph %d has %d bytes, want %d", i, len(got[i].OriginalText), len(want[i]))
		}
	}
}

func TestNewComputesCleanedText(t *testing.T) {
	p := New("![img](http://x/y.png)\n")
	if p.Speakable() {
		t.Errorf("expected paragraph to be unspeakable, cleaned = %q", p.CleanedText)
	}
	if p.OriginalText != "![img](http://x/y.png)\n" {
		t.Errorf("original text changed: %q", p.OriginalText)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/notes/daily.md", "daily"},
		{"relative/a.b.md", "a.b"},
		{"no-extension", "no-extension"},
		{filepath.Join("x", "y.markdown"), "y"},
	}
	for _, tt := range tests {
		if got := Stem(tt.path); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestReadNote(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groceries.md")
	content := "---\ntags: [home]\n---\nmilk\neggs\n\nbread\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	note, err := ReadNote(path)
	if err != nil {
		t.Fatalf("ReadNote() error = %v", err)
	}
	if note.Stem != "groceries" {
		t.Errorf("Stem = %q, want groceries", note.Stem)
	}
	if note.Body != "milk\neggs\n\nbread\n" {
		t.Errorf("Body = %q", note.Body)
	}

	want := []string{"groceries", "milk,eggs", "bread"}
	if len(note.Paragraphs) != len(want) {
		t.Fatalf("got %d paragraphs, want %d", len(note.Paragraphs), len(want))
	}
	for i, p := range note.Paragraphs {
		if p.CleanedText != want[i] {
			t.Errorf("paragraph %d = %q, want %q", i, p.CleanedText, want[i])
		}
	}
}

func TestReadNoteErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadNote(filepath.Join(dir, "missing.md")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := ReadNote(dir); !errors.Is(err, ErrNotAFile) {
		t.Errorf("expected ErrNotAFile, got %v", err)
	}
}

func TestRemoveFrontmatter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"---\na: b\n---\nbody", "body"},
		{"no front matter", "no front matter"},
		{"----\nrule", "----\nrule"},
		{"---\nunterminated", "---\nunterminated"},
	}
	for _, tt := range tests {
		if got := string(RemoveFrontmatter([]byte(tt.in))); got != tt.want {
			t.Errorf("RemoveFrontmatter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
