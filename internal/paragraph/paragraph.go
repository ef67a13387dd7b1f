package paragraph

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotAFile is returned when a note path points at a directory.
var ErrNotAFile = errors.New("note path is a directory")

// Paragraph is one speakable unit of a note.
type Paragraph struct {
	// OriginalText is the block as it appears in the note, newlines included.
	OriginalText string

	// CleanedText is the synthesis-ready form of OriginalText.
	CleanedText string
}

// New creates a paragraph and computes its cleaned text.
func New(raw string) Paragraph {
	return Paragraph{
		OriginalText: raw,
		CleanedText:  Clean(raw),
	}
}

// Speakable reports whether cleaning left anything to synthesize.
func (p Paragraph) Speakable() bool {
	return p.CleanedText != ""
}

// Note is a note file broken into paragraphs.
type Note struct {
	Path       string
	Stem       string
	Body       string
	Paragraphs []Paragraph
}

// Split divides note content into paragraphs at blank lines. When stem is
// not empty it becomes the first paragraph, so the note title is spoken
// before its content.
func Split(content, stem string) []Paragraph {
	var paragraphs []Paragraph
	if stem != "" {
		paragraphs = append(paragraphs, New(stem))
	}

	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		paragraphs = append(paragraphs, New(buf.String()))
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()

	return paragraphs
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadNote reads the note at path and splits it into paragraphs. YAML front
// matter is not part of the spoken content.
func ReadNote(path string) (Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Note{}, fmt.Errorf("unable to stat note: %w", err)
	}
	if info.IsDir() {
		return Note{}, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Note{}, fmt.Errorf("unable to read note: %w", err)
	}
	body := string(RemoveFrontmatter(b))
	stem := Stem(path)

	return Note{
		Path:       path,
		Stem:       stem,
		Body:       body,
		Paragraphs: Split(body, stem),
	}, nil
}

var yamlPattern = regexp.MustCompile(`(?m)^---\r?\n(\s*\r?\n)?`)

// RemoveFrontmatter strips a leading YAML front matter block.
func RemoveFrontmatter(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("---")) {
		return content
	}
	matches := yamlPattern.FindAllIndex(content, 2)
	if len(matches) < 2 || matches[0][0] != 0 {
		return content
	}
	return content[matches[1][1]:]
}
