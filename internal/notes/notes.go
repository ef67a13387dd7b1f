// Package notes finds the Markdown notes a run can pick from.
package notes

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"github.com/sahilm/fuzzy"
)

// ErrNoNotes is returned when a path holds no Markdown notes.
var ErrNoNotes = errors.New("no notes found")

// MarkdownExtensions lists the file patterns treated as notes.
var MarkdownExtensions = []string{
	"*.md", "*.mdown", "*.mkdn", "*.mkd", "*.markdown",
}

// Options control how a directory is searched.
type Options struct {
	// ShowAll includes files ignored by .gitignore.
	ShowAll bool

	// Ignore lists extra patterns to skip.
	Ignore []string
}

// Collection is the set of candidate notes below a root path.
type Collection struct {
	root string
	opts Options

	mu     sync.RWMutex
	files  []string
	filter string
	stale  bool
}

// Collect scans root. A file yields a collection of itself; a directory is
// searched recursively for Markdown files.
func Collect(root string, opts Options) (*Collection, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %w", root, err)
	}
	c := &Collection{root: abs, opts: opts}
	if err := c.Rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Rescan searches the root again.
func (c *Collection) Rescan() error {
	files, err := scan(c.root, c.opts)
	if err != nil {
		return err
	}
	slices.Sort(files)

	c.mu.Lock()
	c.files = files
	c.stale = false
	c.mu.Unlock()

	log.Debug("notes collected", "root", c.root, "count", len(files))
	return nil
}

func scan(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var ch chan gitcha.SearchResult
	if opts.ShowAll {
		ch, err = gitcha.FindAllFilesExcept(root, MarkdownExtensions, opts.Ignore)
	} else {
		ch, err = gitcha.FindFilesExcept(root, MarkdownExtensions, opts.Ignore)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding notes in %s: %w", root, err)
	}

	var files []string
	for res := range ch {
		files = append(files, res.Path)
	}
	return files, nil
}

// SetFilter narrows picks to files whose relative path fuzzy-matches
// pattern. An empty pattern removes the filter.
func (c *Collection) SetFilter(pattern string) {
	c.mu.Lock()
	c.filter = pattern
	c.mu.Unlock()
}

// Filter returns the files matching pattern, best match first.
func (c *Collection) Filter(pattern string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filterLocked(pattern)
}

func (c *Collection) filterLocked(pattern string) []string {
	if pattern == "" {
		return slices.Clone(c.files)
	}
	rel := make([]string, len(c.files))
	for i, f := range c.files {
		rel[i] = c.relLocked(f)
	}
	matches := fuzzy.Find(pattern, rel)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.files[m.Index])
	}
	return out
}

// PickRandom returns a random candidate. It rescans first when the
// collection was marked stale.
func (c *Collection) PickRandom() (string, error) {
	if c.Stale() {
		if err := c.Rescan(); err != nil {
			return "", err
		}
	}

	c.mu.RLock()
	candidates := c.filterLocked(c.filter)
	c.mu.RUnlock()

	if len(candidates) == 0 {
		return "", ErrNoNotes
	}
	return candidates[rand.IntN(len(candidates))], nil
}

// Files returns every candidate, sorted.
func (c *Collection) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.files)
}

// Len returns the number of candidates, ignoring the filter.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Root returns the absolute root path.
func (c *Collection) Root() string {
	return c.root
}

// Rel returns path relative to the root. For a single-file collection it
// is the file name.
func (c *Collection) Rel(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relLocked(path)
}

func (c *Collection) relLocked(path string) string {
	base := c.root
	if len(c.files) == 1 && c.files[0] == c.root {
		base = filepath.Dir(c.root)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// MarkStale makes the next pick rescan the root.
func (c *Collection) MarkStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Stale reports whether the collection needs a rescan.
func (c *Collection) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
