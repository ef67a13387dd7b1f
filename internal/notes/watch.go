package notes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watch marks c stale whenever a note below its root is created, removed
// or renamed, and then calls onChange if it is not nil. It blocks until
// ctx ends.
func Watch(ctx context.Context, c *Collection, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(c) {
		if err := watcher.Add(dir); err != nil {
			log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
			continue
		}
		log.Debug("fsnotify watching dir", "dir", dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			c.MarkStale()
			if onChange != nil {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "error", err)
		}
	}
}

// watchDirs returns the root and every directory that holds a note.
func watchDirs(c *Collection) []string {
	root := c.Root()
	files := c.Files()
	if len(files) == 1 && files[0] == root {
		return []string{filepath.Dir(root)}
	}

	seen := map[string]bool{root: true}
	dirs := []string{root}
	for _, f := range files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	for _, pattern := range MarkdownExtensions {
		if ok, _ := filepath.Match(pattern, filepath.Base(event.Name)); ok {
			return true
		}
	}
	return false
}
