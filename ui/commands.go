package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/notereader/internal/notes"
	"github.com/dgnsrekt/notereader/internal/paragraph"
)

func collectNotes(cfg Config) tea.Cmd {
	return func() tea.Msg {
		c, err := notes.Collect(cfg.Path, notes.Options{ShowAll: cfg.ShowAllFiles})
		if err != nil {
			log.Error("error finding notes", "path", cfg.Path, "error", err)
			return errMsg{err}
		}
		return collectedMsg{c}
	}
}

func rescan(c *notes.Collection) tea.Cmd {
	return func() tea.Msg {
		if err := c.Rescan(); err != nil {
			return errMsg{err}
		}
		return rescannedMsg{c.Len()}
	}
}

func pickNote(c *notes.Collection) tea.Cmd {
	return func() tea.Msg {
		path, err := c.PickRandom()
		if err != nil {
			return errMsg{err}
		}
		note, err := paragraph.ReadNote(path)
		if err != nil {
			log.Error("unable to read note", "file", path, "error", err)
			return errMsg{err}
		}
		return noteMsg{note}
	}
}

// play runs in the background; the model reads progress on every tick.
func play(ctx context.Context, r Runner, paragraphs []paragraph.Paragraph) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Run(ctx, paragraphs)
		return runDoneMsg{res: res, err: err}
	}
}

func watchNotes(ctx context.Context, c *notes.Collection, changes chan<- struct{}) tea.Cmd {
	return func() tea.Msg {
		go func() {
			err := notes.Watch(ctx, c, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil {
				log.Error("unable to watch notes", "error", err)
			}
		}()
		return nil
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return notesChangedMsg{}
	}
}

func copyPath(path string) tea.Cmd {
	return func() tea.Msg {
		// Copy using OSC 52
		termenv.Copy(path)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(path)
		return nil
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func statusMessageTimeout(id int) tea.Cmd {
	return tea.Tick(statusMessageDelay, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}

func renderNote(cfg Config, body string, width int) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(cfg, body, width)
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return contentRenderedMsg(body)
		}
		return contentRenderedMsg(s)
	}
}

func glamourRender(cfg Config, markdown string, width int) (string, error) {
	if !cfg.GlamourEnabled {
		return markdown, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(cfg.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
