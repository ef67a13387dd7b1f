// Package ui is the Bubble Tea front end: it picks a note, starts a
// playback run and shows its progress and errors.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"
	te "github.com/muesli/termenv"

	"github.com/dgnsrekt/notereader/internal/notes"
	"github.com/dgnsrekt/notereader/internal/paragraph"
	"github.com/dgnsrekt/notereader/internal/pipeline"
)

const (
	statusMessageDelay = time.Second * 3
	refreshInterval    = time.Second
	ellipsis           = "…"

	// header, file, progress, status, help and spacing lines
	chromeHeight = 7

	msgNoPath    = "please first load a path"
	msgNoNotes   = "no notes found"
	msgBusy      = "a note is still playing"
	msgCopied    = "copied path"
	msgRescanned = "rescanned notes"
)

// Runner plays the paragraphs of one note. *pipeline.Coordinator
// implements it.
type Runner interface {
	Run(ctx context.Context, paragraphs []paragraph.Paragraph) (pipeline.Result, error)
	Running() bool
	Progress() *pipeline.Progress
	Errors() *pipeline.ErrorLog
}

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config, runner Runner) *tea.Program {
	log.Debug(
		"Starting notereader",
		"path", cfg.Path,
		"engine", cfg.Engine,
		"glamour", cfg.GlamourEnabled,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	opts = append(opts, tea.WithContext(ctx))
	return tea.NewProgram(newModel(ctx, cfg, runner), opts...)
}

type (
	errMsg       struct{ err error }
	collectedMsg struct{ collection *notes.Collection }
	rescannedMsg struct{ count int }
	noteMsg      struct{ note paragraph.Note }
	runDoneMsg   struct {
		res pipeline.Result
		err error
	}
	contentRenderedMsg      string
	notesChangedMsg         struct{}
	tickMsg                 time.Time
	statusMessageTimeoutMsg struct{ id int }
)

func (e errMsg) Error() string { return e.err.Error() }

type model struct {
	cfg    Config
	ctx    context.Context
	runner Runner

	collection *notes.Collection
	matching   int
	changes    chan struct{}

	note     *paragraph.Note
	rendered string
	picking  bool
	playing  bool
	percent  int
	errLog   string
	lastRun  *pipeline.Result
	fatalErr error

	statusMessage string
	statusID      int

	width    int
	height   int
	viewport viewport.Model
	progress progress.Model
	spinner  spinner.Model
}

func newModel(ctx context.Context, cfg Config, runner Runner) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pathStyle

	return model{
		cfg:      cfg,
		ctx:      ctx,
		runner:   runner,
		changes:  make(chan struct{}, 1),
		viewport: viewport.New(0, 0),
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), m.spinner.Tick}
	if m.cfg.Path != "" {
		cmds = append(cmds, collectNotes(m.cfg))
	}
	return tea.Batch(cmds...)
}

// busy is true from the play key press until the run reports back.
func (m model) busy() bool {
	return m.picking || m.playing || m.runner.Running()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "p", " ":
			switch {
			case m.busy():
				cmd := m.showStatusMessage(msgBusy)
				return m, cmd
			case m.collection == nil:
				cmd := m.showStatusMessage(msgNoPath)
				return m, cmd
			}
			m.picking = true
			return m, pickNote(m.collection)

		case "r":
			if m.collection == nil {
				cmd := m.showStatusMessage(msgNoPath)
				return m, cmd
			}
			return m, rescan(m.collection)

		case "y":
			if m.note == nil {
				return m, nil
			}
			cmd := m.showStatusMessage(msgCopied)
			return m, tea.Batch(copyPath(m.note.Path), cmd)
		}

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		if m.note != nil {
			cmds = append(cmds, renderNote(m.cfg, m.note.Body, m.contentWidth()))
		}

	case collectedMsg:
		m.collection = msg.collection
		log.Info("notes collected", "root", msg.collection.Root(), "count", msg.collection.Len())
		if m.cfg.Match != "" {
			m.collection.SetFilter(m.cfg.Match)
		}
		m.countMatching()
		cmds = append(cmds, watchNotes(m.ctx, m.collection, m.changes), waitForChange(m.changes))
		if msg.collection.Len() == 0 {
			cmds = append(cmds, m.showStatusMessage(msgNoNotes))
		}

	case rescannedMsg:
		m.countMatching()
		cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("%s (%d)", msgRescanned, msg.count)))

	case notesChangedMsg:
		log.Debug("notes changed on disk")
		cmds = append(cmds, waitForChange(m.changes))

	case noteMsg:
		m.picking = false
		if m.playing || m.runner.Running() {
			log.Debug("ignoring pick while a note is playing", "file", msg.note.Path)
			return m, nil
		}
		note := msg.note
		m.note = &note
		m.playing = true
		m.percent = 0
		m.errLog = ""
		m.lastRun = nil
		m.rendered = ""
		m.viewport.SetContent(note.Body)
		m.viewport.GotoTop()
		log.Info("playing note", "file", note.Path, "paragraphs", len(note.Paragraphs))
		cmds = append(cmds,
			renderNote(m.cfg, note.Body, m.contentWidth()),
			play(m.ctx, m.runner, note.Paragraphs),
			m.spinner.Tick,
		)

	case contentRenderedMsg:
		m.rendered = string(msg)
		m.refreshContent()

	case runDoneMsg:
		if errors.Is(msg.err, pipeline.ErrRunInProgress) {
			return m, nil
		}
		m.playing = false
		m.percent = m.runner.Progress().Load()
		m.errLog = m.runner.Errors().String()
		res := msg.res
		m.lastRun = &res
		m.refreshContent()
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			cmds = append(cmds, m.showStatusMessage("playback stopped: "+msg.err.Error()))
		}

	case tickMsg:
		m.percent = m.runner.Progress().Load()
		if errLog := m.runner.Errors().String(); errLog != m.errLog {
			m.errLog = errLog
			m.refreshContent()
		}
		cmds = append(cmds, tick())

	case statusMessageTimeoutMsg:
		// a newer message restarted the timeout
		if msg.id == m.statusID {
			m.statusMessage = ""
		}

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case errMsg:
		m.picking = false
		if errors.Is(msg.err, notes.ErrNoNotes) {
			cmd := m.showStatusMessage(msgNoNotes)
			return m, cmd
		}
		if m.collection == nil {
			m.fatalErr = msg.err
			return m, nil
		}
		cmd := m.showStatusMessage(msg.err.Error())
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = max(0, h-chromeHeight)
	m.progress.Width = max(10, min(w-4, 80))
}

func (m model) contentWidth() int {
	width := m.viewport.Width
	if m.cfg.GlamourMaxWidth > 0 {
		width = min(width, int(m.cfg.GlamourMaxWidth)) //nolint:gosec
	}
	return max(0, width)
}

// refreshContent shows the error log when the run reported failures and
// the note otherwise.
func (m *model) refreshContent() {
	switch {
	case m.errLog != "":
		m.viewport.SetContent(errorLogStyle.Render(strings.TrimRight(m.errLog, "\n")))
	case m.rendered != "":
		m.viewport.SetContent(m.rendered)
	case m.note != nil:
		m.viewport.SetContent(m.note.Body)
	}
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	m.statusID++
	return statusMessageTimeout(m.statusID)
}

// countMatching caches how many notes the match pattern selects.
func (m *model) countMatching() {
	if m.collection == nil || m.cfg.Match == "" {
		m.matching = 0
		return
	}
	m.matching = len(m.collection.Filter(m.cfg.Match))
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", logoView(m.cfg.Engine))

	path := m.cfg.Path
	if path == "" {
		path = msgNoPath
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("path"), m.truncated(path, 5))

	file := "-"
	if m.note != nil && m.collection != nil {
		file = m.collection.Rel(m.note.Path)
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("file"), pathStyle.Render(m.truncated(file, 5)))

	bar := m.progress.ViewAs(float64(m.percent) / 100)
	if m.busy() {
		bar = m.spinner.View() + " " + bar
	} else {
		bar = "  " + bar
	}
	fmt.Fprintf(&b, "%s\n", bar)

	fmt.Fprintf(&b, "%s\n", m.statusLine())
	fmt.Fprintf(&b, "%s\n", m.viewport.View())
	fmt.Fprint(&b, subtleStyle.Render("p/space play • r rescan • y copy path • q quit"))

	return b.String()
}

func (m model) statusLine() string {
	switch {
	case m.statusMessage != "":
		return statusMessageStyle.Render(m.statusMessage)
	case m.lastRun != nil:
		return subtleStyle.Render(fmt.Sprintf("played %d of %d, %d failed",
			m.lastRun.Played, m.lastRun.Total, m.lastRun.Failed))
	case m.collection != nil && m.cfg.Match != "":
		return subtleStyle.Render(fmt.Sprintf("%d of %d notes match %q",
			m.matching, m.collection.Len(), m.cfg.Match))
	case m.collection != nil:
		return subtleStyle.Render(fmt.Sprintf("%d notes", m.collection.Len()))
	}
	return ""
}

func (m model) truncated(s string, reserve int) string {
	if m.width <= reserve {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width-reserve), ellipsis) //nolint:gosec
}
