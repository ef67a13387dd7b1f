// Package pipeline drives one playback run of a note: paragraphs are
// synthesized ahead of playback into a bounded queue and played in order
// while progress and failures are published for the presentation layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/notereader/internal/observe"
	"github.com/dgnsrekt/notereader/internal/paragraph"
	"github.com/dgnsrekt/notereader/internal/queue"
	"github.com/dgnsrekt/notereader/internal/synth"
)

const (
	// DefaultPause is the gap between two spoken paragraphs.
	DefaultPause = time.Second

	// DefaultQueueSize is how many synthesized paragraphs may wait.
	DefaultQueueSize = queue.DefaultCapacity
)

// Sink plays one audio buffer at a time. audio.Player, audio.Discard and
// audio.MockSink satisfy it.
type Sink interface {
	PlayBlocking(ctx context.Context, pcm []byte) error
}

// ErrRunInProgress is returned by Run while another run is still active.
var ErrRunInProgress = errors.New("a playback run is already in progress")

// Item is one synthesized paragraph handed from the producer to the consumer.
type Item struct {
	Index     int
	Paragraph paragraph.Paragraph
	Audio     []byte
	Err       error
}

// Result summarizes a run.
type Result struct {
	Total  int
	Played int
	Failed int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithQueueSize sets how many synthesized paragraphs may wait for playback.
func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		c.queueSize = n
	}
}

// WithPause sets the gap after each played paragraph.
func WithPause(d time.Duration) Option {
	return func(c *Coordinator) {
		c.pause = d
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for run events.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// Coordinator runs the synthesis and playback stages of a note.
type Coordinator struct {
	synth synth.Synthesizer
	sink  Sink

	queueSize int
	pause     time.Duration
	metrics   *observe.Metrics
	logger    *log.Logger

	progress Progress
	errors   ErrorLog
	running  atomic.Bool
}

// New creates a coordinator that synthesizes with s and plays through sink.
func New(s synth.Synthesizer, sink Sink, opts ...Option) (*Coordinator, error) {
	if s == nil {
		return nil, fmt.Errorf("synthesizer cannot be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink cannot be nil")
	}

	c := &Coordinator{
		synth:     s,
		sink:      sink,
		queueSize: DefaultQueueSize,
		pause:     DefaultPause,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.queueSize < 1 {
		return nil, fmt.Errorf("%w: %d", queue.ErrInvalidCapacity, c.queueSize)
	}
	if c.pause < 0 {
		c.pause = 0
	}
	return c, nil
}

// Progress returns the progress of the current or last run.
func (c *Coordinator) Progress() *Progress {
	return &c.progress
}

// Errors returns the error log of the current or last run.
func (c *Coordinator) Errors() *ErrorLog {
	return &c.errors
}

// Running reports whether a run is in flight.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Run plays paragraphs in order and blocks until every paragraph was
// processed, playback failed, or ctx ended. Synthesis failures are logged
// and skipped; a playback failure ends the run with an error.
func (c *Coordinator) Run(ctx context.Context, paragraphs []paragraph.Paragraph) (Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunInProgress
	}
	defer c.running.Store(false)

	c.progress.Reset()
	c.errors.Clear()

	res := Result{Total: len(paragraphs)}
	if res.Total == 0 {
		return res, nil
	}

	q, err := queue.New[Item](c.queueSize)
	if err != nil {
		return res, err
	}

	if c.metrics != nil {
		c.metrics.ActiveRuns.Add(ctx, 1)
		defer c.metrics.ActiveRuns.Add(context.WithoutCancel(ctx), -1)
	}

	c.logger.Debug("run started", "paragraphs", res.Total, "queue", c.queueSize, "engine", c.synth.Info().Name)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.produce(gctx, q, paragraphs)
		return nil
	})
	g.Go(func() error {
		return c.consume(gctx, q, &res)
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("run stopped", "played", res.Played, "failed", res.Failed, "err", err)
		return res, err
	}

	c.logger.Info("run finished",
		"played", res.Played,
		"failed", res.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// produce synthesizes paragraphs one at a time and pushes them in order.
// It stops without error once the queue is abandoned or ctx ends.
func (c *Coordinator) produce(ctx context.Context, q *queue.Queue[Item], paragraphs []paragraph.Paragraph) {
	defer q.Close()

	for i, p := range paragraphs {
		start := time.Now()
		pcm, err := c.synth.Synthesize(ctx, p.CleanedText)
		if ctx.Err() != nil {
			return
		}
		if c.metrics != nil {
			c.metrics.RecordSynthesis(ctx, c.synth.Info().Name, time.Since(start), err)
		}

		item := Item{Index: i, Paragraph: p, Audio: pcm, Err: err}
		if err := q.Push(ctx, item); err != nil {
			return
		}
	}
}

// consume drains q in order, playing successes and logging failures.
func (c *Coordinator) consume(ctx context.Context, q *queue.Queue[Item], res *Result) error {
	defer q.Abandon()

	processed := 0
	for {
		item, err := q.Pop(ctx)
		if errors.Is(err, queue.ErrQueueDrained) {
			return nil
		}
		if err != nil {
			return err
		}
		processed++

		if item.Err != nil {
			res.Failed++
			c.errors.Append(item.Err.Error())
			c.logger.Warn("synthesis failed", "paragraph", item.Index+1, "err", item.Err)
			c.recordParagraph(ctx, observe.StatusFailed)
			c.progress.Store(percent(processed, res.Total))
			continue
		}

		start := time.Now()
		if err := c.sink.PlayBlocking(ctx, item.Audio); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("playing paragraph %d: %w", item.Index+1, err)
		}
		if c.metrics != nil {
			c.metrics.RecordPlayback(ctx, time.Since(start))
		}

		res.Played++
		c.recordParagraph(ctx, observe.StatusPlayed)
		c.progress.Store(percent(processed, res.Total))

		if err := sleep(ctx, c.pause); err != nil {
			return err
		}
	}
}

func (c *Coordinator) recordParagraph(ctx context.Context, status string) {
	if c.metrics != nil {
		c.metrics.RecordParagraph(ctx, status)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
