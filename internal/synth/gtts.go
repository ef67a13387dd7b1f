package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	gttsMaxTextSize = 5000
	gttsTimeout     = 30 * time.Second
	ffmpegTimeout   = 15 * time.Second
)

// commandRunner runs name with args, feeding stdin, and returns stdout.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	// Language code (e.g. "en", "zh-CN"); defaults to "en".
	Language string

	// Slow speech.
	Slow bool

	// Output sample rate; defaults to 24000.
	SampleRate int

	// Requests per minute to avoid being blocked; defaults to 50.
	RequestsPerMinute int
}

// GTTS implements Synthesizer with gtts-cli (Google Translate TTS) and
// ffmpeg for the MP3 to PCM conversion. It needs no API key.
type GTTS struct {
	cfg         GTTSConfig
	rateLimiter *rate.Limiter
	run         commandRunner
}

// NewGTTS creates a gTTS engine. It fails when gtts-cli or ffmpeg is not
// installed.
func NewGTTS(cfg GTTSConfig) (*GTTS, error) {
	for _, bin := range []string{"gtts-cli", "ffmpeg"} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%s not found in PATH: %w", bin, err)
		}
	}
	return newGTTSWithRunner(cfg, execCommand), nil
}

func newGTTSWithRunner(cfg GTTSConfig, run commandRunner) *GTTS {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 24000
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	return &GTTS{
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		run:         run,
	}
}

// Synthesize converts text to audio: text → gtts-cli → MP3 → ffmpeg → PCM.
func (e *GTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := checkText(EngineGTTS, text, gttsMaxTextSize); err != nil {
		return nil, err
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, newError(EngineGTTS, "rate limit wait cancelled", err)
	}

	mp3, err := e.synthesizeToMP3(ctx, text)
	if err != nil {
		return nil, newError(EngineGTTS, "MP3 generation failed", err)
	}

	pcm, err := e.convertMP3ToPCM(ctx, mp3)
	if err != nil {
		return nil, newError(EngineGTTS, "MP3 to PCM conversion failed", err)
	}

	return pcm, nil
}

func (e *GTTS) synthesizeToMP3(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, gttsTimeout)
	defer cancel()

	// "-" reads the text from stdin so long paragraphs never hit argv limits.
	args := []string{"-", "-l", e.cfg.Language}
	if e.cfg.Slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", "-")

	out, err := e.run(ctx, []byte(text), "gtts-cli", args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("gtts-cli produced no MP3 output")
	}
	return out, nil
}

func (e *GTTS) convertMP3ToPCM(ctx context.Context, mp3 []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, ffmpegTimeout)
	defer cancel()

	out, err := e.run(ctx, mp3, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(e.cfg.SampleRate),
		"-ac", "1",
		"pipe:1",
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("ffmpeg produced no PCM output")
	}
	return out, nil
}

// Info returns engine capabilities.
func (e *GTTS) Info() Info {
	return Info{
		Name:        EngineGTTS,
		SampleRate:  e.cfg.SampleRate,
		Channels:    1,
		MaxTextSize: gttsMaxTextSize,
		IsOnline:    true,
	}
}

func execCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timeout: %w", name, ctx.Err())
		}
		log.Debug("command failed", "cmd", name, "stderr", stderr.String())
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

var _ Synthesizer = (*GTTS)(nil)
