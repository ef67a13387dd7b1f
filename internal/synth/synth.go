// Package synth converts cleaned paragraph text into PCM audio.
//
// Engines return raw signed 16-bit little-endian PCM at the sample rate
// reported by Info, so the audio package can play the result without a
// decoder. Engines do not retry and do not cache.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Engine names accepted by New.
const (
	EnginePolly = "polly"
	EngineGTTS  = "gtts"
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned when text exceeds the engine limit.
	ErrTextTooLong = errors.New("text too long")

	// ErrMissingCredentials indicates that the engine needs credentials
	// that were not configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrUnknownEngine indicates an engine name New does not know.
	ErrUnknownEngine = errors.New("unknown TTS engine")
)

// Synthesizer is the boundary to a speech service.
type Synthesizer interface {
	// Synthesize converts text to PCM audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Info describes the audio the engine produces.
	Info() Info
}

// Info describes engine output.
type Info struct {
	Name        string
	SampleRate  int
	Channels    int
	MaxTextSize int
	IsOnline    bool
}

// SynthesisError describes a failed synthesis call.
type SynthesisError struct {
	Engine  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Engine, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Engine, e.Message)
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

func newError(engine, message string, cause error) *SynthesisError {
	return &SynthesisError{Engine: engine, Message: message, Cause: cause}
}

// Config selects and configures an engine.
type Config struct {
	Polly PollyConfig
	GTTS  GTTSConfig
}

// New creates the engine called name.
func New(ctx context.Context, name string, cfg Config) (Synthesizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EnginePolly, "":
		return NewPolly(ctx, cfg.Polly)
	case EngineGTTS:
		return NewGTTS(cfg.GTTS)
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", ErrUnknownEngine, name, EnginePolly, EngineGTTS)
	}
}

func checkText(engine, text string, limit int) error {
	if strings.TrimSpace(text) == "" {
		return newError(engine, "invalid input", ErrEmptyText)
	}
	// limits are in characters, not bytes
	if n := utf8.RuneCountInString(text); limit > 0 && n > limit {
		return newError(engine, fmt.Sprintf("%d characters (max %d)", n, limit), ErrTextTooLong)
	}
	return nil
}
