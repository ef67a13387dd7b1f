package audio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAudio is returned for buffers that cannot be PCM of the
// configured format.
var ErrInvalidAudio = errors.New("invalid audio data")

// Sink consumes one audio buffer at a time.
type Sink interface {
	// PlayBlocking plays pcm and returns once playback finished.
	PlayBlocking(ctx context.Context, pcm []byte) error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int     // must match the synthesizer output
	Channels   int     // 1 = mono, 2 = stereo
	Volume     float64 // 0.0 to 1.0
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 16000,
		Channels:   1,
		Volume:     1.0,
		BufferSize: 100 * time.Millisecond,
	}
}

var supportedSampleRates = map[int]bool{
	8000: true, 16000: true, 22050: true, 24000: true, 44100: true, 48000: true,
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	if !supportedSampleRates[config.SampleRate] {
		return fmt.Errorf("unsupported sample rate %d Hz", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", config.Volume)
	}
	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// validateAudio checks that pcm holds whole 16-bit frames.
func validateAudio(pcm []byte, channels int) error {
	if len(pcm) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidAudio)
	}
	if frame := 2 * channels; len(pcm)%frame != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of the %d byte frame", ErrInvalidAudio, len(pcm), frame)
	}
	return nil
}

// Duration returns how long size bytes of 16-bit PCM play.
func Duration(size, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samples := size / (channels * 2)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
