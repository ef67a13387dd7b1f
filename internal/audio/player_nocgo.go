//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAudioDevice is returned by NewPlayer in builds without cgo.
var ErrNoAudioDevice = errors.New("audio playback requires a cgo build")

// Player is unavailable without cgo. Use Discard or --mute instead.
type Player struct{}

// NewPlayer validates config and reports that no device can be opened.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return nil, ErrNoAudioDevice
}

// PlayBlocking always fails.
func (p *Player) PlayBlocking(ctx context.Context, pcm []byte) error {
	return ErrNoAudioDevice
}
