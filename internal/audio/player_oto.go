//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player implements Sink with oto. Only one oto context may exist per
// process, so a Player should be created once and shared.
type Player struct {
	context *oto.Context
	config  PlayerConfig

	// one clip at a time
	mu sync.Mutex

	pollInterval time.Duration
}

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &Player{
		context:      ctx,
		config:       config,
		pollInterval: 20 * time.Millisecond,
	}, nil
}

// PlayBlocking plays pcm and waits for the clip to end. When ctx ends
// first the clip is stopped and ctx.Err() returned.
func (p *Player) PlayBlocking(ctx context.Context, pcm []byte) error {
	if err := validateAudio(pcm, p.config.Channels); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// oto reads asynchronously, the buffer must stay alive until the end.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	defer func() { _ = player.Close() }()

	player.SetVolume(p.config.Volume)
	player.Play()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	runtime.KeepAlive(data)
	return nil
}
