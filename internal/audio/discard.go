package audio

import (
	"context"
	"time"
)

// Discard is a Sink that plays nothing. It waits for as long as the clip
// would have played so pacing matches a real device.
type Discard struct {
	SampleRate int
	Channels   int

	// Realtime disables the wait when false.
	Realtime bool
}

// NewDiscard returns a realtime Discard sink.
func NewDiscard(sampleRate, channels int) *Discard {
	return &Discard{SampleRate: sampleRate, Channels: channels, Realtime: true}
}

// PlayBlocking validates pcm and waits for its duration.
func (d *Discard) PlayBlocking(ctx context.Context, pcm []byte) error {
	if err := validateAudio(pcm, d.Channels); err != nil {
		return err
	}
	if !d.Realtime {
		return ctx.Err()
	}

	t := time.NewTimer(Duration(len(pcm), d.SampleRate, d.Channels))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Sink = (*Discard)(nil)
