package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	// OnPlay runs when a clip starts playing, with its 1-based play number.
	OnPlay func(n int, pcm []byte)

	// OnFinish runs when a clip finished playing.
	OnFinish func(n int)
}

// MockSink implements Sink for tests. It records every clip and simulates
// playback without producing sound.
type MockSink struct {
	// Delay is how long each simulated clip plays.
	Delay time.Duration

	// Gate, when set, blocks every clip until a value is received.
	Gate chan struct{}

	// FailOn makes the nth play (1-based) return the mapped error.
	FailOn map[int]error

	callbacks MockCallbacks

	mu     sync.Mutex
	played [][]byte

	playCount atomic.Int64
	playing   atomic.Bool
}

// NewMockSink creates a mock sink with the given callbacks.
func NewMockSink(callbacks MockCallbacks) *MockSink {
	return &MockSink{callbacks: callbacks}
}

// PlayBlocking records pcm and simulates playback.
func (m *MockSink) PlayBlocking(ctx context.Context, pcm []byte) error {
	n := int(m.playCount.Add(1))

	m.mu.Lock()
	clip := make([]byte, len(pcm))
	copy(clip, pcm)
	m.played = append(m.played, clip)
	m.mu.Unlock()

	m.playing.Store(true)
	defer m.playing.Store(false)

	if m.callbacks.OnPlay != nil {
		m.callbacks.OnPlay(n, pcm)
	}

	if err, ok := m.FailOn[n]; ok {
		return err
	}

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if m.callbacks.OnFinish != nil {
		m.callbacks.OnFinish(n)
	}
	return nil
}

// Played returns copies of every clip in play order.
func (m *MockSink) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.played))
	copy(out, m.played)
	return out
}

// PlayCount returns how many clips were started.
func (m *MockSink) PlayCount() int {
	return int(m.playCount.Load())
}

// IsPlaying reports whether a clip is in progress.
func (m *MockSink) IsPlaying() bool {
	return m.playing.Load()
}

var _ Sink = (*MockSink)(nil)
