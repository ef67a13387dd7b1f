package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueClosed is returned by Push once the receiver has abandoned the queue.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrQueueDrained is returned by Pop when the producer has closed the
	// queue and every item has been taken.
	ErrQueueDrained = errors.New("queue is drained")

	// ErrInvalidCapacity is returned when a queue is created without room
	// for at least one item.
	ErrInvalidCapacity = errors.New("queue capacity must be at least 1")
)

// DefaultCapacity is the number of synthesized items buffered ahead of playback.
const DefaultCapacity = 2

// Queue is a bounded FIFO shared by exactly one producer and one consumer.
// Push blocks while the queue is full and Pop blocks while it is empty.
type Queue[T any] struct {
	items chan T

	// closed when the receiver gives up
	done chan struct{}

	closeOnce   sync.Once
	abandonOnce sync.Once

	enqueued    atomic.Int64
	dequeued    atomic.Int64
	peak        atomic.Int64
	lastEnqueue atomic.Int64 // unix nanos
	lastDequeue atomic.Int64 // unix nanos
}

// Stats tracks queue throughput.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}, nil
}

// Push adds an item, blocking while the queue is full. It fails with
// ErrQueueClosed when the receiver is gone and with ctx.Err() when ctx ends
// first.
func (q *Queue[T]) Push(ctx context.Context, item T) error {
	// A receiver that already left wins over free space.
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		q.enqueued.Add(1)
		q.lastEnqueue.Store(time.Now().UnixNano())
		q.trackPeak()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest item, blocking while the queue is empty. After
// Close it keeps returning items until the queue is empty, then
// ErrQueueDrained.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	select {
	case item, ok := <-q.items:
		if !ok {
			return zero, ErrQueueDrained
		}
		q.dequeued.Add(1)
		q.lastDequeue.Store(time.Now().UnixNano())
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close marks the producer side as finished. Only the producer may call it.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.items) })
}

// Abandon tells the producer that nobody will consume further items.
// Pending and future Push calls return ErrQueueClosed.
func (q *Queue[T]) Abandon() {
	q.abandonOnce.Do(func() { close(q.done) })
}

// Size returns the number of items waiting in the queue.
func (q *Queue[T]) Size() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}

// GetStats returns current queue statistics.
func (q *Queue[T]) GetStats() Stats {
	return Stats{
		TotalEnqueued: q.enqueued.Load(),
		TotalDequeued: q.dequeued.Load(),
		CurrentSize:   q.Size(),
		PeakSize:      int(q.peak.Load()),
		LastEnqueue:   unixTime(q.lastEnqueue.Load()),
		LastDequeue:   unixTime(q.lastDequeue.Load()),
	}
}

func (q *Queue[T]) trackPeak() {
	size := int64(q.Size())
	for {
		peak := q.peak.Load()
		if size <= peak || q.peak.CompareAndSwap(peak, size) {
			return
		}
	}
}

func unixTime(nanos int64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
