package pipeline

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Progress is a percentage in [0,100] shared between a run and its readers.
type Progress struct {
	v atomic.Int32
}

// Load returns the current percentage without blocking.
func (p *Progress) Load() int {
	return int(p.v.Load())
}

// Store publishes a percentage, clamped to [0,100].
func (p *Progress) Store(percent int) {
	p.v.Store(int32(min(max(percent, 0), 100)))
}

// Reset sets the percentage back to 0.
func (p *Progress) Reset() {
	p.v.Store(0)
}

// percent computes floor(done*100/total).
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// ErrorLog collects failure descriptions for one run. Entries are only
// appended until Clear.
type ErrorLog struct {
	mu      sync.Mutex
	buf     strings.Builder
	entries int
}

// Append adds line followed by a newline.
func (l *ErrorLog) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(line)
	l.buf.WriteByte('\n')
	l.entries++
}

// String returns every entry, newline terminated.
func (l *ErrorLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Len returns the number of entries.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

// Clear drops all entries.
func (l *ErrorLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Reset()
	l.entries = 0
}
