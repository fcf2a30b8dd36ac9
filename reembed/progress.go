package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports long-running batch progress to a writer,
// throttled to one line per interval records. Safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	writer   io.Writer
	total    int
	interval int
	done     int
	reported int
	began    time.Time
}

// NewProgressTracker builds a tracker over total records that writes a
// progress line every interval records, typically to os.Stderr.
func NewProgressTracker(writer io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{
		writer:   writer,
		total:    total,
		interval: interval,
	}
}

// Start marks the beginning of the run. Updates before Start are ignored.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.began = time.Now()
	p.done = 0
	p.reported = 0
}

// Update records that current records have completed so far, emitting a
// progress line when a full interval has elapsed since the last one.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}

	p.done = min(current, p.total)
	if p.done-p.reported >= p.interval {
		p.reported = p.done
		p.emit()
	}
}

// Finish forces a final progress line and terminates it with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}

	p.done = p.total
	p.emit()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start, or zero before Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

// emit writes one progress line. Callers hold the lock.
func (p *ProgressTracker) emit() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}

	fmt.Fprintf(p.writer, "\r%d/%d (%.1f%%) %.1f records/s",
		p.done, p.total, pct, ratePerSecond(p.done, time.Since(p.began)))
}

// ratePerSecond guards against an elapsed reading below the clock
// resolution, which would otherwise print +Inf.
func ratePerSecond(done int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(done) / elapsed.Seconds()
}
