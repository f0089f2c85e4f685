package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Progress tracks and displays scan progress, counted in targets.
type Progress struct {
	total     int
	completed atomic.Int64
	findings  atomic.Int64
	errors    atomic.Int64
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	quiet     bool

	mu sync.Mutex
	w  io.Writer
}

// NewProgress creates a progress tracker drawing on w (stderr if nil).
// Call Start() to begin display updates.
func NewProgress(w io.Writer, total int, quiet bool) *Progress {
	if w == nil {
		w = os.Stderr
	}
	return &Progress{
		total:   total,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		quiet:   quiet,
		w:       w,
	}
}

// Start begins periodically redrawing the progress line.
func (p *Progress) Start() {
	if p.quiet {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Redraw()
			case <-p.done:
				p.Redraw()
				p.mu.Lock()
				fmt.Fprint(p.w, "\n")
				p.mu.Unlock()
				return
			}
		}
	}()
}

// Increment records a finished target.
func (p *Progress) Increment() {
	p.completed.Add(1)
}

// AddFindings records n new findings.
func (p *Progress) AddFindings(n int) {
	p.findings.Add(int64(n))
}

// IncrementErrors records a failed probe.
func (p *Progress) IncrementErrors() {
	p.errors.Add(1)
}

// Stop ends the progress display and waits for the final line.
func (p *Progress) Stop() {
	close(p.done)
	<-p.stopped
}

// ClearLine erases the progress line so another line can be printed.
func (p *Progress) ClearLine() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, "\r\033[K")
}

// Redraw prints the current progress line.
func (p *Progress) Redraw() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, p.line())
}

func (p *Progress) line() string {
	completed := p.completed.Load()
	elapsed := time.Since(p.start)

	pct := float64(0)
	if p.total > 0 {
		pct = float64(completed) / float64(p.total) * 100
	}

	eta := ""
	if completed > 0 && completed < int64(p.total) {
		perTarget := elapsed / time.Duration(completed)
		eta = fmt.Sprintf(" | ETA: %s", (perTarget * time.Duration(int64(p.total)-completed)).Round(time.Second))
	}

	return fmt.Sprintf("\r\033[K[%3.0f%%] %d/%d targets | Findings: %d | Errors: %d%s",
		pct, completed, p.total, p.findings.Load(), p.errors.Load(), eta)
}

// Writer returns a writer for log lines that share the terminal with the
// progress line: each write clears the line first and redraws it after.
func (p *Progress) Writer() io.Writer {
	if p.quiet {
		return p.w
	}
	return progressWriter{p}
}

type progressWriter struct{ p *Progress }

func (pw progressWriter) Write(b []byte) (int, error) {
	pw.p.mu.Lock()
	defer pw.p.mu.Unlock()
	fmt.Fprint(pw.p.w, "\r\033[K")
	n, err := pw.p.w.Write(b)
	fmt.Fprint(pw.p.w, pw.p.line())
	return n, err
}
