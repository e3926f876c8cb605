package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(label string)
	Finish(message string)
	Error(err error)
}

// SimpleProgress redraws "label... 12s" on one line until the operation
// finishes.
type SimpleProgress struct {
	mu       sync.Mutex
	label    string
	started  time.Time
	writer   io.Writer
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer:   w,
		interval: time.Second,
	}
}

// Start renders the label and keeps the elapsed time current.
func (p *SimpleProgress) Start(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.halt()
	p.label = label
	p.started = time.Now()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.render()

	go p.tick(p.stop, p.done)
}

// Finish stops the ticker and prints the final line.
func (p *SimpleProgress) Finish(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.halt()
	fmt.Fprintf(p.writer, "\r✓ %s: %s (%s)\n", p.label, message, p.elapsed())
}

// Error stops the ticker and reports err.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.halt()
	fmt.Fprintf(p.writer, "\r✗ %s: %v (%s)\n", p.label, err, p.elapsed())
}

func (p *SimpleProgress) tick(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.render()
			p.mu.Unlock()
		}
	}
}

// halt stops a running ticker. Callers hold mu; the ticker goroutine may be
// waiting on it, so mu is released while waiting for the goroutine to exit.
func (p *SimpleProgress) halt() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	done := p.done
	p.stop, p.done = nil, nil

	p.mu.Unlock()
	<-done
	p.mu.Lock()
}

func (p *SimpleProgress) elapsed() time.Duration {
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started).Round(time.Second)
}

func (p *SimpleProgress) render() {
	fmt.Fprintf(p.writer, "\r%s... %s", p.label, p.elapsed())
}
