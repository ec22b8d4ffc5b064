package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/viewgrid/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line while views load. It implements
// observability.FetchHooks so that the line counts fetched views; events
// are forwarded to next.
type Spinner struct {
	w       io.Writer
	message string
	next    observability.FetchHooks

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	width   int
	started int
	fetched int
	failed  int
}

// newSpinner creates a spinner writing to w that stops when ctx is done.
func newSpinner(parent context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(parent)
	return &Spinner{
		w:       w,
		message: message,
		next:    observability.NoopFetchHooks{},
		parent:  parent,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Chain forwards fetch events to h after counting them.
func (s *Spinner) Chain(h observability.FetchHooks) *Spinner {
	if h != nil {
		s.next = h
	}
	return s
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.status()
	s.width = max(s.width, len(line)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
}

// status renders the message and the fetch counts. Callers hold mu.
func (s *Spinner) status() string {
	if s.started == 0 {
		return s.message
	}
	line := fmt.Sprintf("%s %d/%d views", s.message, s.fetched+s.failed, s.started)
	if s.failed > 0 {
		line += fmt.Sprintf(", %d failed", s.failed)
	}
	return line
}

// Stop ends the animation and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's parent context is done.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// Counts returns the started, fetched and failed view loads.
func (s *Spinner) Counts() (started, fetched, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.fetched, s.failed
}

func (s *Spinner) OnFetchStart(ctx context.Context, imageID, view string) {
	s.mu.Lock()
	s.started++
	s.mu.Unlock()
	s.next.OnFetchStart(ctx, imageID, view)
}

func (s *Spinner) OnFetchComplete(ctx context.Context, imageID, view string, size int, d time.Duration, err error) {
	s.mu.Lock()
	if err != nil {
		s.failed++
	} else {
		s.fetched++
	}
	s.mu.Unlock()
	s.next.OnFetchComplete(ctx, imageID, view, size, d, err)
}

var _ observability.FetchHooks = (*Spinner)(nil)
