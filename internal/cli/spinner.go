package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

// spinnerMinSources is how many sources format -w or -l needs before it
// shows a spinner.
const spinnerMinSources = 4

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on statusOut while sources are formatted
// or a graph is rendered. All methods accept a nil *spinner and then only
// do what does not involve the animation.
type spinner struct {
	mu    sync.Mutex
	msg   string
	drawn int // columns on the status line, 0 when clear

	quit   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// startSpinner shows msg next to an animation until Stop is called or ctx
// is done.
func startSpinner(ctx context.Context, msg string) *spinner {
	s := &spinner{
		msg:    msg,
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.exited)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	fmt.Fprintf(statusOut, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
	s.drawn = runewidth.StringWidth(frame) + 1 + runewidth.StringWidth(s.msg)
}

func (s *spinner) clearLocked() {
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(statusOut, "\r%s\r", strings.Repeat(" ", s.drawn))
	s.drawn = 0
}

// Update replaces the message shown on the next frame.
func (s *spinner) Update(format string, args ...any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.msg = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// Above clears the status line and runs print, so that messages written
// while the spinner runs do not share its line.
func (s *spinner) Above(print func()) {
	if s == nil {
		print()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	print()
}

// Stop ends the animation and clears its line. Calling it again does
// nothing.
func (s *spinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.quit) })
	<-s.exited
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Fail stops the spinner and reports msg as an error.
func (s *spinner) Fail(msg string) {
	s.Stop()
	printError("%s", msg)
}
