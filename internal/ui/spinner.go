package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// Spinner animates a one-line status on a plain terminal while the console
// waits on something outside the dashboard, such as worker shutdown.
type Spinner struct {
	mu        sync.Mutex
	w         io.Writer
	label     string
	state     SpinnerState
	frame     int
	startTime time.Time
	lastWidth int
	stop      chan struct{}
	done      chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{w: w, label: label}
}

// Start begins the animation. Calling it twice has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.state == SpinnerInProgress {
		s.mu.Unlock()
		return
	}
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.renderLocked()
	s.mu.Unlock()

	go s.animate()
}

// Success stops the spinner and prints the success line.
func (s *Spinner) Success() { s.finish(SpinnerSuccess) }

// Fail stops the spinner and prints the failure line.
func (s *Spinner) Fail() { s.finish(SpinnerFailed) }

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Spinner) finish(final SpinnerState) {
	s.mu.Lock()
	running := s.state == SpinnerInProgress
	if running {
		close(s.stop)
	}
	s.mu.Unlock()
	if running {
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = final

	symbol, style := SymbolSuccess, SuccessStyle()
	if final == SpinnerFailed {
		symbol, style = SymbolFail, ErrorStyle()
	}
	var elapsed time.Duration
	if !s.startTime.IsZero() {
		elapsed = time.Since(s.startTime)
	}
	s.clearLocked()
	fmt.Fprintf(s.w, "%s %s %s\n", style.Render(symbol), s.label,
		MutedStyle().Render(formatDuration(elapsed)))
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(SpinnerFrames.FPS)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(SpinnerFrames.Frames)
			s.renderLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) renderLocked() {
	s.clearLocked()
	line := fmt.Sprintf("%s %s...",
		lipgloss.NewStyle().Foreground(ColorInfo).Render(SpinnerFrames.Frames[s.frame]), s.label)
	fmt.Fprint(s.w, line)
	s.lastWidth = lipgloss.Width(line)
}

func (s *Spinner) clearLocked() {
	if s.lastWidth > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.lastWidth)+"\r")
		s.lastWidth = 0
	}
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
