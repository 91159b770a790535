package controller

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
)

// Ownership describes how the running controller relates to this console.
type Ownership int

const (
	// NotRunning means no controller process was found.
	NotRunning Ownership = iota
	// External means a controller runs that this console did not start,
	// typically in another terminal. It cannot be sent commands.
	External
	// Owned means this console started the controller and holds its stdin.
	Owned
)

func (o Ownership) String() string {
	switch o {
	case External:
		return "external"
	case Owned:
		return "owned"
	default:
		return "not running"
	}
}

// Running reports whether a controller process exists.
func (o Ownership) Running() bool { return o != NotRunning }

// StopOutcome tells the caller what Stop did.
type StopOutcome int

const (
	// StopRequested means abort and quit were sent to the owned controller.
	// The sensor pipe closes once it exits.
	StopRequested StopOutcome = iota
	// StopDetach means there is no owned controller to stop; the caller
	// should shut itself down and leave the external controller alone.
	StopDetach
)

// Options configures the supervisor.
type Options struct {
	// Process is the process name searched for in the process table.
	Process string
	// Command is the argv used to launch the controller.
	Command []string
	// Output receives the controller's stdout and stderr. Empty discards.
	Output string
	// Settle is the pause after each control command.
	Settle time.Duration
}

// Handle is a controller started by this console.
type Handle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	client *Client
	done   chan struct{}
	err    error

	stopping atomic.Bool
}

// Pid returns the launched process id.
func (h *Handle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Exited reports whether the launched process has been reaped.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Supervisor detects, launches and stops the data controller.
type Supervisor struct {
	opts  Options
	procs proc.Table
	log   logger.Logger

	mu     sync.Mutex
	handle *Handle
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts Options, procs proc.Table, log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Noop()
	}
	if procs == nil {
		procs = proc.System{}
	}
	return &Supervisor{opts: opts, procs: procs, log: log}
}

// Handle returns the owned controller, or nil.
func (s *Supervisor) Handle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Owned reports whether this console holds a live controller handle.
func (s *Supervisor) Owned() bool {
	h := s.Handle()
	return h != nil && !h.Exited()
}

// Detect classifies the controller's state.
func (s *Supervisor) Detect(ctx context.Context) (Ownership, error) {
	if s.Owned() {
		return Owned, nil
	}
	running, err := s.procs.Running(ctx, s.opts.Process)
	if err != nil {
		return NotRunning, errors.WrapWithCode(err, errors.ErrController,
			"Cannot read the process table", "")
	}
	if running {
		return External, nil
	}
	return NotRunning, nil
}

// Launch starts the controller with a stdin pipe and sends Begin. It is a
// no-op while an owned controller is still running. The controller is not
// tied to ctx: like a manually started one, it keeps running if the console
// exits without stopping it.
func (s *Supervisor) Launch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Owned() {
		return nil
	}
	if len(s.opts.Command) == 0 {
		return errors.New(errors.ErrController,
			"No data controller command configured",
			"Set controller.command in the config")
	}

	cmd := exec.Command(s.opts.Command[0], s.opts.Command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't create the controller's stdin pipe", "")
	}

	var out *os.File
	if s.opts.Output != "" {
		out, err = os.OpenFile(s.opts.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrController,
				"Cannot open controller output file "+s.opts.Output,
				"Check controller.output in the config")
		}
		cmd.Stdout = out
		cmd.Stderr = out
	}

	if err := cmd.Start(); err != nil {
		if out != nil {
			_ = out.Close()
		}
		return errors.WrapWithCode(err, errors.ErrController,
			"Couldn't start the data controller",
			"Make sure "+s.opts.Command[0]+" exists and is executable. Run: g2console doctor")
	}

	h := &Handle{
		cmd:    cmd,
		stdin:  stdin,
		client: NewClient(stdin, s.opts.Settle),
		done:   make(chan struct{}),
	}
	go func() {
		h.err = cmd.Wait()
		if out != nil {
			_ = out.Close()
		}
		s.log.Info("data controller (pid %d) exited: %v", h.Pid(), h.err)
		close(h.done)
	}()

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	s.log.Info("started data controller: pid %d", h.Pid())
	if err := h.client.Start(); err != nil {
		return errors.WrapWithCode(err, errors.ErrController,
			"Data controller did not accept the start command", "")
	}
	return nil
}

// Stop asks an owned controller to abort and quit. Without an owned
// controller it returns StopDetach and sends nothing.
func (s *Supervisor) Stop() (StopOutcome, error) {
	h := s.Handle()
	if h == nil || h.Exited() {
		return StopDetach, nil
	}
	s.log.Info("stopping data controller: pid %d", h.Pid())
	h.stopping.Store(true)
	if err := h.client.Stop(); err != nil {
		return StopRequested, errors.WrapWithCode(err, errors.ErrController,
			"Couldn't send the stop commands to the data controller", "")
	}
	return StopRequested, nil
}

// Wait blocks until the owned controller exits or timeout elapses. It
// returns true if the controller exited (or none is owned).
func (s *Supervisor) Wait(timeout time.Duration) bool {
	h := s.Handle()
	if h == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release closes the owned controller's stdin.
func (s *Supervisor) Release() error {
	h := s.Handle()
	if h == nil {
		return nil
	}
	return h.stdin.Close()
}

// Finish is called once the console is done with the controller. If a stop
// was requested it waits up to timeout for the controller to exit; in every
// case it closes the controller's stdin. A controller that was never asked
// to stop keeps running.
func (s *Supervisor) Finish(timeout time.Duration) error {
	h := s.Handle()
	if h == nil {
		return nil
	}
	if h.stopping.Load() && !s.Wait(timeout) {
		s.log.Warn("data controller (pid %d) still running %s after stop", h.Pid(), timeout)
	}
	if err := s.Release(); err != nil {
		return errors.Wrap(err, "Couldn't close the data controller's stdin")
	}
	return nil
}
