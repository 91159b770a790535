// Package controller starts, detects and stops the Grape 2 data controller
// ("datactrlr"), the process that drives the receiver board and writes the
// sensor pipe.
//
// The controller is steered through its standard input with single
// keystroke commands, modelled here as the closed Command set.
package controller

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Command is a control keystroke understood by the data controller.
type Command int

const (
	// Begin starts data collection.
	Begin Command = iota
	// Abort interrupts the current collection (ESC).
	Abort
	// Quit exits the controller.
	Quit
)

// Bytes returns the exact bytes written for the command.
func (c Command) Bytes() []byte {
	switch c {
	case Begin:
		return []byte("r\n")
	case Abort:
		return []byte{0x1b}
	case Quit:
		return []byte("q\n")
	default:
		return nil
	}
}

func (c Command) String() string {
	switch c {
	case Begin:
		return "begin"
	case Abort:
		return "abort"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// DefaultSettle is the pause after each command, giving the controller's
// keyboard poll time to consume it before the next one arrives.
const DefaultSettle = 100 * time.Millisecond

// Client writes commands to a controller's standard input.
type Client struct {
	mu     sync.Mutex
	w      io.Writer
	settle time.Duration
	sleep  func(time.Duration)
}

// NewClient creates a client writing to w.
func NewClient(w io.Writer, settle time.Duration) *Client {
	return &Client{w: w, settle: settle, sleep: time.Sleep}
}

// Send writes one command, then waits the settle time.
func (c *Client) Send(cmd Command) error {
	b := cmd.Bytes()
	if b == nil {
		return fmt.Errorf("unknown controller command %d", int(cmd))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.w.Write(b); err != nil {
		return fmt.Errorf("sending %s: %w", cmd, err)
	}
	if c.settle > 0 {
		c.sleep(c.settle)
	}
	return nil
}

// Start begins data collection.
func (c *Client) Start() error {
	return c.Send(Begin)
}

// Stop aborts collection and quits the controller.
func (c *Client) Stop() error {
	if err := c.Send(Abort); err != nil {
		return err
	}
	return c.Send(Quit)
}
