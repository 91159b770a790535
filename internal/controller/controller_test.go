package controller

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
)

func TestCommandBytes(t *testing.T) {
	tests := []struct {
		cmd  Command
		want []byte
		name string
	}{
		{Begin, []byte("r\n"), "begin"},
		{Abort, []byte{0x1b}, "abort"},
		{Quit, []byte("q\n"), "quit"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cmd.Bytes())
		assert.Equal(t, tt.name, tt.cmd.String())
	}
	assert.Nil(t, Command(42).Bytes())
	assert.Equal(t, "Command(42)", Command(42).String())
}

func TestClientStopSequence(t *testing.T) {
	var buf bytes.Buffer
	var slept []time.Duration
	c := NewClient(&buf, 100*time.Millisecond)
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	assert.Equal(t, "r\n\x1bq\n", buf.String())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, slept)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestClientWriteError(t *testing.T) {
	c := NewClient(brokenWriter{}, 0)
	err := c.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending abort")
	assert.Error(t, c.Send(Command(9)))
}

func TestDetect(t *testing.T) {
	ctx := context.Background()

	s := NewSupervisor(Options{Process: "datactrlr"}, proc.Static{}, nil)
	own, err := s.Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, NotRunning, own)
	assert.False(t, own.Running())

	s = NewSupervisor(Options{Process: "datactrlr"}, proc.Static{"datactrlr": true}, nil)
	own, err = s.Detect(ctx)
	require.NoError(t, err)
	assert.Equal(t, External, own)
	assert.True(t, own.Running())
	assert.Equal(t, "external", own.String())
}

func TestStopWithoutHandleDetaches(t *testing.T) {
	s := NewSupervisor(Options{Process: "datactrlr"}, proc.Static{"datactrlr": true}, nil)
	outcome, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopDetach, outcome)
	assert.True(t, s.Wait(time.Millisecond))
	assert.NoError(t, s.Release())
}

func TestLaunchSendsBeginAndStopSendsAbortQuit(t *testing.T) {
	dir := t.TempDir()
	capture := filepath.Join(dir, "stdin.bin")

	s := NewSupervisor(Options{
		Process: "datactrlr",
		Command: []string{"/bin/sh", "-c", "cat > " + capture},
	}, proc.Static{}, nil)

	require.NoError(t, s.Launch(context.Background()))
	assert.True(t, s.Owned())
	assert.NotZero(t, s.Handle().Pid())

	own, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Owned, own, "owned even before the process table shows it")

	// Launch while owned is a no-op.
	first := s.Handle()
	require.NoError(t, s.Launch(context.Background()))
	assert.Same(t, first, s.Handle())

	outcome, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopRequested, outcome)

	require.NoError(t, s.Release())
	require.True(t, s.Wait(5*time.Second))
	assert.False(t, s.Owned())

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "r\n\x1bq\n", string(data))
}

func TestLaunchWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "datactrlr.log")
	s := NewSupervisor(Options{
		Command: []string{"/bin/sh", "-c", "read line; echo got $line"},
		Output:  out,
	}, proc.Static{}, nil)

	require.NoError(t, s.Launch(context.Background()))
	require.True(t, s.Wait(5*time.Second))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "got r\n", string(data))

	outcome, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopDetach, outcome, "exited controller cannot be stopped")
}

func TestLaunchErrors(t *testing.T) {
	s := NewSupervisor(Options{}, proc.Static{}, nil)
	err := s.Launch(context.Background())
	assert.True(t, gerrors.IsCode(err, gerrors.ErrController))

	s = NewSupervisor(Options{Command: []string{filepath.Join(t.TempDir(), "missing")}}, proc.Static{}, nil)
	err = s.Launch(context.Background())
	assert.True(t, gerrors.IsCode(err, gerrors.ErrController))
	assert.Nil(t, s.Handle())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Launch(ctx), context.Canceled)
}

// quitOnQ echoes stdin lines to capture and exits once it reads a quit.
func quitOnQ(capture string) []string {
	return []string{"/bin/sh", "-c",
		`while IFS= read -r l; do printf '%s\n' "$l" >> ` + capture + `; case "$l" in *q*) exit 0;; esac; done`}
}

func TestFinishWaitsForStoppedController(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "stdin.txt")
	log := logger.NewBufferLogger()
	s := NewSupervisor(Options{Command: quitOnQ(capture)}, proc.Static{}, log)

	require.NoError(t, s.Launch(context.Background()))
	outcome, err := s.Stop()
	require.NoError(t, err)
	require.Equal(t, StopRequested, outcome)

	require.NoError(t, s.Finish(5*time.Second))
	assert.True(t, s.Handle().Exited(), "joined before Finish returns")
	assert.False(t, log.HasLevel("warn"))

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "r\n\x1bq\n", string(data))
}

func TestFinishWithoutStopClosesStdin(t *testing.T) {
	s := NewSupervisor(Options{Command: []string{"/bin/sh", "-c", "cat > /dev/null"}}, proc.Static{}, nil)
	require.NoError(t, s.Launch(context.Background()))

	require.NoError(t, s.Finish(time.Millisecond))
	assert.True(t, s.Wait(5*time.Second), "controller sees EOF once stdin is closed")
	assert.NoError(t, s.Finish(time.Millisecond), "finishing twice is harmless")
}

func TestFinishWarnsWhenControllerIgnoresStop(t *testing.T) {
	log := logger.NewBufferLogger()
	s := NewSupervisor(Options{Command: []string{"/bin/sh", "-c", "cat > /dev/null"}}, proc.Static{}, log)
	require.NoError(t, s.Launch(context.Background()))
	_, err := s.Stop()
	require.NoError(t, err)

	require.NoError(t, s.Finish(50*time.Millisecond))
	assert.True(t, log.Contains("still running"))
	assert.True(t, s.Wait(5*time.Second))
}

func TestFinishWithoutHandle(t *testing.T) {
	s := NewSupervisor(Options{}, proc.Static{}, nil)
	assert.NoError(t, s.Finish(time.Millisecond))
}
