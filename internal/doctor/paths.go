package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// PipeCheck verifies the sensor feed FIFO exists.
type PipeCheck struct {
	Path string
}

func (c *PipeCheck) Name() string     { return "feed_pipe" }
func (c *PipeCheck) Category() string { return CategoryFeed }

func (c *PipeCheck) Run() CheckResult {
	info, err := os.Stat(c.Path)
	if os.IsNotExist(err) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Sensor pipe missing: " + c.Path,
			Suggestion: "Create it with: mkfifo " + c.Path,
			Fixable:    true,
		}
	}
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot access sensor pipe: %v", err),
			Suggestion: "Check permissions on " + filepath.Dir(c.Path),
		}
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Not a named pipe: " + c.Path,
			Suggestion: "Remove the file and recreate it with: mkfifo " + c.Path,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Sensor pipe: " + c.Path,
	}
}

// Fix creates the FIFO, and its directory, when nothing is at Path.
func (c *PipeCheck) Fix() error {
	if _, err := os.Lstat(c.Path); err == nil {
		return fmt.Errorf("%s exists and is not a named pipe", c.Path)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return err
	}
	return unix.Mkfifo(c.Path, 0o666)
}

// LogDirCheck verifies the console log directory is writable.
type LogDirCheck struct {
	Dir string
}

func (c *LogDirCheck) Name() string     { return "log_dir" }
func (c *LogDirCheck) Category() string { return CategoryLogs }

func (c *LogDirCheck) Run() CheckResult {
	info, err := os.Stat(c.Dir)
	if os.IsNotExist(err) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Log directory missing: " + c.Dir,
			Suggestion: "Create it with: mkdir -p " + c.Dir,
			Fixable:    true,
		}
	}
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("not a directory")
	}
	if err == nil {
		err = probeWritable(c.Dir)
	}
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Log directory not writable: %s (%v)", c.Dir, err),
			Suggestion: "Check ownership of " + c.Dir,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Log directory: " + c.Dir,
	}
}

func (c *LogDirCheck) Fix() error {
	return os.MkdirAll(c.Dir, 0o755)
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".g2console-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
