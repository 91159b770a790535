// Package proc looks up processes by name in the system process table.
package proc

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// Table answers whether a process with a given name is running.
type Table interface {
	Running(ctx context.Context, name string) (bool, error)
}

// System is the host's process table.
type System struct{}

// Running reports whether any process has exactly the given name.
// Processes that exit or deny access during the scan are skipped.
func (System) Running(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Static is a fixed process table, for tests and dry runs.
type Static map[string]bool

// Running reports whether name is marked running.
func (s Static) Running(_ context.Context, name string) (bool, error) {
	return s[name], nil
}
