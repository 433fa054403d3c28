// Package procguard detects other running pluginmgmt processes so that two
// reconciliations never mutate the same platform concurrently.
package procguard

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/mitchellh/go-ps"
)

// processes is replaced in tests.
var processes = ps.Processes

// Others returns the PIDs of processes with the given executable name,
// excluding the current process, in ascending order.
func Others(name string) ([]int, error) {
	list, err := processes()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	self := os.Getpid()
	var pids []int
	for _, p := range list {
		if p.Pid() == self || p.Executable() != name {
			continue
		}
		pids = append(pids, p.Pid())
	}

	slices.Sort(pids)
	return pids, nil
}

// SelfName returns the executable name of the current process as the process
// table reports it.
func SelfName() string {
	p, err := ps.FindProcess(os.Getpid())
	if err == nil && p != nil {
		return p.Executable()
	}
	return filepath.Base(os.Args[0])
}
