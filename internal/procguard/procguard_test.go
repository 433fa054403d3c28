package procguard

import (
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/mitchellh/go-ps"
)

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func withProcesses(t *testing.T, fn func() ([]ps.Process, error)) {
	t.Helper()
	orig := processes
	processes = fn
	t.Cleanup(func() { processes = orig })
}

func TestOthers(t *testing.T) {
	self := os.Getpid()
	withProcesses(t, func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: self, name: "pluginmgmt"},
			fakeProcess{pid: self + 200, name: "pluginmgmt"},
			fakeProcess{pid: self + 100, name: "pluginmgmt"},
			fakeProcess{pid: self + 300, name: "bash"},
		}, nil
	})

	pids, err := Others("pluginmgmt")
	if err != nil {
		t.Fatalf("Others() error = %v", err)
	}
	if !slices.Equal(pids, []int{self + 100, self + 200}) {
		t.Errorf("Others() = %v", pids)
	}
}

func TestOthersNone(t *testing.T) {
	withProcesses(t, func() ([]ps.Process, error) {
		return []ps.Process{fakeProcess{pid: os.Getpid(), name: "pluginmgmt"}}, nil
	})

	pids, err := Others("pluginmgmt")
	if err != nil || len(pids) != 0 {
		t.Errorf("Others() = %v, %v", pids, err)
	}
}

func TestOthersError(t *testing.T) {
	withProcesses(t, func() ([]ps.Process, error) {
		return nil, errors.New("no /proc")
	})

	if _, err := Others("pluginmgmt"); err == nil {
		t.Error("Others() expected error")
	}
}

func TestSelfName(t *testing.T) {
	if SelfName() == "" {
		t.Error("SelfName() is empty")
	}
}
