package reconcile

import (
	"errors"
	"testing"
)

func TestModeString(t *testing.T) {
	if ModeApply.String() != "apply" || ModeDryRun.String() != "dry-run" {
		t.Errorf("String() = %q/%q", ModeApply, ModeDryRun)
	}
	if ModeApply.DryRun() || !ModeDryRun.DryRun() {
		t.Error("DryRun() mismatch")
	}
}

func TestModePerform(t *testing.T) {
	boom := errors.New("boom")
	called := false
	fn := func() error {
		called = true
		return boom
	}

	if err := ModeDryRun.perform(fn); err != nil || called {
		t.Errorf("dry-run perform() = %v, called = %v", err, called)
	}
	if err := ModeApply.perform(fn); !errors.Is(err, boom) || !called {
		t.Errorf("apply perform() = %v, called = %v", err, called)
	}
	if ModeFor(true) != ModeDryRun || ModeFor(false) != ModeApply {
		t.Error("ModeFor() mismatch")
	}
}
