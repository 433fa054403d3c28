package reconcile

import (
	"errors"
	"slices"
	"testing"
)

func TestOutcomeLabels(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		label    string
		failed   bool
		terminal bool
	}{
		{Installed, "Installed", false, false},
		{Activated, "Activated", false, false},
		{Deactivated, "Deactivated", false, false},
		{Updated, "Updated", false, false},
		{ActivationFailed, "Activation failed", true, false},
		{DeactivationFailed, "Deactivation failed", true, false},
		{UpdateFailed, "Update failed", true, false},
		{InstallationFailed, "Installation failed", true, true},
		{PluginMissing, "Plugin missing", true, true},
		{Outcome(42), "Outcome(42)", false, false},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.label {
			t.Errorf("String() = %q, want %q", got, tt.label)
		}
		if tt.outcome.Failed() != tt.failed {
			t.Errorf("%s Failed() = %v", tt.label, !tt.failed)
		}
		if tt.outcome.Terminal() != tt.terminal {
			t.Errorf("%s Terminal() = %v", tt.label, !tt.terminal)
		}
	}
}

func TestStepError(t *testing.T) {
	cause := errors.New("disk full")
	err := StepError{Plugin: "A", Step: StepUpdate, Err: cause}

	if err.Error() != "update A: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("StepError should unwrap to its cause")
	}
}

func TestBuilder(t *testing.T) {
	var plugins, uninstalls int
	b := NewBuilder("run-7", ModeDryRun).
		OnPlugin(func(PluginRow) { plugins++ }).
		OnUninstall(func(UninstallRow) { uninstalls++ })

	empty := b.Report()
	if empty.Plugins == nil || empty.Uninstalls == nil {
		t.Error("empty report should hold empty, non-nil slices")
	}
	if empty.Changed() || len(empty.Failures()) != 0 {
		t.Error("empty report should have no changes or failures")
	}

	b.AddPlugin(PluginRow{Name: "A", Outcomes: []Outcome{PluginMissing}})
	b.AddUninstall(UninstallRow{Name: "B", Uninstalled: true})

	report := b.Report()
	if report.RunID != "run-7" || !report.DryRun {
		t.Errorf("report header = %q/%v", report.RunID, report.DryRun)
	}
	if plugins != 1 || uninstalls != 1 {
		t.Errorf("observer calls = %d/%d", plugins, uninstalls)
	}
	if !report.Plugins[0].Failed() {
		t.Error("row with PluginMissing should be failed")
	}
	if !report.Changed() {
		t.Error("report with an uninstall should be changed")
	}

	// Earlier snapshots are not affected by later rows.
	if len(empty.Plugins) != 0 {
		t.Errorf("snapshot grew to %d plugins", len(empty.Plugins))
	}
}

func TestBuilderSnapshotsDoNotShareRows(t *testing.T) {
	b := NewBuilder("run-8", ModeApply)
	b.AddPlugin(PluginRow{Name: "A"})
	b.AddPlugin(PluginRow{Name: "B"})
	b.AddUninstall(UninstallRow{Name: "X", Uninstalled: true})

	first := b.Report()
	first.Plugins[0].Name = "changed"
	first.Uninstalls[0].Uninstalled = false

	// Appending into spare capacity must not show up in the first snapshot.
	first = b.Report()
	b.AddPlugin(PluginRow{Name: "C"})
	grown := first.Plugins[:cap(first.Plugins)]
	for _, row := range grown[len(first.Plugins):] {
		if row.Name == "C" {
			t.Error("later AddPlugin wrote into an earlier snapshot")
		}
	}

	second := b.Report()
	names := []string{}
	for _, row := range second.Plugins {
		names = append(names, row.Name)
	}
	if !slices.Equal(names, []string{"A", "B", "C"}) {
		t.Errorf("plugin names = %v, want [A B C]", names)
	}
	if !second.Uninstalls[0].Uninstalled {
		t.Error("editing a snapshot changed the builder's uninstall row")
	}
}
