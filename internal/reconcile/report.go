package reconcile

import (
	"slices"

	"github.com/netzarbeiter/pluginmgmt/internal/desired"
)

// PluginRow is the report entry for one desired plugin.
type PluginRow struct {
	Name     string
	Active   bool
	Update   desired.UpdatePolicy
	Outcomes []Outcome

	// Errors holds the gateway errors behind failure outcomes, in step order.
	Errors []StepError
}

// Failed reports whether any step for the plugin failed.
func (r PluginRow) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// UninstallRow is the report entry for one plugin removed because it is not desired.
type UninstallRow struct {
	Name        string
	Uninstalled bool
	Err         error
}

// Report is the result of one reconciliation run.
type Report struct {
	RunID      string
	DryRun     bool
	Plugins    []PluginRow
	Uninstalls []UninstallRow
}

// Failures returns every step error of the run, desired plugins first.
func (r *Report) Failures() []StepError {
	var out []StepError
	for _, row := range r.Plugins {
		out = append(out, row.Errors...)
	}
	for _, row := range r.Uninstalls {
		if row.Err != nil {
			out = append(out, StepError{Plugin: row.Name, Step: StepUninstall, Err: row.Err})
		}
	}
	return out
}

// Changed reports whether the run performed (or, in dry-run, planned) any change.
func (r *Report) Changed() bool {
	for _, row := range r.Plugins {
		for _, o := range row.Outcomes {
			if !o.Failed() {
				return true
			}
		}
	}
	for _, row := range r.Uninstalls {
		if row.Uninstalled {
			return true
		}
	}
	return false
}

// Builder accumulates report rows in insertion order.
type Builder struct {
	report      Report
	onPlugin    func(PluginRow)
	onUninstall func(UninstallRow)
}

// NewBuilder creates a Builder for the given run.
func NewBuilder(runID string, mode Mode) *Builder {
	return &Builder{
		report: Report{
			RunID:      runID,
			DryRun:     mode.DryRun(),
			Plugins:    []PluginRow{},
			Uninstalls: []UninstallRow{},
		},
	}
}

// OnPlugin registers a callback invoked after each plugin row is added.
func (b *Builder) OnPlugin(fn func(PluginRow)) *Builder {
	b.onPlugin = fn
	return b
}

// OnUninstall registers a callback invoked after each uninstall row is added.
func (b *Builder) OnUninstall(fn func(UninstallRow)) *Builder {
	b.onUninstall = fn
	return b
}

// AddPlugin appends a desired-plugin row.
func (b *Builder) AddPlugin(row PluginRow) {
	b.report.Plugins = append(b.report.Plugins, row)
	if b.onPlugin != nil {
		b.onPlugin(row)
	}
}

// AddUninstall appends an uninstall row.
func (b *Builder) AddUninstall(row UninstallRow) {
	b.report.Uninstalls = append(b.report.Uninstalls, row)
	if b.onUninstall != nil {
		b.onUninstall(row)
	}
}

// Report returns a snapshot of the accumulated report.
func (b *Builder) Report() *Report {
	r := b.report
	r.Plugins = slices.Clone(b.report.Plugins)
	r.Uninstalls = slices.Clone(b.report.Uninstalls)
	return &r
}
