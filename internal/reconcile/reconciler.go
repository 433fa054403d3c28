package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/netzarbeiter/pluginmgmt/internal/desired"
	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

// Reconciler computes and executes the lifecycle transitions that bring the
// gateway's plugin inventory in line with a desired state. Plugins are
// processed one at a time in declaration order.
type Reconciler struct {
	gw          gateway.Gateway
	mode        Mode
	logger      hclog.Logger
	runID       string
	onPlugin    func(PluginRow)
	onUninstall func(UninstallRow)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMode sets apply or dry-run mode.
func WithMode(m Mode) Option {
	return func(r *Reconciler) { r.mode = m }
}

// WithLogger sets the logger used for step failures.
func WithLogger(l hclog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithRunID tags the report with a run identifier.
func WithRunID(id string) Option {
	return func(r *Reconciler) { r.runID = id }
}

// WithObserver registers a callback for each finished desired plugin.
func WithObserver(fn func(PluginRow)) Option {
	return func(r *Reconciler) { r.onPlugin = fn }
}

// WithUninstallObserver registers a callback for each finished uninstall.
func WithUninstallObserver(fn func(UninstallRow)) Option {
	return func(r *Reconciler) { r.onUninstall = fn }
}

// New creates a Reconciler in apply mode.
func New(gw gateway.Gateway, opts ...Option) *Reconciler {
	r := &Reconciler{
		gw:     gw,
		mode:   ModeApply,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes every desired plugin, then uninstalls installed plugins
// that are not desired. Step failures are recorded in the report and never
// returned; an error is returned only when the inventory itself cannot be
// read or ctx is cancelled, together with the rows completed so far.
func (r *Reconciler) Reconcile(ctx context.Context, state *desired.State) (*Report, error) {
	b := NewBuilder(r.runID, r.mode).OnPlugin(r.onPlugin).OnUninstall(r.onUninstall)

	for _, spec := range state.Specs() {
		if err := ctx.Err(); err != nil {
			return b.Report(), err
		}

		row, err := r.handlePlugin(ctx, spec)
		if err != nil {
			return b.Report(), err
		}
		b.AddPlugin(row)
	}

	if err := ctx.Err(); err != nil {
		return b.Report(), err
	}

	remove, err := r.pluginsToUninstall(ctx, state)
	if err != nil {
		return b.Report(), err
	}

	for _, p := range remove {
		b.AddUninstall(r.uninstallPlugin(ctx, p))
	}

	return b.Report(), nil
}

// handlePlugin runs install, activation and update for one desired plugin.
func (r *Reconciler) handlePlugin(ctx context.Context, spec desired.Spec) (PluginRow, error) {
	row := PluginRow{
		Name:     spec.Name,
		Active:   spec.Active,
		Update:   spec.Update,
		Outcomes: []Outcome{},
	}

	p, err := r.gw.FindByName(ctx, spec.Name)
	if errors.Is(err, gateway.ErrNotFound) {
		r.fail(&row, PluginMissing, StepLookup, err)
		return row, nil
	}
	if err != nil {
		return row, fmt.Errorf("failed to look up plugin %s: %w", spec.Name, err)
	}

	if !p.Installed() {
		if !r.step(&row, StepInstall, Installed, InstallationFailed, func() error { return r.gw.Install(ctx, p) }) {
			return row, nil
		}
	}

	switch {
	case spec.Active && !p.Active:
		r.step(&row, StepActivate, Activated, ActivationFailed, func() error { return r.gw.Activate(ctx, p) })
	case !spec.Active && p.Active:
		r.step(&row, StepDeactivate, Deactivated, DeactivationFailed, func() error { return r.gw.Deactivate(ctx, p) })
	}

	if wantsUpdate(spec.Update, p) {
		r.step(&row, StepUpdate, Updated, UpdateFailed, func() error { return r.gw.Update(ctx, p) })
	}

	return row, nil
}

// wantsUpdate reports whether the update step fires for the plugin.
func wantsUpdate(policy desired.UpdatePolicy, p gateway.Plugin) bool {
	switch policy {
	case desired.UpdateForce:
		return true
	case desired.UpdateAvailable:
		return p.UpgradeAvailable()
	default:
		return false
	}
}

// step performs one lifecycle call and records its outcome. It reports whether the step succeeded.
func (r *Reconciler) step(row *PluginRow, step Step, success, failure Outcome, call func() error) bool {
	if err := r.mode.perform(call); err != nil {
		r.fail(row, failure, step, err)
		return false
	}
	r.logger.Debug("step completed", "plugin", row.Name, "step", string(step), "mode", r.mode.String())
	row.Outcomes = append(row.Outcomes, success)
	return true
}

func (r *Reconciler) fail(row *PluginRow, outcome Outcome, step Step, err error) {
	r.logger.Error(outcome.String(), "plugin", row.Name, "step", string(step), "error", err)
	row.Outcomes = append(row.Outcomes, outcome)
	row.Errors = append(row.Errors, StepError{Plugin: row.Name, Step: step, Err: err})
}

// pluginsToUninstall returns installed plugins absent from the desired state, sorted by name.
func (r *Reconciler) pluginsToUninstall(ctx context.Context, state *desired.State) ([]gateway.Plugin, error) {
	installed, err := r.gw.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed plugins: %w", err)
	}

	var remove []gateway.Plugin
	for _, p := range installed {
		if !p.Installed() || state.Has(p.Name) {
			continue
		}
		remove = append(remove, p)
	}

	slices.SortFunc(remove, func(a, b gateway.Plugin) int {
		return strings.Compare(a.Name, b.Name)
	})
	return slices.CompactFunc(remove, func(a, b gateway.Plugin) bool {
		return a.Name == b.Name
	}), nil
}

func (r *Reconciler) uninstallPlugin(ctx context.Context, p gateway.Plugin) UninstallRow {
	if err := r.mode.perform(func() error { return r.gw.Uninstall(ctx, p) }); err != nil {
		r.logger.Error("Uninstallation failed", "plugin", p.Name, "step", string(StepUninstall), "error", err)
		return UninstallRow{Name: p.Name, Uninstalled: false, Err: err}
	}
	return UninstallRow{Name: p.Name, Uninstalled: true}
}
