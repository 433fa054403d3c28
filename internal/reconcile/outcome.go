// Package reconcile drives the platform's plugin inventory towards a desired state.
package reconcile

import "fmt"

// Outcome is the result of one lifecycle step for one plugin.
type Outcome int

const (
	Installed Outcome = iota + 1
	Activated
	Deactivated
	Updated
	ActivationFailed
	DeactivationFailed
	UpdateFailed
	InstallationFailed
	PluginMissing
)

var outcomeLabels = map[Outcome]string{
	Installed:          "Installed",
	Activated:          "Activated",
	Deactivated:        "Deactivated",
	Updated:            "Updated",
	ActivationFailed:   "Activation failed",
	DeactivationFailed: "Deactivation failed",
	UpdateFailed:       "Update failed",
	InstallationFailed: "Installation failed",
	PluginMissing:      "Plugin missing",
}

func (o Outcome) String() string {
	if label, ok := outcomeLabels[o]; ok {
		return label
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Failed reports whether the outcome records a failed or impossible step.
func (o Outcome) Failed() bool {
	switch o {
	case ActivationFailed, DeactivationFailed, UpdateFailed, InstallationFailed, PluginMissing:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further steps follow the outcome for the same plugin.
func (o Outcome) Terminal() bool {
	return o == InstallationFailed || o == PluginMissing
}

// Step identifies the lifecycle step an error occurred in.
type Step string

const (
	StepLookup     Step = "lookup"
	StepInstall    Step = "install"
	StepActivate   Step = "activate"
	StepDeactivate Step = "deactivate"
	StepUpdate     Step = "update"
	StepUninstall  Step = "uninstall"
)

// StepError records the gateway error behind a failure outcome.
type StepError struct {
	Plugin string
	Step   Step
	Err    error
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Plugin, e.Err)
}

func (e StepError) Unwrap() error {
	return e.Err
}
