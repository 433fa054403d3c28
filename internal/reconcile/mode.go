package reconcile

// Mode selects whether lifecycle calls are executed or only planned.
type Mode int

const (
	// ModeApply performs every lifecycle call against the gateway.
	ModeApply Mode = iota

	// ModeDryRun skips every lifecycle call and records it as successful.
	ModeDryRun
)

// ModeFor returns ModeDryRun when dryRun is set.
func ModeFor(dryRun bool) Mode {
	if dryRun {
		return ModeDryRun
	}
	return ModeApply
}

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "apply"
}

// DryRun reports whether lifecycle calls are skipped.
func (m Mode) DryRun() bool {
	return m == ModeDryRun
}

// perform runs fn unless in dry-run, where the call is assumed to succeed.
func (m Mode) perform(fn func() error) error {
	if m.DryRun() {
		return nil
	}
	return fn()
}
