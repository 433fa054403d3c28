package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/netzarbeiter/pluginmgmt/internal/backend"
	"github.com/netzarbeiter/pluginmgmt/internal/desired"
	"github.com/netzarbeiter/pluginmgmt/internal/procguard"
	"github.com/netzarbeiter/pluginmgmt/internal/reconcile"
	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

const handleDescription = "Install, activate, update, and remove plugins"

// ErrAlreadyRunning is returned when another pluginmgmt process is reconciling.
var ErrAlreadyRunning = errors.New("another pluginmgmt process is running")

// processGuard is replaced in tests.
var processGuard = func() ([]int, error) {
	return procguard.Others(procguard.SelfName())
}

// HandleCmd returns the handle command.
func HandleCmd() *cobra.Command {
	var (
		inventoryPath string
		gatewayPlugin string
		dryRun        bool
		refresh       bool
		ignoreRunning bool
	)

	cmd := &cobra.Command{
		Use:   "handle <plugin-list>",
		Short: handleDescription,
		Long: `Reconcile installed plugins against a plugin list.

The plugin list is a JSON or YAML object keyed by plugin name, optionally
compressed with gzip (.gz), xz (.xz) or bzip2 (.bz2):

  {
    "SwagPayPal": {"active": true, "update": true},
    "FroshTools": {"active": true, "update": "force"}
  }

Plugins are handled in list order: installed if missing, activated or
deactivated, and updated when "update" is "force" or true with a newer
version available. Installed plugins missing from the list are uninstalled.

A failing step is reported in the Actions column and does not stop the run.

Gateway selection (flags override the environment):
  --inventory        JSON inventory file ($PLUGINMGMT_INVENTORY)
  --gateway-plugin   gateway executable ($PLUGINMGMT_GATEWAY_PLUGIN)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandle(cmd, args[0], handleOptions{
				backend: backend.Config{
					InventoryPath: inventoryPath,
					PluginPath:    gatewayPlugin,
				},
				mode:          reconcile.ModeFor(dryRun),
				refresh:       refresh,
				ignoreRunning: ignoreRunning,
			})
		},
	}

	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "plugin inventory file")
	cmd.Flags().StringVar(&gatewayPlugin, "gateway-plugin", "", "gateway plugin executable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "dry run, do not install or activate plugins")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refresh plugin list (deprecated)")
	cmd.Flags().BoolVar(&ignoreRunning, "ignore-running", false, "apply even if another pluginmgmt process is running")
	cmd.MarkFlagsMutuallyExclusive("inventory", "gateway-plugin")

	return cmd
}

type handleOptions struct {
	backend       backend.Config
	mode          reconcile.Mode
	refresh       bool
	ignoreRunning bool
}

func runHandle(cmd *cobra.Command, listPath string, opts handleOptions) error {
	out := printer{w: cmd.OutOrStdout()}
	out.title(fmt.Sprintf("%s (%s)", handleDescription, cmd.Name()))

	level, err := logLevel(cmd.Flags())
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	runID := uuid.NewString()
	logger := newLogger(cmd.ErrOrStderr(), level).With("run", runID)

	state, err := desired.Load(listPath)
	if err != nil {
		logger.Error("failed to load plugin list", "file", listPath, "error", err)
		return err
	}
	logger.Debug("plugin list loaded", "file", listPath, "plugins", state.Len())

	if err := checkRunning(out, logger, opts); err != nil {
		return err
	}

	opts.backend.Verbose = verbose
	opts.backend.LogOutput = cmd.ErrOrStderr()
	gw, closer, err := backend.NewBuilder().WithConfig(opts.backend).WithEnvConfig().Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}
	defer closer.Close()

	ctx := gateway.WithToken(cmd.Context(), gateway.DefaultToken())

	if opts.refresh {
		out.warning("--refresh is deprecated and will be removed; refresh the platform's plugin list manually instead")
		if r, ok := gw.(gateway.Refresher); ok {
			if err := r.Refresh(ctx); err != nil {
				logger.Warn("plugin refresh failed", "error", err)
			}
		}
	}

	reconciler := reconcile.New(gw,
		reconcile.WithMode(opts.mode),
		reconcile.WithLogger(logger.Named("reconcile")),
		reconcile.WithRunID(runID),
		reconcile.WithObserver(func(row reconcile.PluginRow) {
			logger.Info("plugin handled", "plugin", row.Name, "actions", actions(row.Outcomes))
		}),
		reconcile.WithUninstallObserver(func(row reconcile.UninstallRow) {
			logger.Info("plugin uninstalled", "plugin", row.Name, "ok", row.Uninstalled)
		}),
	)
	report, runErr := reconciler.Reconcile(ctx, state)

	printReport(out, report)

	if runErr != nil {
		return runErr
	}

	logger.Info("reconciliation finished",
		"mode", opts.mode.String(),
		"plugins", len(report.Plugins),
		"uninstalled", len(report.Uninstalls),
		"failures", len(report.Failures()))
	if report.DryRun {
		out.note("Dry run: no changes were made.")
	}
	return nil
}

// checkRunning refuses to apply while another instance is running.
func checkRunning(out printer, logger hclog.Logger, opts handleOptions) error {
	pids, err := processGuard()
	if err != nil {
		logger.Warn("could not check for running instances", "error", err)
		return nil
	}
	if len(pids) == 0 {
		return nil
	}

	switch {
	case opts.mode.DryRun():
		out.warning("another pluginmgmt process is running (pid %v); results may be stale", pids)
	case opts.ignoreRunning:
		logger.Warn("ignoring running instances", "pids", pids)
	default:
		return fmt.Errorf("%w (pid %v); use --ignore-running to apply anyway", ErrAlreadyRunning, pids)
	}
	return nil
}

func printReport(out printer, report *reconcile.Report) {
	out.section("Handling active plugins")
	plugins := NewTable([]string{"Plugin", "Active?", "Update?", "Actions"})
	for _, row := range report.Plugins {
		plugins.AddRow([]string{row.Name, yesNo(row.Active), row.Update.String(), actions(row.Outcomes)})
	}
	out.table(plugins, 3)

	if len(report.Uninstalls) == 0 {
		return
	}

	out.section("Uninstalling remaining plugins")
	uninstalls := NewTable([]string{"Plugin", "Uninstalled?"})
	for _, row := range report.Uninstalls {
		uninstalls.AddRow([]string{row.Name, yesNo(row.Uninstalled)})
	}
	out.table(uninstalls, 0)
}

func actions(outcomes []reconcile.Outcome) string {
	if len(outcomes) == 0 {
		return "-"
	}
	labels := make([]string, len(outcomes))
	for i, o := range outcomes {
		labels[i] = o.String()
	}
	return strings.Join(labels, "|")
}
