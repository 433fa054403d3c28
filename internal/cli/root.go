// Package cli provides the command-line interface for pluginmgmt.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netzarbeiter/pluginmgmt/internal/version"
)

// NewRootCmd builds the pluginmgmt command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pluginmgmt",
		Short: "Install, activate, update, and remove plugins",
		Long: `pluginmgmt reconciles a platform's installed plugins against a declarative
plugin list.

The plugin list maps plugin names to the desired activation state and update
policy. Every listed plugin is installed if needed, activated or deactivated,
and updated according to its policy. Installed plugins that are not listed
are uninstalled.

Examples:
  # Preview what would change
  pluginmgmt handle plugins.json --inventory /var/lib/shop/inventory.json --dry-run

  # Apply through an external gateway executable
  pluginmgmt handle plugins.yaml --gateway-plugin ./shop-gateway`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate(version.String() + "\n")
	addLogFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		HandleCmd(),
		ValidateCmd(),
		SchemaCmd(),
		VersionCmd(),
	)

	return rootCmd
}

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
