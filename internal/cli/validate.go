package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netzarbeiter/pluginmgmt/internal/desired"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plugin-list>",
		Short: "Validate a plugin list without touching any plugin",
		Long: `Load a plugin list and validate it against the bundled schema.

Each schema violation is printed on its own line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := desired.Load(args[0])
			if err != nil {
				var schemaErr *desired.SchemaError
				if errors.As(err, &schemaErr) {
					for _, v := range schemaErr.Violations {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", v)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Plugin list %s is valid (%d plugins)\n", args[0], state.Len())
			for _, spec := range state.Specs() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-32s active=%s update=%s\n", spec.Name, yesNo(spec.Active), spec.Update)
			}
			return nil
		},
	}
}

// SchemaCmd returns the schema command.
func SchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin list JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(desired.Schema())
			return err
		},
	}
}
