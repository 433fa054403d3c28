// Package main provides a gateway executable serving a JSON inventory file
// over the go-plugin protocol. pluginmgmt launches it with --gateway-plugin.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netzarbeiter/pluginmgmt/internal/inventory"
	"github.com/netzarbeiter/pluginmgmt/internal/version"
	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

// envInventory names the inventory file when the gateway is launched by pluginmgmt.
const envInventory = "PLUGINMGMT_GATEWAY_INVENTORY"

func main() {
	var inventoryPath string

	rootCmd := &cobra.Command{
		Use:   "pluginmgmt-inventory-gateway",
		Short: "Serve a plugin inventory file to pluginmgmt",
		Long: `Reference gateway for pluginmgmt backed by a JSON inventory file.

The gateway is not run directly. pluginmgmt starts it and talks to it over
go-plugin RPC:

  PLUGINMGMT_GATEWAY_INVENTORY=/var/lib/shop/inventory.json \
    pluginmgmt handle plugins.json --gateway-plugin ./pluginmgmt-inventory-gateway`,
		Version:      version.Short(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inventoryPath == "" {
				inventoryPath = os.Getenv(envInventory)
			}
			if inventoryPath == "" {
				return fmt.Errorf("no inventory file: use --inventory or set %s", envInventory)
			}

			store, err := inventory.Open(inventoryPath)
			if err != nil {
				return err
			}
			gateway.Serve(store)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&inventoryPath, "inventory", "", "plugin inventory file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
