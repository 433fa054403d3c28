// pluginmgmt reconciles a platform's installed plugins against a declarative
// plugin list: it installs, activates, updates and removes plugins.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/netzarbeiter/pluginmgmt/internal/cli"
)

func main() {
	// An interrupt stops the run between plugins; the current step completes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
