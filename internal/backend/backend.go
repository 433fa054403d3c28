// Package backend selects and constructs the gateway pluginmgmt talks to:
// either a local inventory file or an external gateway executable.
package backend

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/netzarbeiter/pluginmgmt/internal/inventory"
	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

// Environment variables read by WithEnvConfig.
const (
	EnvInventory     = "PLUGINMGMT_INVENTORY"
	EnvGatewayPlugin = "PLUGINMGMT_GATEWAY_PLUGIN"
)

// ErrNoBackend is returned when neither an inventory file nor a gateway executable is configured.
var ErrNoBackend = errors.New("no gateway configured: use --inventory or --gateway-plugin")

// Config holds backend configuration.
type Config struct {
	// InventoryPath is a JSON inventory file served by the built-in store.
	InventoryPath string

	// PluginPath is a gateway executable speaking the go-plugin protocol.
	PluginPath string

	// Verbose forwards the gateway executable's log output.
	Verbose bool

	// LogOutput receives gateway logs when Verbose is set. Defaults to stderr.
	LogOutput io.Writer
}

// Builder provides a fluent interface for constructing a gateway backend.
type Builder struct {
	config Config
	useEnv bool
}

// NewBuilder creates a new backend builder with default settings.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig sets the configuration, usually from command-line flags.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithEnvConfig loads the backend location from environment variables.
// Reads PLUGINMGMT_INVENTORY and PLUGINMGMT_GATEWAY_PLUGIN.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// Config returns the effective configuration. A location set through
// WithConfig takes precedence over both environment variables.
func (b *Builder) Config() Config {
	config := b.config
	if b.useEnv && config.InventoryPath == "" && config.PluginPath == "" {
		config.InventoryPath = os.Getenv(EnvInventory)
		config.PluginPath = os.Getenv(EnvGatewayPlugin)
	}
	if config.LogOutput == nil {
		config.LogOutput = os.Stderr
	}
	return config
}

// Build constructs the gateway. The returned closer releases the backend
// and must be called when the gateway is no longer needed.
func (b *Builder) Build(ctx context.Context) (gateway.Gateway, io.Closer, error) {
	config := b.Config()

	switch {
	case config.InventoryPath != "" && config.PluginPath != "":
		return nil, nil, errors.New("inventory file and gateway plugin are mutually exclusive")

	case config.PluginPath != "":
		l := NewLauncher(config.PluginPath, config.Verbose, config.LogOutput)
		gw, err := l.Start(ctx)
		if err != nil {
			return nil, nil, err
		}
		return gw, l, nil

	case config.InventoryPath != "":
		store, err := inventory.Open(config.InventoryPath)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	default:
		return nil, nil, ErrNoBackend
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
