package backend

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/netzarbeiter/pluginmgmt/internal/security"
	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

// Launcher runs a gateway executable and connects to it over go-plugin RPC.
type Launcher struct {
	path    string
	verbose bool
	output  io.Writer
	client  *plugin.Client
}

// NewLauncher creates a launcher for the executable at path.
func NewLauncher(path string, verbose bool, output io.Writer) *Launcher {
	return &Launcher{path: path, verbose: verbose, output: output}
}

// Start launches the executable and returns the dispensed gateway.
func (l *Launcher) Start(_ context.Context) (*gateway.RPCClient, error) {
	if err := security.ValidateExecutable(l.path); err != nil {
		return nil, fmt.Errorf("invalid gateway plugin: %w", err)
	}

	// Configure logger based on verbose flag.
	var logger hclog.Logger
	if l.verbose && l.output != nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "gateway",
			Output: l.output,
			Level:  hclog.Debug,
		})
	} else {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "gateway",
			Output: io.Discard,
			Level:  hclog.Off,
		})
	}

	l.client = plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  gateway.Handshake,
		Plugins:          gateway.PluginMap(nil),
		Cmd:              exec.Command(l.path), // #nosec G204 - gateway path validated above
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           logger,
	})

	rpcClient, err := l.client.Client()
	if err != nil {
		l.client.Kill()
		return nil, fmt.Errorf("failed to connect to gateway plugin: %w", err)
	}

	raw, err := rpcClient.Dispense(gateway.PluginName)
	if err != nil {
		l.client.Kill()
		return nil, fmt.Errorf("failed to dispense gateway: %w", err)
	}

	gw, ok := raw.(*gateway.RPCClient)
	if !ok {
		l.client.Kill()
		return nil, fmt.Errorf("gateway plugin returned unexpected type %T", raw)
	}
	return gw, nil
}

// Close kills the gateway process.
func (l *Launcher) Close() error {
	if l.client != nil {
		l.client.Kill()
		l.client = nil
	}
	return nil
}
