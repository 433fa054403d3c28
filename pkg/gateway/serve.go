package gateway

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// PluginName is the key under which gateways are dispensed by go-plugin.
const PluginName = "gateway"

// ProtocolVersion is bumped whenever the RPC contract changes incompatibly.
const ProtocolVersion = 1

// Handshake is the handshake configuration shared by pluginmgmt and gateway executables.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  ProtocolVersion,
	MagicCookieKey:   "PLUGINMGMT_GATEWAY",
	MagicCookieValue: "plugin_lifecycle_gateway",
}

// PluginMap returns the go-plugin plugin set for a gateway implementation.
// Hosts pass a nil impl; only executables serving a gateway need one.
func PluginMap(impl Gateway) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &GatewayRPC{Impl: impl},
	}
}

// Serve runs impl as a go-plugin gateway. It blocks until the host disconnects.
func Serve(impl Gateway) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:       PluginName,
			Output:     os.Stderr,
			Level:      hclog.Info,
			JSONFormat: true,
		}),
	})
}
