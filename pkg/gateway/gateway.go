// Package gateway provides the public contract between pluginmgmt and the
// platform's plugin runtime. Platform adapters implement Gateway and either
// link it directly or serve it over go-plugin RPC with Serve.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindByName when the platform does not know the plugin.
var ErrNotFound = errors.New("plugin not found")

// Plugin is a snapshot of one plugin as reported by the platform.
type Plugin struct {
	Name string `json:"name"`

	// InstalledAt is nil when the plugin is not installed.
	InstalledAt *time.Time `json:"installed_at,omitempty"`

	Active  bool   `json:"active"`
	Version string `json:"version,omitempty"`

	// UpgradeVersion is set when a newer version is available.
	UpgradeVersion string `json:"upgrade_version,omitempty"`
}

// Installed reports whether the plugin is installed.
func (p Plugin) Installed() bool {
	return p.InstalledAt != nil
}

// UpgradeAvailable reports whether the platform has a newer version of the plugin.
func (p Plugin) UpgradeAvailable() bool {
	return p.UpgradeVersion != ""
}

// Gateway reports the platform's plugin inventory and performs lifecycle operations.
type Gateway interface {
	// FindByName returns the named plugin or ErrNotFound.
	FindByName(ctx context.Context, name string) (Plugin, error)

	// ListInstalled returns every plugin with InstalledAt set.
	ListInstalled(ctx context.Context) ([]Plugin, error)

	Install(ctx context.Context, p Plugin) error
	Activate(ctx context.Context, p Plugin) error
	Deactivate(ctx context.Context, p Plugin) error
	Update(ctx context.Context, p Plugin) error
	Uninstall(ctx context.Context, p Plugin) error
}

// Refresher is implemented by gateways that can rescan the platform's plugin sources.
type Refresher interface {
	Refresh(ctx context.Context) error
}
