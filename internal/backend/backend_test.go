package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

func TestBuilderWithEnvConfig(t *testing.T) {
	t.Setenv(EnvInventory, "/var/lib/plugins.json")
	t.Setenv(EnvGatewayPlugin, "")

	config := NewBuilder().WithEnvConfig().Config()
	if config.InventoryPath != "/var/lib/plugins.json" {
		t.Errorf("InventoryPath = %q", config.InventoryPath)
	}
	if config.LogOutput == nil {
		t.Error("LogOutput should default to stderr")
	}
}

func TestBuilderFlagsOverrideEnv(t *testing.T) {
	t.Setenv(EnvInventory, "/from/env.json")
	t.Setenv(EnvGatewayPlugin, "/from/env-gateway")

	config := NewBuilder().
		WithConfig(Config{PluginPath: "/from/flag"}).
		WithEnvConfig().
		Config()

	if config.PluginPath != "/from/flag" || config.InventoryPath != "" {
		t.Errorf("Config() = %+v, want only the flag value", config)
	}
}

func TestBuilderIgnoresEnvByDefault(t *testing.T) {
	t.Setenv(EnvInventory, "/from/env.json")

	_, _, err := NewBuilder().Build(context.Background())
	if !errors.Is(err, ErrNoBackend) {
		t.Errorf("Build() error = %v, want ErrNoBackend", err)
	}
}

func TestBuildInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(`{"plugins":[{"name":"SwagPayPal"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	gw, closer, err := NewBuilder().WithConfig(Config{InventoryPath: path}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer closer.Close()

	if _, ok := gw.(gateway.Refresher); !ok {
		t.Error("inventory gateway should support Refresh")
	}
	p, err := gw.FindByName(context.Background(), "SwagPayPal")
	if err != nil || p.Installed() {
		t.Errorf("FindByName() = %+v, %v", p, err)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "gateway")
	if err := os.WriteFile(notExec, []byte("#!/bin/sh\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"both set", Config{InventoryPath: "a.json", PluginPath: "gw"}, "mutually exclusive"},
		{"missing inventory", Config{InventoryPath: filepath.Join(dir, "missing.json")}, "inventory"},
		{"missing plugin", Config{PluginPath: filepath.Join(dir, "missing")}, "invalid gateway plugin"},
		{"plugin not executable", Config{PluginPath: notExec}, "not executable"},
		{"plugin is directory", Config{PluginPath: dir}, "regular file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewBuilder().WithConfig(tt.config).Build(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Build() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLauncherCloseWithoutStart(t *testing.T) {
	l := NewLauncher("/nonexistent", false, nil)
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
