package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

const fixture = `{
  "plugins": [
    {"name": "SwagPayPal", "installed_at": "2024-01-10T09:00:00Z", "active": true, "version": "8.1.0", "upgrade_version": "8.2.0"},
    {"name": "FroshTools", "active": false, "version": "2.0.0"},
    {"name": "Legacy", "installed_at": "2023-05-01T09:00:00Z", "active": false, "version": "0.9.0", "broken": "source directory missing"}
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	store, err := Open(writeFixture(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	plugins := store.Plugins()
	if len(plugins) != 3 {
		t.Fatalf("Plugins() len = %d, want 3", len(plugins))
	}
	if plugins[0].Name != "SwagPayPal" || !plugins[0].Installed() || !plugins[0].UpgradeAvailable() {
		t.Errorf("Plugins()[0] = %+v", plugins[0])
	}
	if plugins[1].Installed() {
		t.Error("FroshTools should not be installed")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Open(missing) expected error")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Open(bad) error = %v", err)
	}

	dup := filepath.Join(dir, "dup.json")
	if err := os.WriteFile(dup, []byte(`{"plugins":[{"name":"A"},{"name":"A"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dup); err == nil || !strings.Contains(err.Error(), "twice") {
		t.Errorf("Open(dup) error = %v", err)
	}
}

func TestFindByName(t *testing.T) {
	store := NewMemory(gateway.Plugin{Name: "A"})
	ctx := context.Background()

	p, err := store.FindByName(ctx, "A")
	if err != nil || p.Name != "A" {
		t.Fatalf("FindByName(A) = %+v, %v", p, err)
	}

	_, err = store.FindByName(ctx, "B")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("FindByName(B) error = %v, want ErrNotFound", err)
	}
}

func TestLifecyclePersists(t *testing.T) {
	path := writeFixture(t)
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })
	ctx := context.Background()

	frosh := gateway.Plugin{Name: "FroshTools"}
	if err := store.Install(ctx, frosh); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if err := store.Activate(ctx, frosh); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := store.Update(ctx, gateway.Plugin{Name: "SwagPayPal"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after mutations error = %v", err)
	}

	got, _ := reopened.FindByName(ctx, "FroshTools")
	if got.InstalledAt == nil || !got.InstalledAt.Equal(fixed) || !got.Active {
		t.Errorf("FroshTools after install+activate = %+v", got)
	}

	paypal, _ := reopened.FindByName(ctx, "SwagPayPal")
	if paypal.Version != "8.2.0" || paypal.UpgradeAvailable() {
		t.Errorf("SwagPayPal after update = %+v", paypal)
	}

	if err := reopened.Uninstall(ctx, paypal); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	paypal, _ = reopened.FindByName(ctx, "SwagPayPal")
	if paypal.Installed() || paypal.Active {
		t.Errorf("SwagPayPal after uninstall = %+v", paypal)
	}

	// No temporary files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the inventory file", len(entries))
	}
}

func TestLifecycleRules(t *testing.T) {
	installed := time.Now()
	ctx := context.Background()

	tests := []struct {
		name    string
		plugin  gateway.Plugin
		op      func(*Store, gateway.Plugin) error
		wantErr string
	}{
		{
			name:    "install twice",
			plugin:  gateway.Plugin{Name: "A", InstalledAt: &installed},
			op:      func(s *Store, p gateway.Plugin) error { return s.Install(ctx, p) },
			wantErr: "already installed",
		},
		{
			name:    "activate uninstalled",
			plugin:  gateway.Plugin{Name: "A"},
			op:      func(s *Store, p gateway.Plugin) error { return s.Activate(ctx, p) },
			wantErr: "not installed",
		},
		{
			name:    "activate active",
			plugin:  gateway.Plugin{Name: "A", InstalledAt: &installed, Active: true},
			op:      func(s *Store, p gateway.Plugin) error { return s.Activate(ctx, p) },
			wantErr: "already active",
		},
		{
			name:    "deactivate inactive",
			plugin:  gateway.Plugin{Name: "A", InstalledAt: &installed},
			op:      func(s *Store, p gateway.Plugin) error { return s.Deactivate(ctx, p) },
			wantErr: "not active",
		},
		{
			name:    "update uninstalled",
			plugin:  gateway.Plugin{Name: "A"},
			op:      func(s *Store, p gateway.Plugin) error { return s.Update(ctx, p) },
			wantErr: "not installed",
		},
		{
			name:    "uninstall uninstalled",
			plugin:  gateway.Plugin{Name: "A"},
			op:      func(s *Store, p gateway.Plugin) error { return s.Uninstall(ctx, p) },
			wantErr: "not installed",
		},
		{
			name:    "unknown plugin",
			plugin:  gateway.Plugin{Name: "A"},
			op:      func(s *Store, _ gateway.Plugin) error { return s.Install(ctx, gateway.Plugin{Name: "B"}) },
			wantErr: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemory(tt.plugin)
			before := store.Plugins()[0]

			err := tt.op(store, tt.plugin)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}

			after := store.Plugins()[0]
			if after.Active != before.Active || after.Installed() != before.Installed() {
				t.Errorf("failed operation changed state: %+v -> %+v", before, after)
			}
		})
	}
}

func TestBrokenPluginFails(t *testing.T) {
	store, err := Open(writeFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	err = store.Uninstall(context.Background(), gateway.Plugin{Name: "Legacy"})
	if err == nil || !strings.Contains(err.Error(), "source directory missing") {
		t.Errorf("Uninstall(Legacy) error = %v", err)
	}
}

func TestForcedUpdateWithoutUpgradeKeepsVersion(t *testing.T) {
	installed := time.Now()
	store := NewMemory(gateway.Plugin{Name: "A", InstalledAt: &installed, Version: "1.0.0"})

	if err := store.Update(context.Background(), gateway.Plugin{Name: "A"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := store.Plugins()[0].Version; got != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", got)
	}
}

func TestRefreshReloadsFile(t *testing.T) {
	path := writeFixture(t)
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`{"plugins":[{"name":"Only"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	plugins := store.Plugins()
	if len(plugins) != 1 || plugins[0].Name != "Only" {
		t.Errorf("Plugins() after refresh = %+v", plugins)
	}
}
