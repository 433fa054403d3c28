// Package inventory provides a file-backed plugin inventory that implements
// the gateway contract. It stands in for the platform's plugin runtime when
// pluginmgmt manages plugins recorded in a JSON state file.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/netzarbeiter/pluginmgmt/pkg/gateway"
)

// FileVersion is the current inventory file format version.
const FileVersion = "1"

// File is the on-disk inventory format.
type File struct {
	Version string   `json:"version,omitempty"`
	Plugins []Record `json:"plugins"`
}

// Record is one plugin in the inventory file.
type Record struct {
	gateway.Plugin

	// Broken marks a plugin whose sources are unusable; every lifecycle
	// operation on it fails with this reason.
	Broken string `json:"broken,omitempty"`
}

// Store is a gateway.Gateway over an inventory file. A Store without a path
// keeps its state in memory only.
type Store struct {
	mu      sync.Mutex
	path    string
	records []Record
	now     func() time.Time
}

var _ gateway.Gateway = (*Store)(nil)
var _ gateway.Refresher = (*Store)(nil)

// Open loads the inventory file at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory creates an in-memory store holding the given plugins.
func NewMemory(plugins ...gateway.Plugin) *Store {
	s := &Store{now: time.Now}
	for _, p := range plugins {
		s.records = append(s.records, Record{Plugin: p})
	}
	return s
}

// NewMemoryRecords creates an in-memory store from full records.
func NewMemoryRecords(records ...Record) *Store {
	return &Store{records: slices.Clone(records), now: time.Now}
}

// SetClock replaces the clock used for installation timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Path returns the backing file path, or "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Plugins returns a snapshot of every plugin in file order.
func (s *Store) Plugins() []gateway.Plugin {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]gateway.Plugin, len(s.records))
	for i, r := range s.records {
		out[i] = r.Plugin
	}
	return out
}

// FindByName returns the named plugin or gateway.ErrNotFound.
func (s *Store) FindByName(_ context.Context, name string) (gateway.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return gateway.Plugin{}, fmt.Errorf("%w: %s", gateway.ErrNotFound, name)
	}
	return s.records[i].Plugin, nil
}

// ListInstalled returns installed plugins in file order.
func (s *Store) ListInstalled(_ context.Context) ([]gateway.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []gateway.Plugin
	for _, r := range s.records {
		if r.Installed() {
			out = append(out, r.Plugin)
		}
	}
	return out, nil
}

// Install marks the plugin installed.
func (s *Store) Install(_ context.Context, p gateway.Plugin) error {
	return s.mutate(p.Name, func(r *Record) error {
		if r.Installed() {
			return fmt.Errorf("plugin %s is already installed", r.Name)
		}
		now := s.now().UTC()
		r.InstalledAt = &now
		return nil
	})
}

// Activate marks the plugin active.
func (s *Store) Activate(_ context.Context, p gateway.Plugin) error {
	return s.mutate(p.Name, func(r *Record) error {
		if !r.Installed() {
			return fmt.Errorf("plugin %s is not installed", r.Name)
		}
		if r.Active {
			return fmt.Errorf("plugin %s is already active", r.Name)
		}
		r.Active = true
		return nil
	})
}

// Deactivate marks the plugin inactive.
func (s *Store) Deactivate(_ context.Context, p gateway.Plugin) error {
	return s.mutate(p.Name, func(r *Record) error {
		if !r.Installed() {
			return fmt.Errorf("plugin %s is not installed", r.Name)
		}
		if !r.Active {
			return fmt.Errorf("plugin %s is not active", r.Name)
		}
		r.Active = false
		return nil
	})
}

// Update applies the pending upgrade version. Without one the current version
// is re-applied.
func (s *Store) Update(_ context.Context, p gateway.Plugin) error {
	return s.mutate(p.Name, func(r *Record) error {
		if !r.Installed() {
			return fmt.Errorf("plugin %s is not installed", r.Name)
		}
		if r.UpgradeVersion != "" {
			r.Version = r.UpgradeVersion
			r.UpgradeVersion = ""
		}
		return nil
	})
}

// Uninstall clears the installation and deactivates the plugin.
func (s *Store) Uninstall(_ context.Context, p gateway.Plugin) error {
	return s.mutate(p.Name, func(r *Record) error {
		if !r.Installed() {
			return fmt.Errorf("plugin %s is not installed", r.Name)
		}
		r.InstalledAt = nil
		r.Active = false
		return nil
	})
}

// Refresh reloads the inventory file. In-memory stores are left untouched.
func (s *Store) Refresh(_ context.Context) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// mutate applies fn to a copy of the named record and persists the result.
// The in-memory state only changes when fn and the write both succeed.
func (s *Store) mutate(name string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", gateway.ErrNotFound, name)
	}

	r := s.records[i]
	if r.Broken != "" {
		return fmt.Errorf("plugin %s is broken: %s", name, r.Broken)
	}
	if err := fn(&r); err != nil {
		return err
	}

	next := slices.Clone(s.records)
	next[i] = r
	if err := s.save(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *Store) indexOf(name string) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.Name == name })
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.path) // #nosec G304 - inventory path controlled by operator
	if err != nil {
		return fmt.Errorf("failed to read inventory file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse inventory file: %w", err)
	}

	seen := make(map[string]bool, len(f.Plugins))
	for _, r := range f.Plugins {
		if r.Name == "" {
			return errors.New("inventory file contains a plugin without name")
		}
		if seen[r.Name] {
			return fmt.Errorf("inventory file lists plugin %s twice", r.Name)
		}
		seen[r.Name] = true
	}

	s.records = f.Plugins
	return nil
}

// save writes records to the inventory file via a temporary file and rename.
func (s *Store) save(records []Record) error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(File{Version: FileVersion, Plugins: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".inventory-*.json")
	if err != nil {
		return fmt.Errorf("failed to update inventory file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to update inventory file: %w", errors.Join(writeErr, closeErr))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to update inventory file: %w", err)
	}
	return nil
}
