// Package desired loads and validates declarative plugin lists.
package desired

import (
	"encoding/json"
	"fmt"
	"slices"
)

// UpdatePolicy controls when a plugin is updated.
type UpdatePolicy int

const (
	// UpdateNever never updates the plugin ("update": false).
	UpdateNever UpdatePolicy = iota

	// UpdateAvailable updates when the platform reports a newer version ("update": true).
	UpdateAvailable

	// UpdateForce updates on every run ("update": "force").
	UpdateForce
)

const forceLiteral = "force"

// String returns the representation used in reports.
func (u UpdatePolicy) String() string {
	switch u {
	case UpdateAvailable:
		return "yes"
	case UpdateForce:
		return forceLiteral
	default:
		return "no"
	}
}

// MarshalJSON encodes the policy as a boolean or the "force" literal.
func (u UpdatePolicy) MarshalJSON() ([]byte, error) {
	switch u {
	case UpdateForce:
		return json.Marshal(forceLiteral)
	case UpdateAvailable:
		return []byte("true"), nil
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts a boolean or the "force" literal.
func (u *UpdatePolicy) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*u = UpdateAvailable
		} else {
			*u = UpdateNever
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == forceLiteral {
		*u = UpdateForce
		return nil
	}

	return fmt.Errorf("update must be a boolean or %q, got %s", forceLiteral, string(data))
}

// Spec is the desired state of a single plugin.
type Spec struct {
	Name   string       `json:"-"`
	Active bool         `json:"active"`
	Update UpdatePolicy `json:"update"`
}

// State is an ordered, immutable set of plugin specs keyed by name.
// Order follows the source document.
type State struct {
	specs []Spec
	index map[string]int
}

// NewState builds a State from specs, keeping their order.
// It fails on empty or duplicate names.
func NewState(specs ...Spec) (*State, error) {
	s := &State{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("plugin name must not be empty")
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate plugin %q", spec.Name)
		}
		s.index[spec.Name] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// Len returns the number of plugins.
func (s *State) Len() int {
	return len(s.specs)
}

// Specs returns a copy of the specs in declaration order.
func (s *State) Specs() []Spec {
	return slices.Clone(s.specs)
}

// Names returns the plugin names in declaration order.
func (s *State) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Has reports whether name is part of the desired state.
func (s *State) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}
