package gateway

import (
	"context"
	"slices"
)

const (
	// ScopeSystem is the platform scope used for unattended plugin management.
	ScopeSystem = "system"

	// StateDisableIndexing asks the platform to skip entity indexing during lifecycle changes.
	StateDisableIndexing = "disable-indexing"
)

// Token carries the platform context (audit scope, runtime states) through to the
// gateway implementation. pluginmgmt never interprets it.
type Token struct {
	Scope  string   `json:"scope"`
	States []string `json:"states,omitempty"`
}

// DefaultToken returns the token used for command line runs.
func DefaultToken() Token {
	return Token{
		Scope:  ScopeSystem,
		States: []string{StateDisableIndexing},
	}
}

// HasState reports whether the token carries the given state.
func (t Token) HasState(state string) bool {
	return slices.Contains(t.States, state)
}

type tokenKey struct{}

// WithToken returns a copy of ctx carrying the token.
func WithToken(ctx context.Context, t Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, t)
}

// TokenFrom returns the token attached to ctx, or DefaultToken when there is none.
func TokenFrom(ctx context.Context) Token {
	if t, ok := ctx.Value(tokenKey{}).(Token); ok {
		return t
	}
	return DefaultToken()
}
