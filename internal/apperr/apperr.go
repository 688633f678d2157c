// Package apperr defines the typed error taxonomy shared by every devctx
// component.
//
// Errors carry a Kind set at the point of origin, so callers at the MCP
// boundary switch on the tag instead of matching message text.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that are not *Error.
	KindUnknown Kind = iota
	// KindConfiguration means a required setting is absent or malformed.
	KindConfiguration
	// KindScopeNotFound means the requested scope is absent or inactive.
	KindScopeNotFound
	// KindBackend means the knowledge base (search or scope registry) failed.
	KindBackend
	// KindEmbedding means the embedding provider failed or returned a
	// vector of the wrong dimension.
	KindEmbedding
	// KindEmptyInput means the inbound command string was blank.
	KindEmptyInput
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindScopeNotFound:
		return "scope_not_found"
	case KindBackend:
		return "backend"
	case KindEmbedding:
		return "embedding"
	case KindEmptyInput:
		return "empty_input"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by devctx components.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "retrieval.technology".
	Op string

	// Scope and AvailableScopes are set for KindScopeNotFound.
	Scope           string
	AvailableScopes []string

	// Missing lists offending settings for KindConfiguration.
	Missing []string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindScopeNotFound:
		fmt.Fprintf(&b, "scope %q not found", e.Scope)
		if len(e.AvailableScopes) > 0 {
			fmt.Fprintf(&b, " (available: %s)", strings.Join(e.AvailableScopes, ", "))
		}
	case KindConfiguration:
		b.WriteString("invalid configuration")
		if len(e.Missing) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
		}
	case KindEmptyInput:
		b.WriteString("empty command")
	default:
		b.WriteString(e.Kind.String())
		b.WriteString(" error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration reports missing or malformed settings.
func Configuration(missing []string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: "config", Missing: missing, Err: err}
}

// ScopeNotFound reports an absent or inactive scope together with the
// scopes that are currently active.
func ScopeNotFound(scope string, available []string) *Error {
	return &Error{Kind: KindScopeNotFound, Op: "scope", Scope: scope, AvailableScopes: available}
}

// Backend wraps a knowledge base failure.
func Backend(op string, err error) *Error {
	return &Error{Kind: KindBackend, Op: op, Err: err}
}

// Embedding wraps an embedding provider failure.
func Embedding(op string, err error) *Error {
	return &Error{Kind: KindEmbedding, Op: op, Err: err}
}

// EmptyInput reports a blank command.
func EmptyInput(op string) *Error {
	return &Error{Kind: KindEmptyInput, Op: op}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
