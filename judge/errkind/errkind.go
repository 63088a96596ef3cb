// Package errkind tags judge errors with the structural kind spec §7
// enumerates, so callers can branch on failure class without parsing
// error strings.
package errkind

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unknown is the zero value; never produced deliberately.
	Unknown Kind = iota
	// InvalidSpec means the caller's JobSpec failed validation. The job
	// was never created.
	InvalidSpec
	// InvalidState means a lifecycle method was called from a state that
	// doesn't allow it (e.g. execute before prime). Programmer error.
	InvalidState
	// Spawn means a child process could not be started.
	Spawn
	// Filesystem means prime or cleanup hit a filesystem error.
	Filesystem
)

func (k Kind) String() string {
	switch k {
	case InvalidSpec:
		return "invalid_spec"
	case InvalidState:
		return "invalid_state"
	case Spawn:
		return "spawn"
	case Filesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged error wrapping an operation name and an
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for the given kind, operation name, and cause.
// err may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
