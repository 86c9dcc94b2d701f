// Package errdefs defines the structured error type shared by all cargohold
// packages.
package errdefs

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindInvalidArgument covers null/empty/out-of-range caller input,
	// including read or patch windows that exceed entry or region bounds.
	KindInvalidArgument Kind = "InvalidArgument"

	// KindInvalidFormat covers malformed container contents: bad magic
	// words, zero counts, out-of-range certificate sizes, and certificate
	// data that cannot be classified.
	KindInvalidFormat Kind = "InvalidFormat"

	// KindNotFound covers missing partition entries and missing store paths.
	KindNotFound Kind = "NotFound"

	// KindIntegrity covers hash-tree offset/size validation failures.
	KindIntegrity Kind = "Integrity"

	// KindIO covers collaborator read/write failures, including short reads.
	KindIO Kind = "IO"
)

// Error is the library's structured error type.
//
// Op names the failing operation (e.g. "pfs.Open", "cert.RetrieveByName").
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New constructs a structured error without a cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Wrap constructs a structured error wrapping cause.
func Wrap(kind Kind, op, msg string, cause error) error {
	if cause == nil {
		return New(kind, op, msg)
	}
	return &Error{Kind: kind, Op: op, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind for a structured error, or "" if err does not
// carry one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
