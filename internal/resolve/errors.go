package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTargetNotFound is wrapped when a pointer does not address any node.
	ErrTargetNotFound = errors.New("reference target not found")
	// ErrRefNotString is wrapped when a $ref value is not a string.
	ErrRefNotString = errors.New("$ref value must be a string")
)

// ReferenceResolutionError reports a reference that could not be followed.
type ReferenceResolutionError struct {
	// Ref is the reference as written in the manifest.
	Ref string
	// At is the location of the referencing node.
	At string
	// Suggestion is an existing pointer close to Ref, if one was found.
	Suggestion string
	Err        error
}

func (e *ReferenceResolutionError) Error() string {
	msg := fmt.Sprintf("failed to resolve reference %q at %s: %v", e.Ref, e.At, e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}

	return msg
}

func (e *ReferenceResolutionError) Unwrap() error {
	return e.Err
}

// CyclicReferenceError reports a reference that leads back to itself.
type CyclicReferenceError struct {
	// Ref is the reference that closed the cycle.
	Ref string
	// Chain lists the references followed, in order, ending with Ref.
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("circular reference %q: %s", e.Ref, strings.Join(e.Chain, " -> "))
}
