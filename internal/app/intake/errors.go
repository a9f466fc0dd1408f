// internal/app/intake/errors.go
package intake

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies store failures.
type Kind string

const (
	// KindRead is a failed load. Reads degrade to an empty store.
	KindRead Kind = "read"
	// KindCorrupt is stored data that exists but cannot be decoded.
	KindCorrupt Kind = "corrupt"
	// KindWrite is a failed append. Writes fail the request.
	KindWrite Kind = "write"
	// KindConnect is a backend that could not be reached.
	KindConnect Kind = "connect"
)

// Client-facing validation messages, one per HTTP contract.
const (
	MsgRequiredSubmit = "Name, Email, and Message required"
	MsgRequiredAPI    = "Name, email, and message are required"
)

// ValidationError lists the required fields that were empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// SubmitMessage is the /submit-message wording.
func (e *ValidationError) SubmitMessage() string { return MsgRequiredSubmit }

// APIMessage is the /api/contact wording.
func (e *ValidationError) APIMessage() string { return MsgRequiredAPI }

// StoreError wraps a persistence failure with the operation and location.
type StoreError struct {
	Op   string
	Kind Kind
	Path string // file path or backend address, optional
	Err  error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is a StoreError of kind.
func IsKind(err error, kind Kind) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
