package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for the optimization engine. NotFound, NoTestData, and
// LengthMismatch are always fatal. A CollaboratorError is fatal on the first
// iteration and recovered (terminal stop reason "error") from the second on.
var (
	// ErrNotFound indicates a missing agent or prompt version
	ErrNotFound = errors.New("not found")

	// ErrNoTestData indicates an empty labeled evaluation sample
	ErrNoTestData = errors.New("no test data available")

	// ErrLengthMismatch indicates predictions and ground truth differ in
	// length - a caller contract violation, never transient
	ErrLengthMismatch = errors.New("predictions and ground truth length mismatch")
)

// CollaboratorError wraps a failure from a research, engineer, or executor
// call so the loop can distinguish it from contract violations.
type CollaboratorError struct {
	Role string // "research", "engineer", or "runner"
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator failed: %v", e.Role, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaboratorError reports whether err is (or wraps) a CollaboratorError.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
