package engine

import (
	"errors"
	"fmt"
)

// TickError represents a failure detected while evaluating one tick.
//
// Tick errors include:
//   - Causality failure: the fixpoint loop did not converge within the
//     bounded number of passes
//   - Signal conflict: a signal was re-emitted with a different value
//     (two passes disagree on the tick's meaning)
//   - Process fault: a process step returned an error
//
// A TickError is fatal for that tick: no outputs are committed and no
// persistent state advances. The embedding system decides whether to
// halt or continue with safe fallback outputs.
type TickError struct {
	// Code identifies the error category.
	Code TickErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the tick on which the failure occurred.
	Seq int64

	// Process names the process involved, when known.
	Process string

	// Err is the underlying cause, when any.
	Err error
}

// TickErrorCode categorizes tick errors.
type TickErrorCode string

const (
	// ErrCodeCausality indicates the fixpoint loop failed to converge
	// within the bounded number of passes.
	ErrCodeCausality TickErrorCode = "CAUSALITY_FAILURE"

	// ErrCodeSignalConflict indicates a signal was emitted twice with
	// contradicting values in one tick.
	ErrCodeSignalConflict TickErrorCode = "SIGNAL_CONFLICT"

	// ErrCodeProcessFault indicates a process step returned an error.
	ErrCodeProcessFault TickErrorCode = "PROCESS_FAULT"
)

// Error implements the error interface.
func (e *TickError) Error() string {
	if e.Process != "" {
		return fmt.Sprintf("%s: %s (tick=%d, process=%s)", e.Code, e.Message, e.Seq, e.Process)
	}
	return fmt.Sprintf("%s: %s (tick=%d)", e.Code, e.Message, e.Seq)
}

// Unwrap returns the underlying cause.
func (e *TickError) Unwrap() error {
	return e.Err
}

// IsCausalityError reports whether err is a causality failure
// (non-convergence or signal conflict). Uses errors.As to handle
// wrapped errors.
func IsCausalityError(err error) bool {
	var te *TickError
	if errors.As(err, &te) {
		return te.Code == ErrCodeCausality || te.Code == ErrCodeSignalConflict
	}
	return false
}

// NewCausalityError creates a TickError for fixpoint non-convergence.
func NewCausalityError(seq int64, passes, limit int) *TickError {
	return &TickError{
		Code:    ErrCodeCausality,
		Message: fmt.Sprintf("fixpoint loop did not converge (%d passes > %d limit)", passes, limit),
		Seq:     seq,
	}
}

// NewConflictError creates a TickError for a contradictory emission.
func NewConflictError(seq int64, cause error) *TickError {
	return &TickError{
		Code:    ErrCodeSignalConflict,
		Message: "two passes disagree on a signal's value",
		Seq:     seq,
		Err:     cause,
	}
}

// NewProcessError creates a TickError for a failed process step.
func NewProcessError(seq int64, process string, cause error) *TickError {
	return &TickError{
		Code:    ErrCodeProcessFault,
		Message: "process step failed",
		Seq:     seq,
		Process: process,
		Err:     cause,
	}
}
