// Package errors provides standardized error types for pipeline stages.
// PipelineError carries the stage and column context of a failure and
// wraps the underlying cause so callers can use errors.Is and errors.As.
package errors

import (
	"fmt"
)

// PipelineError represents standardized errors across all pipeline stages
type PipelineError struct {
	Stage   string // Stage or operation name (e.g., "impute", "encode", "cross-validate")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s failed on column '%s': %s", e.Stage, e.Column, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is(). An empty Stage on
// the target matches any stage, which is how the sentinels below compare.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	if t.Stage != "" && t.Stage != e.Stage {
		return false
	}
	return e.Column == t.Column && e.Message == t.Message
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(stage, column string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewInvalidInputError creates an error for invalid stage inputs
func NewInvalidInputError(stage, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
	}
}

// NewTypeMismatchError creates an error when a column holds an unexpected type
func NewTypeMismatchError(stage, column, want string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Column:  column,
		Message: fmt.Sprintf("expected %s column", want),
	}
}

// NewValidationError creates an error for postcondition or input validation failures
func NewValidationError(stage, column, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Column:  column,
		Message: message,
	}
}

// NewInsufficientClassError reports a class with fewer members than folds.
func NewInsufficientClassError(class string, members, folds int) *PipelineError {
	return &PipelineError{
		Stage: "cross-validate",
		Message: fmt.Sprintf("class %q has %d members, fewer than n_splits=%d",
			class, members, folds),
	}
}

// NewStageError wraps a failure raised inside a pipeline stage
func NewStageError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: "stage aborted",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyTable indicates operations on tables without rows
	ErrEmptyTable = &PipelineError{
		Message: "operation not supported on empty table",
	}

	// ErrMismatchedLength indicates length mismatches between columns or vectors
	ErrMismatchedLength = &PipelineError{
		Message: "inputs must have the same length",
	}

	// ErrNotFitted indicates use of an encoder, scaler or model before Fit
	ErrNotFitted = &PipelineError{
		Message: "not fitted",
	}
)
