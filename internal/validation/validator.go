// Package validation provides reusable checks run on the table after
// pipeline stages: column presence, row count, absence of nulls, and
// label-code ranges.
package validation

import (
	"fmt"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/series"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// TableProvider is the part of a table the validators read.
type TableProvider interface {
	HasColumn(name string) bool
	Column(name string) (series.Column, bool)
	Len() int
	Int64s(name string) ([]int64, error)
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	t       TableProvider
	columns []string
	stage   string
}

// NewColumnValidator creates a validator for column presence
func NewColumnValidator(t TableProvider, stage string, columns ...string) *ColumnValidator {
	return &ColumnValidator{t: t, columns: columns, stage: stage}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.t.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.stage, column)
		}
	}
	return nil
}

// RowCountValidator validates that a stage kept the row count
type RowCountValidator struct {
	t        TableProvider
	expected int
	stage    string
}

// NewRowCountValidator creates a validator for an exact row count
func NewRowCountValidator(t TableProvider, expected int, stage string) *RowCountValidator {
	return &RowCountValidator{t: t, expected: expected, stage: stage}
}

// Validate checks the row count
func (v *RowCountValidator) Validate() error {
	if v.t.Len() != v.expected {
		message := fmt.Sprintf("expected %d rows, got %d", v.expected, v.t.Len())
		return errors.NewValidationError(v.stage, "", message)
	}
	return nil
}

// NoNullsValidator validates that columns hold no missing values
type NoNullsValidator struct {
	t       TableProvider
	columns []string
	stage   string
}

// NewNoNullsValidator creates a validator for fully populated columns
func NewNoNullsValidator(t TableProvider, stage string, columns ...string) *NoNullsValidator {
	return &NoNullsValidator{t: t, columns: columns, stage: stage}
}

// Validate checks every column's null count
func (v *NoNullsValidator) Validate() error {
	for _, column := range v.columns {
		c, ok := v.t.Column(column)
		if !ok {
			return errors.NewColumnNotFoundError(v.stage, column)
		}
		if n := c.NullCount(); n > 0 {
			return errors.NewValidationError(v.stage, column, fmt.Sprintf("%d missing values remain", n))
		}
	}
	return nil
}

// CodeRangeValidator validates that an integer column lies in [0, k)
type CodeRangeValidator struct {
	t      TableProvider
	column string
	k      int
	stage  string
}

// NewCodeRangeValidator creates a validator for dense label codes
func NewCodeRangeValidator(t TableProvider, stage, column string, k int) *CodeRangeValidator {
	return &CodeRangeValidator{t: t, column: column, k: k, stage: stage}
}

// Validate checks every code
func (v *CodeRangeValidator) Validate() error {
	codes, err := v.t.Int64s(v.column)
	if err != nil {
		return err
	}
	for i, c := range codes {
		if c < 0 || c >= int64(v.k) {
			message := fmt.Sprintf("row %d has code %d outside [0, %d)", i, c, v.k)
			return errors.NewValidationError(v.stage, v.column, message)
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	stage    string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, stage, context string) *LengthValidator {
	return &LengthValidator{expected: expected, actual: actual, stage: stage, context: context}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewValidationError(v.stage, "", message)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{validators: validators}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, stage, context string) error {
	return NewLengthValidator(expected, actual, stage, context).Validate()
}
