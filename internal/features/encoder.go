package features

import (
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
)

// CategoricalColumns are label-encoded before modeling.
var CategoricalColumns = []string{"Location", "Weather", "Road_Condition", "Accident_Severity"}

// LabelEncoder maps distinct string values to dense codes. Classes are kept
// in ascending order, so code i always names Classes()[i].
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// Fit learns the sorted distinct values.
func (e *LabelEncoder) Fit(values []string) *LabelEncoder {
	classes := slices.Clone(values)
	slices.Sort(classes)
	e.classes = slices.Compact(classes)
	e.index = make(map[string]int, len(e.classes))
	for i, c := range e.classes {
		e.index[c] = i
	}
	return e
}

// Classes returns the fitted classes; the position is the code.
func (e *LabelEncoder) Classes() []string {
	return slices.Clone(e.classes)
}

// Transform maps values to codes. Unseen values are an error.
func (e *LabelEncoder) Transform(values []string) ([]int64, error) {
	if e.index == nil {
		return nil, errors.ErrNotFitted
	}
	codes := make([]int64, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			return nil, errors.NewInvalidInputError("label-encode", fmt.Sprintf("unseen label %q", v))
		}
		codes[i] = int64(code)
	}
	return codes, nil
}

// InverseTransform maps codes back to their class names.
func (e *LabelEncoder) InverseTransform(codes []int64) ([]string, error) {
	if e.index == nil {
		return nil, errors.ErrNotFitted
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || int(c) >= len(e.classes) {
			return nil, errors.NewInvalidInputError("label-decode", fmt.Sprintf("code %d out of range [0, %d)", c, len(e.classes)))
		}
		out[i] = e.classes[c]
	}
	return out, nil
}

// Encoders holds the fitted encoder of every encoded column.
type Encoders map[string]*LabelEncoder

// Classes returns the class names of column, or nil if it was not encoded.
func (e Encoders) Classes(column string) []string {
	if enc, ok := e[column]; ok {
		return enc.Classes()
	}
	return nil
}

// EncodeColumns fits one encoder per column and replaces each string column
// with its int64 codes.
func EncodeColumns(t *frame.Table, columns []string, mem memory.Allocator) (Encoders, error) {
	encoders := make(Encoders, len(columns))
	for _, col := range columns {
		values, err := t.Strings(col)
		if err != nil {
			return nil, err
		}
		if c, _ := t.Column(col); c.NullCount() > 0 {
			return nil, errors.NewValidationError("label-encode", col, "column contains missing values")
		}
		enc := new(LabelEncoder).Fit(values)
		codes, err := enc.Transform(values)
		if err != nil {
			return nil, err
		}
		if err := t.Set(series.New(col, codes, mem)); err != nil {
			return nil, err
		}
		encoders[col] = enc
	}
	return encoders, nil
}
