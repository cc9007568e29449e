// Package clean corrupts selected columns with missing values and imputes them.
package clean

import (
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"golang.org/x/exp/constraints"
)

// Imputation records what an impute call filled in.
type Imputation struct {
	Column   string
	Strategy string // "mode" or "median"
	Filled   int
	Value    string
}

// InjectMissing nulls n row indices of column, drawn uniformly with
// replacement, so fewer than n distinct rows may end up null. It returns the
// drawn indices in draw order.
func InjectMissing(t *frame.Table, column string, n int, rng *rand.Rand, mem memory.Allocator) ([]int, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, errors.NewColumnNotFoundError("inject-missing", column)
	}
	if t.Len() == 0 && n > 0 {
		return nil, errors.ErrEmptyTable
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.IntN(t.Len())
	}

	var replaced series.Column
	switch s := c.(type) {
	case *series.Series[string]:
		replaced = series.NewNullable(column, s.Values(), knockOut(s.Valid(), indices), mem)
	case *series.Series[int64]:
		replaced = series.NewNullable(column, s.Values(), knockOut(s.Valid(), indices), mem)
	case *series.Series[float64]:
		replaced = series.NewNullable(column, s.Values(), knockOut(s.Valid(), indices), mem)
	default:
		return nil, errors.NewTypeMismatchError("inject-missing", column, "string or numeric")
	}
	if err := t.Set(replaced); err != nil {
		replaced.Release()
		return nil, err
	}
	return indices, nil
}

func knockOut(valid []bool, indices []int) []bool {
	for _, i := range indices {
		valid[i] = false
	}
	return valid
}

// ImputeMode replaces nulls in a string column with its most frequent
// non-null value.
func ImputeMode(t *frame.Table, column string, mem memory.Allocator) (Imputation, error) {
	c, ok := t.Column(column)
	if !ok {
		return Imputation{}, errors.NewColumnNotFoundError("impute-mode", column)
	}
	s, ok := c.(*series.Series[string])
	if !ok {
		return Imputation{}, errors.NewTypeMismatchError("impute-mode", column, "string")
	}

	present := presentValues(s)
	if len(present) == 0 {
		return Imputation{}, errors.NewValidationError("impute-mode", column, "no non-missing values")
	}
	mode := Mode(present)

	values := s.Values()
	filled := 0
	for i := range values {
		if s.IsNull(i) {
			values[i] = mode
			filled++
		}
	}
	if err := t.Set(series.New(column, values, mem)); err != nil {
		return Imputation{}, err
	}
	return Imputation{Column: column, Strategy: "mode", Filled: filled, Value: mode}, nil
}

// ImputeMedian replaces nulls in a numeric column with the median of its
// non-null values. The column is rewritten as float64.
func ImputeMedian(t *frame.Table, column string, mem memory.Allocator) (Imputation, error) {
	c, ok := t.Column(column)
	if !ok {
		return Imputation{}, errors.NewColumnNotFoundError("impute-median", column)
	}

	var values []float64
	var valid []bool
	switch s := c.(type) {
	case *series.Series[int64]:
		for _, v := range s.Values() {
			values = append(values, float64(v))
		}
		valid = s.Valid()
	case *series.Series[float64]:
		values = s.Values()
		valid = s.Valid()
	default:
		return Imputation{}, errors.NewTypeMismatchError("impute-median", column, "numeric")
	}

	present := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return Imputation{}, errors.NewValidationError("impute-median", column, "no non-missing values")
	}
	median := Median(present)

	filled := 0
	for i := range values {
		if !valid[i] {
			values[i] = median
			filled++
		}
	}
	if err := t.Set(series.New(column, values, mem)); err != nil {
		return Imputation{}, err
	}
	return Imputation{
		Column:   column,
		Strategy: "median",
		Filled:   filled,
		Value:    strconv.FormatFloat(median, 'f', -1, 64),
	}, nil
}

func presentValues[T any](s *series.Series[T]) []T {
	out := make([]T, 0, s.Len()-s.NullCount())
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			out = append(out, s.Value(i))
		}
	}
	return out
}

// Mode returns the most frequent value. Ties resolve to the smallest value,
// so the result does not depend on input order. values must be non-empty.
func Mode[T constraints.Ordered](values []T) T {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var best T
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. values must be non-empty; it is not modified.
func Median[T constraints.Integer | constraints.Float](values []T) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}
