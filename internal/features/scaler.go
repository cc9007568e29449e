package features

import (
	"github.com/paveg/roadsafety/internal/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler rescales selected matrix columns to zero mean and unit
// population variance. Columns with zero variance are only centred.
type StandardScaler struct {
	Columns []int
	Mean    []float64
	Scale   []float64
}

// NewStandardScaler creates a scaler for the given column indices.
func NewStandardScaler(columns []int) *StandardScaler {
	return &StandardScaler{Columns: columns}
}

// Fit learns per-column mean and standard deviation from the given rows of X.
// A nil rows slice fits on every row.
func (s *StandardScaler) Fit(X mat.Matrix, rows []int) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.ErrEmptyTable
	}
	if rows == nil {
		rows = make([]int, r)
		for i := range rows {
			rows[i] = i
		}
	}
	s.Mean = make([]float64, len(s.Columns))
	s.Scale = make([]float64, len(s.Columns))
	col := make([]float64, len(rows))
	for k, j := range s.Columns {
		if j < 0 || j >= c {
			return errors.NewInvalidInputError("scale", "column index out of range")
		}
		for i, row := range rows {
			col[i] = X.At(row, j)
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[k], s.Scale[k] = mean, std
	}
	return nil
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, errors.ErrNotFitted
	}
	out := mat.DenseCopyOf(X)
	r, _ := out.Dims()
	for k, j := range s.Columns {
		for i := 0; i < r; i++ {
			out.Set(i, j, (out.At(i, j)-s.Mean[k])/s.Scale[k])
		}
	}
	return out, nil
}

// FitTransform fits on every row of X and returns the scaled copy.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X, nil); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
