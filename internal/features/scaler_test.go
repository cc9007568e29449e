package features

import (
	"testing"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})
	s := NewStandardScaler([]int{1, 2})

	out, err := s.FitTransform(X)
	require.NoError(t, err)

	col := mat.Col(nil, 1, out)
	mean, std := stat.PopMeanStdDev(col, nil)
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)

	assert.Equal(t, []float64{1, 2, 3, 4}, mat.Col(nil, 0, out), "unlisted columns are untouched")
	assert.Equal(t, []float64{0, 0, 0, 0}, mat.Col(nil, 2, out), "constant columns are centred only")
	assert.InDelta(t, 10.0, X.At(0, 1), 0, "input is not modified")
}

func TestStandardScalerFitOnSubset(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 2, 100, 100})
	s := NewStandardScaler([]int{0})
	require.NoError(t, s.Fit(X, []int{0, 1}))

	assert.InDelta(t, 1.0, s.Mean[0], 1e-12)
	assert.InDelta(t, 1.0, s.Scale[0], 1e-12)

	out, err := s.Transform(X)
	require.NoError(t, err)
	assert.InDelta(t, 99.0, out.At(2, 0), 1e-12)
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler([]int{5})
	_, err := s.Transform(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, errors.ErrNotFitted)

	assert.Error(t, s.Fit(mat.NewDense(2, 1, nil), nil))
}
