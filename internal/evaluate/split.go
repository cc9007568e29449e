// Package evaluate splits data, scores predictions, and cross-validates
// classifiers.
package evaluate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paveg/roadsafety/internal/errors"
	"gonum.org/v1/gonum/mat"
)

// Split holds row indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles 0..n-1 with seed and holds out ceil(n*testFraction)
// rows for testing. The split is not stratified.
func TrainTestSplit(n int, testFraction float64, seed uint64) (Split, error) {
	if n < 2 {
		return Split{}, errors.NewInvalidInputError("split", fmt.Sprintf("need at least 2 rows, got %d", n))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, errors.NewInvalidInputError("split", fmt.Sprintf("test fraction must be in (0, 1), got %g", testFraction))
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		return Split{}, errors.NewInvalidInputError("split", "test fraction leaves no training rows")
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return Split{Test: perm[:nTest], Train: perm[nTest:]}, nil
}

// SelectRows copies the given rows of X into a new matrix.
func SelectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	row := make([]float64, c)
	for i, r := range rows {
		mat.Row(row, r, X)
		out.SetRow(i, row)
	}
	return out
}

// SelectLabels picks the given entries of y.
func SelectLabels(y []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
