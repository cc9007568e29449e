package forest

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// separable builds rows whose class is decided by feature 0 alone; the
// remaining features are noise.
func separable(n int, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 4, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		class := i % 3
		y[i] = class
		X.Set(i, 0, float64(class)*10+rng.Float64())
		for j := 1; j < 4; j++ {
			X.Set(i, j, rng.Float64()*100)
		}
	}
	return X, y
}

func smallParams() Params {
	p := DefaultParams()
	p.NEstimators = 15
	return p
}

func TestClassifierSeparable(t *testing.T) {
	X, y := separable(150, 1)
	p := smallParams()
	p.MaxFeatures = 4
	clf := New(p)
	require.NoError(t, clf.Fit(X, y))
	assert.Equal(t, 3, clf.NClasses())

	testX, testY := separable(60, 2)
	pred, err := clf.Predict(testX)
	require.NoError(t, err)
	assert.Equal(t, testY, pred)

	imp, err := clf.FeatureImportances()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, floats.Sum(imp), 1e-9)
	assert.Equal(t, 0, floats.MaxIdx(imp), "the informative feature ranks first")
}

func TestClassifierPredictProba(t *testing.T) {
	X, y := separable(90, 3)
	clf := New(smallParams())
	require.NoError(t, clf.Fit(X, y))

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 90, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, floats.Sum(proba.RawRowView(i)), 1e-9)
	}
}

func TestClassifierDeterministic(t *testing.T) {
	X, _ := separable(120, 4)
	rng := rand.New(rand.NewPCG(9, 9))
	y := make([]int, 120)
	for i := range y {
		y[i] = rng.IntN(4)
	}

	fit := func(seed uint64) ([]int, []float64) {
		p := smallParams()
		p.Seed = seed
		clf := New(p)
		require.NoError(t, clf.Fit(X, y))
		pred, err := clf.Predict(X)
		require.NoError(t, err)
		imp, err := clf.FeatureImportances()
		require.NoError(t, err)
		return pred, imp
	}

	predA, impA := fit(42)
	predB, impB := fit(42)
	if diff := cmp.Diff(predA, predB); diff != "" {
		t.Errorf("predictions differ between identical runs (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(impA, impB); diff != "" {
		t.Errorf("importances differ between identical runs (-a +b):\n%s", diff)
	}

	_, impC := fit(7)
	assert.NotEqual(t, impA, impC)
}

func TestClassifierMaxDepth(t *testing.T) {
	X, y := separable(90, 5)
	p := smallParams()
	p.MaxDepth = 1
	clf := New(p)
	require.NoError(t, clf.Fit(X, y))

	for _, d := range clf.Depths() {
		assert.LessOrEqual(t, d, 1)
	}
}

func TestClassifierNoBootstrapPureLeaves(t *testing.T) {
	X, y := separable(60, 6)
	p := smallParams()
	p.Bootstrap = false
	p.MaxFeatures = 4
	clf := New(p)
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
}

func TestClassifierAdjacentThreshold(t *testing.T) {
	a := math.Nextafter(1, 2)
	b := math.Nextafter(a, 2)
	X := mat.NewDense(2, 1, []float64{a, b})
	y := []int{0, 1}

	p := DefaultParams()
	p.NEstimators = 1
	p.Bootstrap = false
	clf := New(p)
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
	assert.Equal(t, []int{1}, clf.Depths())
}

func TestClassifierErrors(t *testing.T) {
	clf := New(DefaultParams())

	_, err := clf.Predict(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, errors.ErrNotFitted)
	_, err = clf.FeatureImportances()
	assert.ErrorIs(t, err, errors.ErrNotFitted)

	assert.ErrorIs(t, clf.Fit(mat.NewDense(2, 2, nil), []int{0}), errors.ErrMismatchedLength)
	assert.Error(t, clf.Fit(mat.NewDense(1, 1, nil), []int{-1}))

	bad := DefaultParams()
	bad.NEstimators = 0
	assert.Error(t, New(bad).Fit(mat.NewDense(1, 1, nil), []int{0}))

	X, y := separable(30, 7)
	require.NoError(t, clf.Fit(X, y))
	_, err = clf.Predict(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

func TestMaxFeatures(t *testing.T) {
	assert.Equal(t, 3, DefaultParams().maxFeatures(11))
	assert.Equal(t, 1, DefaultParams().maxFeatures(1))
	p := DefaultParams()
	p.MaxFeatures = 20
	assert.Equal(t, 11, p.maxFeatures(11))
}

func TestGini(t *testing.T) {
	assert.InDelta(t, 0.0, gini([]float64{4, 0}, 4), 1e-12)
	assert.InDelta(t, 0.5, gini([]float64{2, 2}, 4), 1e-12)
	assert.InDelta(t, 0.0, gini([]float64{0, 0}, 0), 1e-12)
}
