// Package forest implements a random forest classifier: bootstrap-sampled
// CART trees split on Gini impurity over a random subset of features, with
// predictions averaged over the per-tree class distributions.
//
// A Classifier is deterministic for a given Seed and training set.
package forest

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paveg/roadsafety/internal/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Params configures a Classifier.
type Params struct {
	NEstimators     int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 = floor(sqrt(features))
	Bootstrap       bool
	Seed            uint64
}

// DefaultParams returns a 100-tree forest seeded with 42.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

func (p Params) maxFeatures(nFeatures int) int {
	if p.MaxFeatures > 0 {
		return min(p.MaxFeatures, nFeatures)
	}
	return max(1, int(math.Sqrt(float64(nFeatures))))
}

func (p Params) validate() error {
	switch {
	case p.NEstimators <= 0:
		return errors.NewInvalidInputError("forest", fmt.Sprintf("NEstimators must be positive, got %d", p.NEstimators))
	case p.MinSamplesSplit < 2:
		return errors.NewInvalidInputError("forest", fmt.Sprintf("MinSamplesSplit must be at least 2, got %d", p.MinSamplesSplit))
	case p.MinSamplesLeaf < 1:
		return errors.NewInvalidInputError("forest", fmt.Sprintf("MinSamplesLeaf must be at least 1, got %d", p.MinSamplesLeaf))
	case p.MaxDepth < 0:
		return errors.NewInvalidInputError("forest", fmt.Sprintf("MaxDepth must be non-negative, got %d", p.MaxDepth))
	}
	return nil
}

// Classifier is a random forest over dense integer class labels.
type Classifier struct {
	params    Params
	trees     []*tree
	nClasses  int
	nFeatures int
}

// New creates an unfitted Classifier.
func New(params Params) *Classifier {
	return &Classifier{params: params}
}

// Params returns the configuration the classifier was built with.
func (c *Classifier) Params() Params {
	return c.params
}

// Fit trains the forest. Labels must be dense codes in [0, k).
func (c *Classifier) Fit(X mat.Matrix, y []int) error {
	if err := c.params.validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return errors.ErrEmptyTable
	}
	if rows != len(y) {
		return errors.ErrMismatchedLength
	}

	nClasses := 0
	for _, label := range y {
		if label < 0 {
			return errors.NewInvalidInputError("forest", fmt.Sprintf("negative class label %d", label))
		}
		nClasses = max(nClasses, label+1)
	}

	columns := make([][]float64, cols)
	for j := range columns {
		columns[j] = mat.Col(nil, j, X)
	}

	rng := rand.New(rand.NewPCG(c.params.Seed, c.params.Seed))
	trees := make([]*tree, c.params.NEstimators)
	for i := range trees {
		treeSeed := rng.Uint64()
		treeRNG := rand.New(rand.NewPCG(treeSeed, treeSeed))
		samples := make([]int, rows)
		for j := range samples {
			if c.params.Bootstrap {
				samples[j] = treeRNG.IntN(rows)
			} else {
				samples[j] = j
			}
		}
		trees[i] = buildTree(columns, y, samples, nClasses, c.params, treeRNG)
	}

	c.trees = trees
	c.nClasses = nClasses
	c.nFeatures = cols
	return nil
}

// NClasses returns the number of classes seen during Fit.
func (c *Classifier) NClasses() int {
	return c.nClasses
}

// PredictProba returns one row per sample with the mean class distribution
// over all trees.
func (c *Classifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if c.trees == nil {
		return nil, errors.ErrNotFitted
	}
	rows, cols := X.Dims()
	if cols != c.nFeatures {
		return nil, errors.NewInvalidInputError("predict",
			fmt.Sprintf("expected %d features, got %d", c.nFeatures, cols))
	}

	out := mat.NewDense(rows, c.nClasses, nil)
	x := make([]float64, cols)
	acc := make([]float64, c.nClasses)
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		for k := range acc {
			acc[k] = 0
		}
		for _, t := range c.trees {
			floats.Add(acc, t.predict(x))
		}
		floats.Scale(1/float64(len(c.trees)), acc)
		out.SetRow(i, acc)
	}
	return out, nil
}

// Predict returns the most probable class per sample; ties go to the
// lower class code.
func (c *Classifier) Predict(X mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	pred := make([]int, rows)
	for i := range pred {
		pred[i] = floats.MaxIdx(proba.RawRowView(i))
	}
	return pred, nil
}

// FeatureImportances returns the mean decrease in impurity per feature,
// normalised to sum to 1.
func (c *Classifier) FeatureImportances() ([]float64, error) {
	if c.trees == nil {
		return nil, errors.ErrNotFitted
	}
	imp := make([]float64, c.nFeatures)
	for _, t := range c.trees {
		floats.Add(imp, t.importance)
	}
	if sum := floats.Sum(imp); sum > 0 {
		floats.Scale(1/sum, imp)
	}
	return imp, nil
}

// Depths returns the depth of every tree, for diagnostics.
func (c *Classifier) Depths() []int {
	d := make([]int, len(c.trees))
	for i, t := range c.trees {
		d[i] = t.depth()
	}
	return d
}
