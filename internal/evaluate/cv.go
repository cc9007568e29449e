package evaluate

import (
	"github.com/paveg/roadsafety/internal/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is the part of a classifier cross-validation needs.
type Model interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
}

// Fold is one train/test partition of a k-fold split.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold partitions rows into k folds that preserve class ratios.
// Rows are not shuffled: labels are sorted, dealt round-robin to folds to
// fix each fold's per-class quota, and each class's rows are then assigned
// to folds in row order. Every class must have at least k members.
func StratifiedKFold(y []int, k int, classes []string) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NewInvalidInputError("cross-validate", "need at least 2 folds")
	}
	if len(y) < k {
		return nil, errors.NewInvalidInputError("cross-validate", "more folds than rows")
	}

	nClasses := 0
	for _, label := range y {
		if label < 0 {
			return nil, errors.NewInvalidInputError("cross-validate", "negative class label")
		}
		nClasses = max(nClasses, label+1)
	}
	counts := make([]int, nClasses)
	for _, label := range y {
		counts[label]++
	}
	for c, n := range counts {
		if n > 0 && n < k {
			name := ""
			if c < len(classes) {
				name = classes[c]
			}
			return nil, errors.NewInsufficientClassError(name, n, k)
		}
	}

	// sorted label sequence, dealt to folds i, i+k, i+2k, ...
	sorted := make([]int, 0, len(y))
	for c, n := range counts {
		for range n {
			sorted = append(sorted, c)
		}
	}
	allocation := make([][]int, k)
	for i := range allocation {
		allocation[i] = make([]int, nClasses)
		for j := i; j < len(sorted); j += k {
			allocation[i][sorted[j]]++
		}
	}

	// per class, fold ids repeated by quota, assigned in row order
	testFold := make([]int, len(y))
	next := make([]int, nClasses)
	queues := make([][]int, nClasses)
	for c := range queues {
		for f := 0; f < k; f++ {
			for range allocation[f][c] {
				queues[c] = append(queues[c], f)
			}
		}
	}
	for row, label := range y {
		testFold[row] = queues[label][next[label]]
		next[label]++
	}

	folds := make([]Fold, k)
	for row, f := range testFold {
		for i := range folds {
			if i == f {
				folds[i].Test = append(folds[i].Test, row)
			} else {
				folds[i].Train = append(folds[i].Train, row)
			}
		}
	}
	return folds, nil
}

// CVResult holds the per-fold accuracy of a cross-validation run.
type CVResult struct {
	Scores []float64
	Mean   float64
	Std    float64
}

// CrossValidate fits a fresh model from newModel on each stratified fold and
// scores it on the held-out rows.
func CrossValidate(X mat.Matrix, y []int, k int, classes []string, newModel func() Model) (*CVResult, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.ErrMismatchedLength
	}
	folds, err := StratifiedKFold(y, k, classes)
	if err != nil {
		return nil, err
	}

	res := &CVResult{Scores: make([]float64, 0, k)}
	for _, fold := range folds {
		model := newModel()
		if err := model.Fit(SelectRows(X, fold.Train), SelectLabels(y, fold.Train)); err != nil {
			return nil, errors.NewStageError("cross-validate", err)
		}
		pred, err := model.Predict(SelectRows(X, fold.Test))
		if err != nil {
			return nil, errors.NewStageError("cross-validate", err)
		}
		acc, err := Accuracy(SelectLabels(y, fold.Test), pred)
		if err != nil {
			return nil, err
		}
		res.Scores = append(res.Scores, acc)
	}
	res.Mean, res.Std = stat.PopMeanStdDev(res.Scores, nil)
	return res, nil
}
