package evaluate

import (
	"cmp"
	"slices"

	"github.com/paveg/roadsafety/internal/errors"
)

// FeatureScore pairs a feature name with its importance.
type FeatureScore struct {
	Feature    string
	Importance float64
}

// RankImportances sorts features by importance, highest first. Equal scores
// keep their input order.
func RankImportances(names []string, importances []float64) ([]FeatureScore, error) {
	if len(names) != len(importances) {
		return nil, errors.ErrMismatchedLength
	}
	ranked := make([]FeatureScore, len(names))
	for i := range names {
		ranked[i] = FeatureScore{Feature: names[i], Importance: importances[i]}
	}
	slices.SortStableFunc(ranked, func(a, b FeatureScore) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return ranked, nil
}
