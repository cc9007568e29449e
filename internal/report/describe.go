package report

import (
	"math"
	"slices"

	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds descriptive statistics of one numeric column. Std is
// the sample standard deviation.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarizes every int64 and float64 column in table order. Nulls
// are excluded from every statistic.
func Describe(t *frame.Table) ([]ColumnSummary, error) {
	var out []ColumnSummary
	for _, name := range t.Columns() {
		c, _ := t.Column(name)
		switch c.(type) {
		case *series.Series[int64], *series.Series[float64]:
		default:
			continue
		}
		values, err := t.Float64s(name)
		if err != nil {
			return nil, err
		}
		present := slices.DeleteFunc(values, math.IsNaN)
		out = append(out, summarize(name, present))
	}
	return out, nil
}

func summarize(name string, x []float64) ColumnSummary {
	s := ColumnSummary{Column: name, Count: len(x)}
	if len(x) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = quantile(0.25, sorted)
	s.Median = quantile(0.5, sorted)
	s.Q75 = quantile(0.75, sorted)
	return s
}

// quantile interpolates linearly between the order statistics around
// rank (n-1)p of sorted.
func quantile(p float64, sorted []float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
