package features

import (
	"slices"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/synth"
	"gonum.org/v1/gonum/mat"
)

// ScaledColumns are standardized before modeling.
var ScaledColumns = []string{
	synth.TrafficDensity, synth.SpeedLimit, synth.DriverAge, synth.Casualties,
	Hour, TrafficSpeedInteraction,
}

// Design is the numeric view of the table fed to the classifier.
type Design struct {
	X        *mat.Dense
	Y        []int
	Features []string
}

// BuildDesign takes every column except the target and Time as a feature,
// in table order, and the encoded target as labels.
func BuildDesign(t *frame.Table) (*Design, error) {
	if t.Len() == 0 {
		return nil, errors.ErrEmptyTable
	}
	target, err := t.Int64s(synth.AccidentSeverity)
	if err != nil {
		return nil, err
	}

	feats := t.Drop(synth.AccidentSeverity, synth.Time)
	defer feats.Release()
	names := feats.Columns()

	X := mat.NewDense(t.Len(), len(names), nil)
	for j, name := range names {
		values, err := feats.Float64s(name)
		if err != nil {
			return nil, err
		}
		X.SetCol(j, values)
	}

	y := make([]int, len(target))
	for i, v := range target {
		y[i] = int(v)
	}
	return &Design{X: X, Y: y, Features: names}, nil
}

// ColumnIndices returns the positions of names within the design's features.
func (d *Design) ColumnIndices(names []string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		j := slices.Index(d.Features, name)
		if j < 0 {
			return nil, errors.NewColumnNotFoundError("design", name)
		}
		idx = append(idx, j)
	}
	return idx, nil
}

// Rows returns the sub-design made of the given row indices.
func (d *Design) Rows(rows []int) *Design {
	_, c := d.X.Dims()
	X := mat.NewDense(len(rows), c, nil)
	y := make([]int, len(rows))
	for i, r := range rows {
		X.SetRow(i, d.X.RawRowView(r))
		y[i] = d.Y[r]
	}
	return &Design{X: X, Y: y, Features: d.Features}
}
