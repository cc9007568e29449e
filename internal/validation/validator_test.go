package validation_test

import (
	"testing"

	pipeerrors "github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/paveg/roadsafety/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *frame.Table {
	t.Helper()
	tbl := frame.New(
		series.New("Weather", []int64{0, 3, 2}, nil),
		series.NewNullable("Driver_Age", []float64{30, 0, 50}, []bool{true, false, true}, nil),
		series.New("Is_Night", []int64{0, 1, 1}, nil),
	)
	t.Cleanup(tbl.Release)
	return tbl
}

func TestColumnValidator(t *testing.T) {
	tbl := newTable(t)

	t.Run("Valid columns", func(t *testing.T) {
		require.NoError(t, validation.NewColumnValidator(tbl, "features", "Weather", "Is_Night").Validate())
	})

	t.Run("Missing column", func(t *testing.T) {
		err := validation.NewColumnValidator(tbl, "features", "Hour").Validate()
		var pe *pipeerrors.PipelineError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "features", pe.Stage)
		assert.Equal(t, "Hour", pe.Column)
	})
}

func TestRowCountValidator(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, validation.NewRowCountValidator(tbl, 3, "clean").Validate())

	err := validation.NewRowCountValidator(tbl, 1000, "clean").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1000 rows, got 3")
}

func TestNoNullsValidator(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, validation.NewNoNullsValidator(tbl, "clean", "Weather").Validate())

	err := validation.NewNoNullsValidator(tbl, "clean", "Weather", "Driver_Age").Validate()
	var pe *pipeerrors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Driver_Age", pe.Column)
	assert.Contains(t, pe.Message, "1 missing values remain")

	err = validation.NewNoNullsValidator(tbl, "clean", "Location").Validate()
	assert.ErrorIs(t, err, pipeerrors.NewColumnNotFoundError("clean", "Location"))
}

func TestCodeRangeValidator(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, validation.NewCodeRangeValidator(tbl, "encode", "Weather", 4).Validate())
	require.NoError(t, validation.NewCodeRangeValidator(tbl, "features", "Is_Night", 2).Validate())

	err := validation.NewCodeRangeValidator(tbl, "encode", "Weather", 3).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 has code 3 outside [0, 3)")

	err = validation.NewCodeRangeValidator(tbl, "encode", "Driver_Age", 3).Validate()
	assert.Error(t, err, "float columns are not codes")
}

func TestLengthValidator(t *testing.T) {
	require.NoError(t, validation.ValidateLength(200, 200, "predict", "test labels"))
	err := validation.ValidateLength(200, 199, "predict", "test labels")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test labels: expected length 200, got 199")
}

func TestCompoundValidator(t *testing.T) {
	tbl := newTable(t)

	ok := validation.NewCompoundValidator(
		validation.NewRowCountValidator(tbl, 3, "features"),
		validation.NewCodeRangeValidator(tbl, "features", "Is_Night", 2),
	)
	require.NoError(t, ok.Validate())

	failing := validation.NewCompoundValidator(
		validation.NewRowCountValidator(tbl, 3, "features"),
		validation.NewNoNullsValidator(tbl, "features", "Driver_Age"),
		validation.NewColumnValidator(tbl, "features", "never-reached"),
	)
	err := failing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Driver_Age")
}
