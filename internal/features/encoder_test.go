package features

import (
	"testing"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder(t *testing.T) {
	values := []string{"Severe", "Minor", "Fatal", "Moderate", "Minor"}
	enc := new(LabelEncoder).Fit(values)

	assert.Equal(t, []string{"Fatal", "Minor", "Moderate", "Severe"}, enc.Classes())

	codes, err := enc.Transform(values)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 0, 2, 1}, codes)

	back, err := enc.InverseTransform(codes)
	require.NoError(t, err)
	assert.Equal(t, values, back)

	_, err = enc.Transform([]string{"Catastrophic"})
	assert.Error(t, err)

	_, err = enc.InverseTransform([]int64{4})
	assert.Error(t, err)
}

func TestLabelEncoderNotFitted(t *testing.T) {
	var enc LabelEncoder
	_, err := enc.Transform([]string{"a"})
	assert.ErrorIs(t, err, errors.ErrNotFitted)
	_, err = enc.InverseTransform([]int64{0})
	assert.ErrorIs(t, err, errors.ErrNotFitted)
}

func TestEncodeColumns(t *testing.T) {
	tbl := frame.New(
		series.New("Location", []string{"Urban", "Rural", "Suburban", "Urban"}, nil),
		series.New("Weather", []string{"Rain", "Rain", "Clear", "Fog"}, nil),
	)
	defer tbl.Release()

	encoders, err := EncodeColumns(tbl, []string{"Location", "Weather"}, nil)
	require.NoError(t, err)

	loc, err := tbl.Int64s("Location")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0, 1, 2}, loc)
	assert.Equal(t, []string{"Rural", "Suburban", "Urban"}, encoders.Classes("Location"))
	assert.Equal(t, []string{"Clear", "Fog", "Rain"}, encoders.Classes("Weather"))
	assert.Nil(t, encoders.Classes("Road_Condition"))

	for _, col := range []string{"Location", "Weather"} {
		codes, err := tbl.Int64s(col)
		require.NoError(t, err)
		k := int64(len(encoders.Classes(col)))
		for _, c := range codes {
			assert.GreaterOrEqual(t, c, int64(0))
			assert.Less(t, c, k)
		}
	}
}

func TestEncodeColumnsRejectsNulls(t *testing.T) {
	tbl := frame.New(series.NewNullable("Weather", []string{"Rain", ""}, []bool{true, false}, nil))
	defer tbl.Release()

	_, err := EncodeColumns(tbl, []string{"Weather"}, nil)
	assert.ErrorIs(t, err, errors.NewValidationError("label-encode", "Weather", "column contains missing values"))
}
