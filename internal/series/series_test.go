package series

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("string series", func(t *testing.T) {
		s := New("Location", []string{"Urban", "Rural", "Suburban"}, mem)
		defer s.Release()

		assert.Equal(t, "Location", s.Name())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []string{"Urban", "Rural", "Suburban"}, s.Values())
		assert.Equal(t, arrow.BinaryTypes.String, s.DataType())
	})

	t.Run("int64 series", func(t *testing.T) {
		s := New("Casualties", []int64{0, 4, 2}, mem)
		defer s.Release()

		assert.Equal(t, []int64{0, 4, 2}, s.Values())
		assert.Equal(t, int64(4), s.Value(1))
	})

	t.Run("float64 series", func(t *testing.T) {
		s := New("Traffic_Density", []float64{10.5, 99.9}, mem)
		defer s.Release()

		assert.InDelta(t, 99.9, s.Value(1), 1e-12)
	})

	t.Run("timestamp series", func(t *testing.T) {
		start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		s := New("Time", []time.Time{start, start.Add(time.Hour)}, mem)
		defer s.Release()

		assert.Equal(t, start.Add(time.Hour), s.Value(1))
		assert.Equal(t, "2023-01-01 01:00:00", s.GetAsString(1))
	})

	t.Run("empty series", func(t *testing.T) {
		s := New("empty", []string{}, mem)
		defer s.Release()

		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Values())
	})
}

func TestNewNullable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := NewNullable("Driver_Age", []int64{25, 0, 40}, []bool{true, false, true}, mem)
	defer s.Release()

	assert.Equal(t, 1, s.NullCount())
	assert.True(t, s.IsNull(1))
	assert.Equal(t, int64(0), s.Value(1))
	assert.Equal(t, "NaN", s.GetAsString(1))
	assert.Equal(t, []bool{true, false, true}, s.Valid())
}

func TestNewNullableLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewNullable("x", []int64{1, 2}, []bool{true}, nil)
	})
}

func TestSeriesOutOfRange(t *testing.T) {
	s := New("x", []int64{1}, nil)
	defer s.Release()

	assert.Equal(t, int64(0), s.Value(-1))
	assert.Equal(t, int64(0), s.Value(5))
	assert.Equal(t, "", s.GetAsString(5))
}

func TestSeriesCopySharesData(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s := New("Weather", []string{"Rain", "Fog"}, mem)
	c := s.Copy()
	s.Release()

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "Fog", c.GetAsString(1))
	c.Release()
}

func TestSeriesString(t *testing.T) {
	s := New("Hour", []int64{1, 2}, nil)
	defer s.Release()

	assert.Equal(t, "Series[int64]: Hour (len=2, nulls=0)", s.String())
}
