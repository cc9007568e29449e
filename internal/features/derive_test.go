package features

import (
	"testing"
	"time"

	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightFlag(t *testing.T) {
	for h := int64(0); h < 24; h++ {
		want := int64(0)
		if h >= 18 || h < 6 {
			want = 1
		}
		assert.Equal(t, want, NightFlag(h), "hour %d", h)
	}
}

func TestDerive(t *testing.T) {
	// 2023-01-01 was a Sunday.
	start := time.Date(2023, 1, 1, 4, 0, 0, 0, time.UTC)
	times := []time.Time{start, start.Add(2 * time.Hour), start.Add(14 * time.Hour), start.Add(24 * time.Hour)}
	tbl := frame.New(
		series.New("Time", times, nil),
		series.New("Traffic_Density", []float64{10.5, 20, 99.25, 50}, nil),
		series.New("Speed_Limit", []int64{30, 50, 100, 70}, nil),
	)
	defer tbl.Release()

	require.NoError(t, Derive(tbl, nil))

	hours, err := tbl.Int64s(Hour)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6, 18, 4}, hours)

	days, err := tbl.Int64s(DayOfWeek)
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 6, 6, 0}, days)

	night, err := tbl.Int64s(IsNight)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 0, 1, 1}, night)

	product, err := tbl.Float64s(TrafficSpeedInteraction)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{315, 1000, 9925, 3500}, product, 1e-9)
}

func TestDeriveMissingColumn(t *testing.T) {
	tbl := frame.New(series.New("Speed_Limit", []int64{30}, nil))
	defer tbl.Release()

	assert.Error(t, AddCalendar(tbl, nil))
	assert.Error(t, AddNightFlag(tbl, nil))
	assert.Error(t, AddInteraction(tbl, nil))
}
