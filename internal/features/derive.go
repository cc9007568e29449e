// Package features derives model inputs from the cleaned accident table:
// calendar and interaction columns, label encoding, standardization, and the
// design matrix handed to the classifier.
package features

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/paveg/roadsafety/internal/synth"
)

// Derived column names.
const (
	Hour                    = "Hour"
	DayOfWeek               = "Day_of_Week"
	IsNight                 = "Is_Night"
	TrafficSpeedInteraction = "Traffic_Speed_Interaction"
)

const (
	nightStartHour = 18
	nightEndHour   = 6
)

// AddCalendar derives Hour and Day_of_Week (Monday = 0) from Time.
func AddCalendar(t *frame.Table, mem memory.Allocator) error {
	times, err := t.Times(synth.Time)
	if err != nil {
		return err
	}
	hours := make([]int64, len(times))
	days := make([]int64, len(times))
	for i, ts := range times {
		hours[i] = int64(ts.Hour())
		days[i] = int64((ts.Weekday() + 6) % 7)
	}
	if err := t.Set(series.New(Hour, hours, mem)); err != nil {
		return err
	}
	return t.Set(series.New(DayOfWeek, days, mem))
}

// NightFlag reports 1 for hours in [18, 24) or [0, 6), else 0.
func NightFlag(hour int64) int64 {
	if hour >= nightStartHour || hour < nightEndHour {
		return 1
	}
	return 0
}

// AddNightFlag derives Is_Night from Hour.
func AddNightFlag(t *frame.Table, mem memory.Allocator) error {
	hours, err := t.Int64s(Hour)
	if err != nil {
		return err
	}
	flags := make([]int64, len(hours))
	for i, h := range hours {
		flags[i] = NightFlag(h)
	}
	return t.Set(series.New(IsNight, flags, mem))
}

// AddInteraction derives Traffic_Speed_Interaction = Traffic_Density × Speed_Limit.
func AddInteraction(t *frame.Table, mem memory.Allocator) error {
	density, err := t.Float64s(synth.TrafficDensity)
	if err != nil {
		return err
	}
	speed, err := t.Float64s(synth.SpeedLimit)
	if err != nil {
		return err
	}
	product := make([]float64, len(density))
	for i := range product {
		product[i] = density[i] * speed[i]
	}
	return t.Set(series.New(TrafficSpeedInteraction, product, mem))
}

// Derive runs every column derivation in order.
func Derive(t *frame.Table, mem memory.Allocator) error {
	if err := AddCalendar(t, mem); err != nil {
		return err
	}
	if err := AddNightFlag(t, mem); err != nil {
		return err
	}
	return AddInteraction(t, mem)
}
