// Package synth generates the synthetic accident record table.
package synth

import (
	"math/rand/v2"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
)

// Column names of the accident record table.
const (
	Location         = "Location"
	Time             = "Time"
	Weather          = "Weather"
	RoadCondition    = "Road_Condition"
	TrafficDensity   = "Traffic_Density"
	SpeedLimit       = "Speed_Limit"
	DriverAge        = "Driver_Age"
	AccidentSeverity = "Accident_Severity"
	Casualties       = "Casualties"
)

// BaseColumns lists the generated columns in table order.
var BaseColumns = []string{
	Location, Time, Weather, RoadCondition, TrafficDensity,
	SpeedLimit, DriverAge, AccidentSeverity, Casualties,
}

// Category domains drawn from uniformly.
var (
	Locations      = []string{"Urban", "Suburban", "Rural"}
	WeatherKinds   = []string{"Clear", "Rain", "Snow", "Fog"}
	RoadConditions = []string{"Dry", "Wet", "Icy"}
	SpeedLimits    = []int64{30, 50, 70, 100}
	Severities     = []string{"Minor", "Moderate", "Severe", "Fatal"}
)

// Numeric ranges; upper bounds are exclusive.
const (
	minTrafficDensity = 10.0
	maxTrafficDensity = 100.0
	minDriverAge      = 18
	maxDriverAge      = 80
	maxCasualties     = 5
)

// Options controls the size and time axis of the generated table.
type Options struct {
	Rows  int
	Start time.Time
}

// Generate draws every column independently from rng. Columns are drawn in
// table order, so a given rng state always yields the same table.
func Generate(opts Options, rng *rand.Rand, mem memory.Allocator) (*frame.Table, error) {
	n := opts.Rows
	if n <= 0 {
		return nil, errors.NewInvalidInputError("synthesize", "row count must be positive")
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	locations := choose(rng, Locations, n)

	times := make([]time.Time, n)
	for i := range times {
		times[i] = opts.Start.Add(time.Duration(i) * time.Hour)
	}

	weather := choose(rng, WeatherKinds, n)
	roads := choose(rng, RoadConditions, n)

	density := make([]float64, n)
	for i := range density {
		density[i] = minTrafficDensity + rng.Float64()*(maxTrafficDensity-minTrafficDensity)
	}

	speeds := choose(rng, SpeedLimits, n)

	ages := make([]int64, n)
	for i := range ages {
		ages[i] = int64(minDriverAge + rng.IntN(maxDriverAge-minDriverAge))
	}

	severities := choose(rng, Severities, n)

	casualties := make([]int64, n)
	for i := range casualties {
		casualties[i] = int64(rng.IntN(maxCasualties))
	}

	return frame.New(
		series.New(Location, locations, mem),
		series.New(Time, times, mem),
		series.New(Weather, weather, mem),
		series.New(RoadCondition, roads, mem),
		series.New(TrafficDensity, density, mem),
		series.New(SpeedLimit, speeds, mem),
		series.New(DriverAge, ages, mem),
		series.New(AccidentSeverity, severities, mem),
		series.New(Casualties, casualties, mem),
	), nil
}

func choose[T any](rng *rand.Rand, domain []T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = domain[rng.IntN(len(domain))]
	}
	return out
}
