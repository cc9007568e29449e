// Package visualize renders the evaluation figures as PNG images and an
// optional interactive HTML page.
package visualize

import (
	"fmt"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/evaluate"
	"github.com/paveg/roadsafety/internal/features"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/synth"
)

// Data is everything the figures draw. Category names come from the fitted
// encoders, so code i is always labelled Severities[i].
type Data struct {
	Severities     []string
	SeverityCounts []float64

	Weathers []string
	// WeatherBySeverity[s][w] counts rows of severity s under weather w.
	WeatherBySeverity [][]float64

	Confusion *evaluate.ConfusionMatrix
	Ranking   []evaluate.FeatureScore

	TrafficDensity []float64
	Casualties     []float64
	Severity       []int
}

// NewData gathers the figure inputs from the encoded table.
func NewData(t *frame.Table, enc features.Encoders, cm *evaluate.ConfusionMatrix, ranking []evaluate.FeatureScore) (*Data, error) {
	severities := enc.Classes(synth.AccidentSeverity)
	weathers := enc.Classes(synth.Weather)
	if len(severities) == 0 || len(weathers) == 0 {
		return nil, errors.ErrNotFitted
	}

	sevCodes, err := t.Int64s(synth.AccidentSeverity)
	if err != nil {
		return nil, err
	}
	weatherCodes, err := t.Int64s(synth.Weather)
	if err != nil {
		return nil, err
	}
	density, err := t.Float64s(synth.TrafficDensity)
	if err != nil {
		return nil, err
	}
	casualties, err := t.Float64s(synth.Casualties)
	if err != nil {
		return nil, err
	}

	d := &Data{
		Severities:        severities,
		SeverityCounts:    make([]float64, len(severities)),
		Weathers:          weathers,
		WeatherBySeverity: make([][]float64, len(severities)),
		Confusion:         cm,
		Ranking:           ranking,
		TrafficDensity:    density,
		Casualties:        casualties,
		Severity:          make([]int, len(sevCodes)),
	}
	for s := range d.WeatherBySeverity {
		d.WeatherBySeverity[s] = make([]float64, len(weathers))
	}
	for i, code := range sevCodes {
		s, w := int(code), int(weatherCodes[i])
		if s < 0 || s >= len(severities) || w < 0 || w >= len(weathers) {
			return nil, errors.NewValidationError("visualize", "",
				fmt.Sprintf("row %d has codes (%d, %d) outside the fitted classes", i, s, w))
		}
		d.Severity[i] = s
		d.SeverityCounts[s]++
		d.WeatherBySeverity[s][w]++
	}
	return d, nil
}
