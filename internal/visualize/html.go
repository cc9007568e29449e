package visualize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var heatColors = []string{"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"}

// RenderHTML writes an interactive page with the five charts to path.
func RenderHTML(path string, d *Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTML(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteHTML renders the interactive page to w.
func WriteHTML(w io.Writer, d *Data) error {
	page := components.NewPage()
	page.AddCharts(
		severityBar(d),
		confusionHeatMap(d),
		importanceBar(d),
		weatherBar(d),
		densityScatter(d),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"})
}

func severityBar(d *Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Road Safety"),
		charts.WithTitleOpts(opts.Title{Title: "Accident Severity Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.BarData, len(d.SeverityCounts))
	for i, v := range d.SeverityCounts {
		data[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(d.Severities).
		AddSeries("accidents", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func confusionHeatMap(d *Data) *charts.HeatMap {
	cm := d.Confusion
	k := len(cm.Classes)
	hm := charts.NewHeatMap()
	peak := float32(1)
	// y index k-1-t puts the first true class at the top
	actual := make([]string, k)
	data := make([]opts.HeatMapData, 0, k*k)
	for t, name := range cm.Classes {
		actual[k-1-t] = name
		for p := range cm.Classes {
			v := cm.At(t, p)
			peak = max(peak, float32(v))
			data = append(data, opts.HeatMapData{Value: [3]interface{}{p, k - 1 - t, v}})
		}
	}
	hm.SetGlobalOptions(
		initOpts("Road Safety"),
		charts.WithTitleOpts(opts.Title{Title: "Confusion Matrix"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: cm.Classes, Name: "Predicted"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: actual, Name: "Actual"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        peak,
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	hm.SetXAxis(cm.Classes).AddSeries("count", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return hm
}

func importanceBar(d *Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Road Safety"),
		charts.WithTitleOpts(opts.Title{Title: "Feature Importance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category"}),
	)
	n := len(d.Ranking)
	names := make([]string, n)
	data := make([]opts.BarData, n)
	for i, fs := range d.Ranking {
		names[n-1-i] = fs.Feature
		data[n-1-i] = opts.BarData{Value: fs.Importance}
	}
	bar.SetXAxis(names).AddSeries("importance", data)
	bar.XYReversal()
	return bar
}

func weatherBar(d *Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Road Safety"),
		charts.WithTitleOpts(opts.Title{Title: "Weather Conditions vs Accident Severity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
	)
	bar.SetXAxis(d.Weathers)
	for s, name := range d.Severities {
		data := make([]opts.BarData, len(d.Weathers))
		for w, v := range d.WeatherBySeverity[s] {
			data[w] = opts.BarData{Value: v}
		}
		bar.AddSeries(name, data)
	}
	return bar
}

func densityScatter(d *Data) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts("Road Safety"),
		charts.WithTitleOpts(opts.Title{Title: "Traffic Density vs Casualties by Severity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Traffic Density", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Casualties", NameLocation: "middle", NameGap: 30}),
	)
	byClass := make([][]opts.ScatterData, len(d.Severities))
	for i, s := range d.Severity {
		byClass[s] = append(byClass[s], opts.ScatterData{
			Value:      []interface{}{d.TrafficDensity[i], d.Casualties[i]},
			SymbolSize: 6 + 3*s,
		})
	}
	for s, pts := range byClass {
		scatter.AddSeries(d.Severities[s], pts)
	}
	return scatter
}
