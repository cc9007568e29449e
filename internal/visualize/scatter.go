package visualize

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// RenderScatter plots Traffic_Density against Casualties with one series per
// severity class. Higher codes draw larger points.
func RenderScatter(path string, d *Data) error {
	if len(d.TrafficDensity) != len(d.Casualties) || len(d.TrafficDensity) != len(d.Severity) {
		return fmt.Errorf("scatter: inconsistent input lengths")
	}

	p := plot.New()
	p.Title.Text = "Traffic Density vs Casualties by Severity"
	p.X.Label.Text = "Traffic Density"
	p.Y.Label.Text = "Casualties"
	p.Add(plotter.NewGrid())

	byClass := make([]plotter.XYs, len(d.Severities))
	for i, s := range d.Severity {
		byClass[s] = append(byClass[s], plotter.XY{X: d.TrafficDensity[i], Y: d.Casualties[i]})
	}
	for s, xys := range byClass {
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		c := classColor(s)
		sc.GlyphStyle.Color = c
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2 + 1.5*float64(s))
		p.Add(sc)
		p.Legend.Add(d.Severities[s], sc)
	}
	p.Legend.Top = true

	img := vgimg.New(10*vg.Inch, 6*vg.Inch)
	p.Draw(draw.New(img))
	return writePNG(path, img)
}
