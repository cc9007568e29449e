package visualize

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paveg/roadsafety/internal/evaluate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	dashboardWidth  = 15 * vg.Inch
	dashboardHeight = 12 * vg.Inch
	barWidth        = 18
)

// RenderDashboard draws the four summary panels into one PNG at path.
func RenderDashboard(path string, d *Data) error {
	severity, err := severityPlot(d)
	if err != nil {
		return fmt.Errorf("severity distribution: %w", err)
	}
	confusion, err := confusionPlot(d.Confusion)
	if err != nil {
		return fmt.Errorf("confusion matrix: %w", err)
	}
	importance, err := importancePlot(d.Ranking)
	if err != nil {
		return fmt.Errorf("feature importance: %w", err)
	}
	weather, err := weatherPlot(d)
	if err != nil {
		return fmt.Errorf("weather vs severity: %w", err)
	}

	plots := [][]*plot.Plot{
		{severity, confusion},
		{importance, weather},
	}
	img := vgimg.New(dashboardWidth, dashboardHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 8,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}
	return writePNG(path, img)
}

func writePNG(path string, img *vgimg.Canvas) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func severityPlot(d *Data) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Accident Severity Distribution"
	p.Y.Label.Text = "Count"

	bars, err := plotter.NewBarChart(plotter.Values(d.SeverityCounts), vg.Points(barWidth*2))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(d.Severities...)
	return p, nil
}

// confusionGrid lays the matrix out for plotter.HeatMap. Grid row r holds
// true class k-1-r so the first class is drawn at the top.
type confusionGrid struct {
	cm *evaluate.ConfusionMatrix
}

func (g confusionGrid) Dims() (c, r int) {
	k := len(g.cm.Classes)
	return k, k
}

func (g confusionGrid) Z(c, r int) float64 {
	return g.cm.Counts.At(len(g.cm.Classes)-1-r, c)
}

func (g confusionGrid) X(c int) float64 { return float64(c) }
func (g confusionGrid) Y(r int) float64 { return float64(r) }

func confusionPlot(cm *evaluate.ConfusionMatrix) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	grid := confusionGrid{cm: cm}
	k := len(cm.Classes)
	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	hm.Min, hm.Max = 0, 1
	for r := 0; r < k; r++ {
		for c := 0; c < k; c++ {
			hm.Max = max(hm.Max, grid.Z(c, r))
		}
	}
	p.Add(hm)

	xys := make(plotter.XYs, 0, k*k)
	text := make([]string, 0, k*k)
	for r := 0; r < k; r++ {
		for c := 0; c < k; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			text = append(text, strconv.Itoa(int(grid.Z(c, r))))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	reversed := make([]string, k)
	for i, name := range cm.Classes {
		reversed[k-1-i] = name
	}
	p.NominalX(cm.Classes...)
	p.NominalY(reversed...)
	return p, nil
}

func importancePlot(ranking []evaluate.FeatureScore) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Feature Importance"
	p.X.Label.Text = "Mean decrease in impurity"

	// least important at the bottom
	n := len(ranking)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, fs := range ranking {
		values[n-1-i] = fs.Importance
		names[n-1-i] = fs.Feature
	}
	bars, err := plotter.NewBarChart(values, vg.Points(barWidth/2))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(1)
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func weatherPlot(d *Data) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Weather Conditions vs Accident Severity"
	p.X.Label.Text = "Weather"
	p.Y.Label.Text = "Count"

	w := vg.Points(barWidth / 2)
	groups := len(d.Severities)
	for s, name := range d.Severities {
		bars, err := plotter.NewBarChart(plotter.Values(d.WeatherBySeverity[s]), w)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = classColor(s)
		bars.Offset = w * vg.Length(2*s-groups+1) / 2
		p.Add(bars)
		p.Legend.Add(name, bars)
	}
	p.Legend.Top = true
	p.NominalX(d.Weathers...)
	return p, nil
}

func classColor(i int) color.Color {
	return plotutil.Color(i + 2)
}
