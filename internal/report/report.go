// Package report prints the textual summaries of a pipeline run.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/paveg/roadsafety/internal/evaluate"
	"github.com/paveg/roadsafety/internal/frame"
)

var (
	header = color.New(color.FgCyan, color.Bold).SprintFunc()
	value  = color.New(color.FgGreen).SprintFunc()
)

// Writer prints report sections to an underlying io.Writer.
type Writer struct {
	w   io.Writer
	err error
}

// New returns a Writer printing to w.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error, if any.
func (r *Writer) Err() error {
	return r.err
}

func (r *Writer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *Writer) table(write func(tw *tabwriter.Writer)) {
	if r.err != nil {
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	write(tw)
	r.err = tw.Flush()
}

// Section prints a coloured section header.
func (r *Writer) Section(title string) {
	r.printf("\n%s\n", header("== "+title+" =="))
}

// Shape prints the row and column counts.
func (r *Writer) Shape(t *frame.Table) {
	r.printf("Shape: (%d, %d)\n", t.Len(), t.Width())
}

// Dtypes prints each column's Arrow type.
func (r *Writer) Dtypes(t *frame.Table) {
	r.table(func(tw *tabwriter.Writer) {
		for _, name := range t.Columns() {
			c, _ := t.Column(name)
			fmt.Fprintf(tw, "%s\t%s\t\n", name, c.DataType())
		}
	})
}

// Head prints the first n rows.
func (r *Writer) Head(t *frame.Table, n int) {
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(t.Columns(), "\t"))
		for i, row := range t.Head(n) {
			fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(row, "\t"))
		}
	})
}

// Describe prints count, mean, std, min, quartiles and max per column.
func (r *Writer) Describe(summaries []ColumnSummary) {
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprint(tw, "\t")
		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t", s.Column)
		}
		fmt.Fprintln(tw)

		rows := []struct {
			label string
			get   func(ColumnSummary) float64
		}{
			{"count", func(s ColumnSummary) float64 { return float64(s.Count) }},
			{"mean", func(s ColumnSummary) float64 { return s.Mean }},
			{"std", func(s ColumnSummary) float64 { return s.Std }},
			{"min", func(s ColumnSummary) float64 { return s.Min }},
			{"25%", func(s ColumnSummary) float64 { return s.Q25 }},
			{"50%", func(s ColumnSummary) float64 { return s.Median }},
			{"75%", func(s ColumnSummary) float64 { return s.Q75 }},
			{"max", func(s ColumnSummary) float64 { return s.Max }},
		}
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t", row.label)
			for _, s := range summaries {
				fmt.Fprintf(tw, "%.6f\t", row.get(s))
			}
			fmt.Fprintln(tw)
		}
	})
}

// Missing prints per-column null counts.
func (r *Writer) Missing(counts []frame.NullCount) {
	r.table(func(tw *tabwriter.Writer) {
		for _, c := range counts {
			fmt.Fprintf(tw, "%s\t%d\t\n", c.Column, c.Nulls)
		}
	})
}

// Accuracy prints the test accuracy.
func (r *Writer) Accuracy(acc float64) {
	r.printf("Accuracy: %s\n", value(fmt.Sprintf("%.4f", acc)))
}

// Classification prints the per-class report.
func (r *Writer) Classification(rep *evaluate.Report) {
	r.printf("%s", rep.String())
}

// CrossValidation prints per-fold scores and their mean.
func (r *Writer) CrossValidation(res *evaluate.CVResult) {
	scores := make([]string, len(res.Scores))
	for i, s := range res.Scores {
		scores[i] = fmt.Sprintf("%.4f", s)
	}
	r.printf("Cross-validation scores: [%s]\n", strings.Join(scores, " "))
	r.printf("Mean CV accuracy: %s (+/- %.4f)\n", value(fmt.Sprintf("%.4f", res.Mean)), res.Std)
}

// Ranking prints features by descending importance.
func (r *Writer) Ranking(ranked []evaluate.FeatureScore) {
	r.table(func(tw *tabwriter.Writer) {
		for i, fs := range ranked {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t\n", i+1, fs.Feature, fs.Importance)
		}
	})
}

// Confusion prints the matrix with class names on both axes.
func (r *Writer) Confusion(cm *evaluate.ConfusionMatrix) {
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(cm.Classes, "\t"))
		for t, name := range cm.Classes {
			fmt.Fprintf(tw, "%s\t", name)
			for p := range cm.Classes {
				fmt.Fprintf(tw, "%d\t", cm.At(t, p))
			}
			fmt.Fprintln(tw)
		}
	})
}

// Line prints a plain line.
func (r *Writer) Line(format string, args ...any) {
	r.printf(format+"\n", args...)
}
