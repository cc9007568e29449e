package evaluate

import (
	"fmt"
	"math"
	"strings"

	"github.com/paveg/roadsafety/internal/errors"
	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/mat"
)

// Accuracy returns the fraction of predictions equal to the truth.
func Accuracy(truth, pred []int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, errors.ErrMismatchedLength
	}
	if len(truth) == 0 {
		return 0, errors.ErrEmptyTable
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// ConfusionMatrix counts predictions per true class. Row i is true class i
// and column j is predicted class j, both in encoded-label order.
type ConfusionMatrix struct {
	Classes []string
	Counts  *mat.Dense
}

// NewConfusionMatrix tallies truth against pred. classes names the codes
// 0..k-1 and normally comes from the fitted label encoder.
func NewConfusionMatrix(truth, pred []int, classes []string) (*ConfusionMatrix, error) {
	if len(truth) != len(pred) {
		return nil, errors.ErrMismatchedLength
	}
	k := len(classes)
	if k == 0 {
		return nil, errors.NewInvalidInputError("confusion-matrix", "no class names")
	}
	counts := mat.NewDense(k, k, nil)
	for i := range truth {
		t, p := truth[i], pred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, errors.NewInvalidInputError("confusion-matrix",
				fmt.Sprintf("label pair (%d, %d) outside [0, %d)", t, p, k))
		}
		counts.Set(t, p, counts.At(t, p)+1)
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}, nil
}

// At returns the count of rows of true class t predicted as p.
func (cm *ConfusionMatrix) At(t, p int) int {
	return int(cm.Counts.At(t, p))
}

// Golearn converts the matrix to golearn's map form keyed by class name.
func (cm *ConfusionMatrix) Golearn() evaluation.ConfusionMatrix {
	out := make(evaluation.ConfusionMatrix, len(cm.Classes))
	for i, ref := range cm.Classes {
		row := make(map[string]int, len(cm.Classes))
		for j, gen := range cm.Classes {
			row[gen] = cm.At(i, j)
		}
		out[ref] = row
	}
	return out
}

// Accuracy returns the trace over the total.
func (cm *ConfusionMatrix) Accuracy() float64 {
	return evaluation.GetAccuracy(cm.Golearn())
}

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Class     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class precision/recall/F1 summary with averages.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	Total       int
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// ClassificationReport derives per-class metrics from the matrix. Undefined
// ratios (no predictions or no members of a class) are reported as 0.
func ClassificationReport(cm *ConfusionMatrix) *Report {
	g := cm.Golearn()
	r := &Report{
		MacroAvg:    ClassMetrics{Class: "macro avg"},
		WeightedAvg: ClassMetrics{Class: "weighted avg"},
	}

	for i, class := range cm.Classes {
		support := 0
		for j := range cm.Classes {
			support += cm.At(i, j)
		}
		m := ClassMetrics{
			Class:     class,
			Precision: defined(evaluation.GetPrecision(class, g)),
			Recall:    defined(evaluation.GetRecall(class, g)),
			F1:        defined(evaluation.GetF1Score(class, g)),
			Support:   support,
		}
		r.Classes = append(r.Classes, m)
		r.Total += support
	}

	k := float64(len(r.Classes))
	for _, m := range r.Classes {
		r.MacroAvg.Precision += m.Precision / k
		r.MacroAvg.Recall += m.Recall / k
		r.MacroAvg.F1 += m.F1 / k
		if r.Total > 0 {
			w := float64(m.Support) / float64(r.Total)
			r.WeightedAvg.Precision += m.Precision * w
			r.WeightedAvg.Recall += m.Recall * w
			r.WeightedAvg.F1 += m.F1 * w
		}
	}
	r.MacroAvg.Support = r.Total
	r.WeightedAvg.Support = r.Total
	if r.Total > 0 {
		r.Accuracy = cm.Accuracy()
	}
	return r
}

func defined(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// String renders the report as a fixed-width table.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, m := range r.Classes {
		width = max(width, len(m.Class))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, m.Class, m.Precision, m.Recall, m.F1, m.Support)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	for _, m := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, m.Class, m.Precision, m.Recall, m.F1, m.Support)
	}
	return sb.String()
}
