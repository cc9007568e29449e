// Package roadsafety runs the synthetic road-accident severity pipeline:
// synthesize records, corrupt and impute them, engineer and encode features,
// train and evaluate a random forest, and render the figures.
//
// Every stage receives its inputs explicitly and returns its outputs in the
// Result, so encoders, the scaler and the model stay available to callers.
package roadsafety

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/clean"
	"github.com/paveg/roadsafety/internal/config"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/evaluate"
	"github.com/paveg/roadsafety/internal/features"
	"github.com/paveg/roadsafety/internal/forest"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/monitoring"
	"github.com/paveg/roadsafety/internal/report"
	"github.com/paveg/roadsafety/internal/synth"
	"github.com/paveg/roadsafety/internal/validation"
	"github.com/paveg/roadsafety/internal/version"
	"github.com/paveg/roadsafety/internal/visualize"
	"go.uber.org/zap"
)

// Figure file names written under Config.OutputDir.
const (
	DashboardFile = "dashboard.png"
	ScatterFile   = "traffic_casualties.png"
	HTMLFile      = "report.html"
	MetricsFile   = "metrics.prom"
)

// Artifacts are the paths of the files a run wrote. Empty paths were not
// written.
type Artifacts struct {
	Dashboard string
	Scatter   string
	HTML      string
	Metrics   string
}

// Result holds everything a run produced.
type Result struct {
	Config config.Config

	// Table is the final encoded table. Release the Result to free it.
	Table *frame.Table
	// SynthFingerprint hashes the freshly generated table.
	SynthFingerprint uint64

	MissingBefore []frame.NullCount
	MissingAfter  []frame.NullCount
	Imputations   []clean.Imputation

	Encoders features.Encoders
	Scaler   *features.StandardScaler
	Design   *features.Design // scaled
	Split    evaluate.Split

	Model       *forest.Classifier
	Predictions []int
	Accuracy    float64
	Confusion   *evaluate.ConfusionMatrix
	Report      *evaluate.Report
	CV          *evaluate.CVResult
	Ranking     []evaluate.FeatureScore

	Artifacts Artifacts
	Metrics   []monitoring.StageMetrics

	resources *MemoryManager
}

// Record exports the final table as an Arrow record owned by the Result.
// Retain it to keep it past Release.
func (r *Result) Record() arrow.Record {
	rec := r.Table.Record()
	r.resources.Track(rec)
	return rec
}

// Release frees the Arrow memory held by the result.
func (r *Result) Release() {
	if r.resources != nil {
		r.resources.ReleaseAll()
	}
}

// pipeline carries the per-run state shared by the stages.
type pipeline struct {
	cfg       config.Config
	mem       memory.Allocator
	log       *zap.Logger
	out       *report.Writer
	collector *monitoring.MetricsCollector
	figures   bool
	res       *Result
}

// Run executes every stage in order and returns the first error. Errors are
// *errors.PipelineError values naming the failing stage; cancellation of ctx
// is checked between stages.
func Run(ctx context.Context, cfg config.Config, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &errors.PipelineError{Stage: "config", Message: "invalid configuration", Cause: err}
	}

	collector := o.collector
	if collector == nil {
		collector = monitoring.NewMetricsCollector(cfg.MetricsCollection)
	}

	manager := NewMemoryManager(o.allocator)
	p := &pipeline{
		cfg:       cfg,
		mem:       manager.Allocator(),
		log:       o.logger,
		out:       report.New(o.report),
		collector: collector,
		figures:   o.figures,
		res:       &Result{Config: cfg, resources: manager},
	}

	info := version.Info()
	p.log.Info("starting pipeline",
		zap.String("version", version.Short()),
		zap.Int("rows", cfg.Rows),
		zap.Uint64("seed", cfg.Seed),
		zap.Strings("numeric_stack", info.Stack()),
	)

	// synthesis and corruption share one stream
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"synthesize", func() (int, error) { return p.synthesize(rng) }},
		{"inject-missing", func() (int, error) { return p.injectMissing(rng) }},
		{"impute", p.impute},
		{"features", p.engineer},
		{"encode", p.encode},
		{"design", p.design},
		{"train", p.train},
		{"evaluate", p.evaluate},
		{"cross-validate", p.crossValidate},
		{"importance", p.importance},
	}
	if p.figures {
		steps = append(steps, struct {
			name string
			fn   func() (int, error)
		}{"visualize", p.visualize})
	}

	for _, step := range steps {
		if err := p.stage(ctx, step.name, step.fn); err != nil {
			p.res.Release()
			return nil, err
		}
	}

	p.res.Metrics = collector.GetMetrics()
	if p.figures && collector.IsEnabled() {
		path := filepath.Join(cfg.OutputDir, MetricsFile)
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			p.res.Release()
			return nil, errors.NewStageError("metrics", err)
		}
		if err := collector.WriteTextfile(path); err != nil {
			p.res.Release()
			return nil, errors.NewStageError("metrics", err)
		}
		p.res.Artifacts.Metrics = path
		p.log.Info("metrics written", zap.String("path", path))
	}
	if err := p.out.Err(); err != nil {
		p.res.Release()
		return nil, errors.NewStageError("report", err)
	}
	p.log.Info("pipeline finished",
		zap.Float64("accuracy", p.res.Accuracy),
		zap.Float64("cv_mean", p.res.CV.Mean),
	)
	return p.res, nil
}

func (p *pipeline) stage(ctx context.Context, name string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return &errors.PipelineError{Stage: name, Message: "cancelled", Cause: err}
	}

	start := time.Now()
	var rows int
	err := p.collector.RecordStage(name, func() (int, error) {
		var err error
		rows, err = fn()
		return rows, err
	})
	if err != nil {
		p.log.Error("stage failed", zap.String("stage", name), zap.Error(err))
		var pe *errors.PipelineError
		if stderrors.As(err, &pe) && pe.Stage != "" {
			return err
		}
		return errors.NewStageError(name, err)
	}

	p.log.Info("stage complete",
		zap.String("stage", name),
		zap.Int("rows", rows),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *pipeline) synthesize(rng *rand.Rand) (int, error) {
	t, err := synth.Generate(synth.Options{Rows: p.cfg.Rows, Start: p.cfg.StartTime}, rng, p.mem)
	if err != nil {
		return 0, err
	}
	p.res.Table = t
	p.res.resources.Track(t)

	if err := validation.NewCompoundValidator(
		validation.NewColumnValidator(t, "synthesize", synth.BaseColumns...),
		validation.NewRowCountValidator(t, p.cfg.Rows, "synthesize"),
	).Validate(); err != nil {
		return 0, err
	}

	p.res.SynthFingerprint = t.Fingerprint()
	p.log.Debug("synthesized table", zap.String("fingerprint", fmt.Sprintf("%016x", p.res.SynthFingerprint)))

	summaries, err := report.Describe(t)
	if err != nil {
		return 0, err
	}
	p.out.Section("Dataset Overview")
	p.out.Shape(t)
	p.out.Dtypes(t)
	p.out.Section("First Rows")
	p.out.Head(t, p.cfg.HeadRows)
	p.out.Section("Summary Statistics")
	p.out.Describe(summaries)
	return t.Len(), nil
}

func (p *pipeline) injectMissing(rng *rand.Rand) (int, error) {
	t := p.res.Table
	if _, err := clean.InjectMissing(t, synth.Weather, p.cfg.MissingWeather, rng, p.mem); err != nil {
		return 0, err
	}
	if _, err := clean.InjectMissing(t, synth.DriverAge, p.cfg.MissingDriverAge, rng, p.mem); err != nil {
		return 0, err
	}
	p.res.MissingBefore = t.NullCounts()

	p.out.Section("Missing Values")
	p.out.Missing(p.res.MissingBefore)
	return t.Len(), nil
}

func (p *pipeline) impute() (int, error) {
	t := p.res.Table
	mode, err := clean.ImputeMode(t, synth.Weather, p.mem)
	if err != nil {
		return 0, err
	}
	median, err := clean.ImputeMedian(t, synth.DriverAge, p.mem)
	if err != nil {
		return 0, err
	}
	p.res.Imputations = []clean.Imputation{mode, median}

	if err := validation.NewCompoundValidator(
		validation.NewNoNullsValidator(t, "impute", synth.Weather, synth.DriverAge),
		validation.NewRowCountValidator(t, p.cfg.Rows, "impute"),
	).Validate(); err != nil {
		return 0, err
	}
	p.res.MissingAfter = t.NullCounts()

	p.out.Section("Missing Values After Imputation")
	p.out.Missing(p.res.MissingAfter)
	for _, imp := range p.res.Imputations {
		p.out.Line("%s: filled %d rows with %s %s", imp.Column, imp.Filled, imp.Strategy, imp.Value)
	}
	return t.Len(), nil
}

func (p *pipeline) engineer() (int, error) {
	t := p.res.Table
	if err := features.Derive(t, p.mem); err != nil {
		return 0, err
	}
	if err := validation.NewCompoundValidator(
		validation.NewColumnValidator(t, "features",
			features.Hour, features.DayOfWeek, features.IsNight, features.TrafficSpeedInteraction),
		validation.NewCodeRangeValidator(t, "features", features.IsNight, 2),
		validation.NewRowCountValidator(t, p.cfg.Rows, "features"),
	).Validate(); err != nil {
		return 0, err
	}
	return t.Len(), nil
}

func (p *pipeline) encode() (int, error) {
	t := p.res.Table
	enc, err := features.EncodeColumns(t, features.CategoricalColumns, p.mem)
	if err != nil {
		return 0, err
	}
	p.res.Encoders = enc

	checks := make([]validation.Validator, 0, len(features.CategoricalColumns))
	for _, col := range features.CategoricalColumns {
		checks = append(checks, validation.NewCodeRangeValidator(t, "encode", col, len(enc.Classes(col))))
	}
	if err := validation.NewCompoundValidator(checks...).Validate(); err != nil {
		return 0, err
	}

	p.out.Section("Engineered Features")
	p.out.Head(t, p.cfg.HeadRows)
	for _, col := range features.CategoricalColumns {
		p.out.Line("%s classes: %v", col, enc.Classes(col))
	}

	encoded, err := t.Select(features.CategoricalColumns...)
	if err != nil {
		return 0, err
	}
	defer encoded.Release()
	p.out.Section("Encoded Columns")
	p.out.Head(encoded, p.cfg.HeadRows)
	return t.Len(), nil
}

func (p *pipeline) design() (int, error) {
	d, err := features.BuildDesign(p.res.Table)
	if err != nil {
		return 0, err
	}
	split, err := evaluate.TrainTestSplit(len(d.Y), p.cfg.TestFraction, p.cfg.Seed)
	if err != nil {
		return 0, err
	}

	cols, err := d.ColumnIndices(features.ScaledColumns)
	if err != nil {
		return 0, err
	}
	scaler := features.NewStandardScaler(cols)
	var fitRows []int // nil fits on every row
	if !p.cfg.ScaleBeforeSplit {
		fitRows = split.Train
	}
	if err := scaler.Fit(d.X, fitRows); err != nil {
		return 0, err
	}
	scaled, err := scaler.Transform(d.X)
	if err != nil {
		return 0, err
	}
	p.log.Debug("scaler fitted",
		zap.Bool("scale_before_split", p.cfg.ScaleBeforeSplit),
		zap.Int("fit_rows", len(fitRows)),
	)

	p.res.Design = &features.Design{X: scaled, Y: d.Y, Features: d.Features}
	p.res.Scaler = scaler
	p.res.Split = split
	return len(d.Y), nil
}

func (p *pipeline) forestParams() forest.Params {
	params := forest.DefaultParams()
	params.NEstimators = p.cfg.Trees
	params.MaxDepth = p.cfg.MaxDepth
	params.MinSamplesSplit = p.cfg.MinSamplesSplit
	params.Seed = p.cfg.Seed
	return params
}

func (p *pipeline) train() (int, error) {
	train := p.res.Design.Rows(p.res.Split.Train)
	model := forest.New(p.forestParams())
	if err := model.Fit(train.X, train.Y); err != nil {
		return 0, err
	}
	p.res.Model = model
	p.log.Debug("forest fitted",
		zap.Int("trees", p.cfg.Trees),
		zap.Int("max_depth", slices.Max(model.Depths())),
	)
	return len(train.Y), nil
}

func (p *pipeline) evaluate() (int, error) {
	test := p.res.Design.Rows(p.res.Split.Test)
	pred, err := p.res.Model.Predict(test.X)
	if err != nil {
		return 0, err
	}
	if err := validation.ValidateLength(len(test.Y), len(pred), "evaluate", "predictions"); err != nil {
		return 0, err
	}
	acc, err := evaluate.Accuracy(test.Y, pred)
	if err != nil {
		return 0, err
	}
	cm, err := evaluate.NewConfusionMatrix(test.Y, pred, p.res.Encoders.Classes(synth.AccidentSeverity))
	if err != nil {
		return 0, err
	}

	p.res.Predictions = pred
	p.res.Accuracy = acc
	p.res.Confusion = cm
	p.res.Report = evaluate.ClassificationReport(cm)

	p.out.Section("Model Evaluation")
	p.out.Accuracy(acc)
	p.out.Section("Classification Report")
	p.out.Classification(p.res.Report)
	p.out.Section("Confusion Matrix")
	p.out.Confusion(cm)
	return len(pred), nil
}

func (p *pipeline) crossValidate() (int, error) {
	d := p.res.Design
	params := p.forestParams()
	cv, err := evaluate.CrossValidate(d.X, d.Y, p.cfg.CVFolds, p.res.Encoders.Classes(synth.AccidentSeverity),
		func() evaluate.Model { return forest.New(params) })
	if err != nil {
		return 0, err
	}
	p.res.CV = cv

	p.out.Section("Cross-Validation")
	p.out.CrossValidation(cv)
	return len(d.Y), nil
}

func (p *pipeline) importance() (int, error) {
	imp, err := p.res.Model.FeatureImportances()
	if err != nil {
		return 0, err
	}
	ranked, err := evaluate.RankImportances(p.res.Design.Features, imp)
	if err != nil {
		return 0, err
	}
	p.res.Ranking = ranked

	p.out.Section("Feature Importance")
	p.out.Ranking(ranked)
	return len(ranked), nil
}

func (p *pipeline) visualize() (int, error) {
	data, err := visualize.NewData(p.res.Table, p.res.Encoders, p.res.Confusion, p.res.Ranking)
	if err != nil {
		return 0, err
	}

	art := Artifacts{
		Dashboard: filepath.Join(p.cfg.OutputDir, DashboardFile),
		Scatter:   filepath.Join(p.cfg.OutputDir, ScatterFile),
	}
	if err := visualize.RenderDashboard(art.Dashboard, data); err != nil {
		return 0, err
	}
	if err := visualize.RenderScatter(art.Scatter, data); err != nil {
		return 0, err
	}
	if p.cfg.HTMLReport {
		art.HTML = filepath.Join(p.cfg.OutputDir, HTMLFile)
		if err := visualize.RenderHTML(art.HTML, data); err != nil {
			return 0, err
		}
	}
	p.res.Artifacts = art

	p.out.Section("Figures")
	for _, path := range []string{art.Dashboard, art.Scatter, art.HTML} {
		if path != "" {
			p.out.Line("wrote %s", path)
		}
	}
	return p.res.Table.Len(), nil
}
