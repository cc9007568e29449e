package roadsafety

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/monitoring"
	"go.uber.org/zap"
)

// Option configures a Run.
type Option func(*runOptions)

type runOptions struct {
	logger    *zap.Logger
	allocator memory.Allocator
	report    io.Writer
	collector *monitoring.MetricsCollector
	figures   bool
}

func defaultOptions() *runOptions {
	return &runOptions{
		logger:  zap.NewNop(),
		report:  io.Discard,
		figures: true,
	}
}

// WithLogger sets the logger stages report progress to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAllocator sets the Arrow allocator for every column of the run.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *runOptions) {
		o.allocator = mem
	}
}

// WithReport sets where the textual summaries are printed.
func WithReport(w io.Writer) Option {
	return func(o *runOptions) {
		if w != nil {
			o.report = w
		}
	}
}

// WithMetrics records stage metrics into collector instead of a private one.
func WithMetrics(collector *monitoring.MetricsCollector) Option {
	return func(o *runOptions) {
		o.collector = collector
	}
}

// WithoutFigures skips the visualize stage and every file a run would write.
func WithoutFigures() Option {
	return func(o *runOptions) {
		o.figures = false
	}
}
