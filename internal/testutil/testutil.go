// Package testutil provides common testing utilities shared by the pipeline
// packages' tests:
// - Memory allocator setup with leak checks
// - Small fixed accident tables
// - Common table assertions
package testutil

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// defaultRowCount is the default number of rows in test tables.
	defaultRowCount = 8
)

// TestMemoryContext provides a checked allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	cleanup   func()
}

// Release asserts that every Arrow buffer was freed.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator for tests. Releasing the
// context fails the test if any allocation is still live.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// TestTableOption configures test table creation.
type TestTableOption func(*testTableConfig)

type testTableConfig struct {
	includeNulls bool
	rowCount     int
}

// WithNulls marks every third Weather and every fourth Driver_Age as missing.
func WithNulls() TestTableOption {
	return func(cfg *testTableConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount sets the number of rows in test data.
func WithRowCount(count int) TestTableOption {
	return func(cfg *testTableConfig) {
		cfg.rowCount = count
	}
}

// CreateAccidentTable creates a deterministic table with the nine base
// accident columns. Values cycle through fixed lists, so every category
// appears once the table has at least four rows.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
//	tbl := testutil.CreateAccidentTable(mem.Allocator, testutil.WithNulls())
//	defer tbl.Release()
func CreateAccidentTable(allocator memory.Allocator, opts ...TestTableOption) *frame.Table {
	cfg := &testTableConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}
	n := cfg.rowCount

	var weatherValid, ageValid []bool
	if cfg.includeNulls {
		weatherValid = make([]bool, n)
		ageValid = make([]bool, n)
		for i := range n {
			weatherValid[i] = i%3 != 2
			ageValid[i] = i%4 != 3
		}
	}

	return frame.New(
		series.New("Location", cycle(n, "Urban", "Suburban", "Rural"), allocator),
		series.New("Time", hourly(n), allocator),
		series.NewNullable("Weather", cycle(n, "Clear", "Rain", "Snow", "Fog"), weatherValid, allocator),
		series.New("Road_Condition", cycle(n, "Dry", "Wet", "Icy"), allocator),
		series.New("Traffic_Density", cycle(n, 12.5, 47.25, 88.0, 63.5, 20.0), allocator),
		series.New("Speed_Limit", cycle[int64](n, 30, 50, 70, 100), allocator),
		series.NewNullable("Driver_Age", cycle[int64](n, 18, 25, 41, 79, 56), ageValid, allocator),
		series.New("Accident_Severity", cycle(n, "Minor", "Moderate", "Severe", "Fatal"), allocator),
		series.New("Casualties", cycle[int64](n, 0, 1, 2, 3, 4), allocator),
	)
}

// AssertTableEqual compares column names, order and contents.
func AssertTableEqual(t *testing.T, expected, actual *frame.Table) {
	t.Helper()

	require.NotNil(t, expected, "expected table should not be nil")
	require.NotNil(t, actual, "actual table should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "table lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "table columns should match")
	assert.Equal(t, expected.Fingerprint(), actual.Fingerprint(), "table contents should match")
}

// AssertTableHasColumns verifies that a table has the expected columns.
func AssertTableHasColumns(t *testing.T, tbl *frame.Table, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, tbl, "table should not be nil")
	for _, col := range expectedColumns {
		assert.True(t, tbl.HasColumn(col), "table should have column %s", col)
	}
}

func cycle[T any](n int, values ...T) []T {
	out := make([]T, n)
	for i := range n {
		out[i] = values[i%len(values)]
	}
	return out
}

func hourly(n int) []time.Time {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range n {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}
