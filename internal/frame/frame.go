// Package frame provides the in-memory table threaded through the pipeline.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cespare/xxhash/v2"
	"github.com/paveg/roadsafety/internal/errors"
	"github.com/paveg/roadsafety/internal/series"
)

// Table represents a set of equally long, typed columns in a fixed order.
// Stages mutate a Table in place; replaced columns are released.
type Table struct {
	columns map[string]series.Column
	order   []string // Maintains column order
}

// New creates a new Table from columns. The Table takes ownership of them.
func New(cols ...series.Column) *Table {
	columns := make(map[string]series.Column, len(cols))
	order := make([]string, 0, len(cols))

	for _, c := range cols {
		name := c.Name()
		if old, dup := columns[name]; dup {
			old.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = c
	}

	return &Table{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.order) == 0 {
		return 0
	}
	return t.columns[t.order[0]].Len()
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.order)
}

// Column returns the column with the given name
func (t *Table) Column(name string) (series.Column, bool) {
	c, exists := t.columns[name]
	return c, exists
}

// HasColumn checks if a column exists
func (t *Table) HasColumn(name string) bool {
	_, exists := t.columns[name]
	return exists
}

// Set adds a column, or replaces the column of the same name in place.
// The Table takes ownership of c and releases any column it replaces.
func (t *Table) Set(c series.Column) error {
	if t.Width() > 0 && c.Len() != t.Len() {
		return &errors.PipelineError{
			Stage:   "set",
			Column:  c.Name(),
			Message: fmt.Sprintf("column length %d does not match table length %d", c.Len(), t.Len()),
		}
	}
	if old, exists := t.columns[c.Name()]; exists {
		old.Release()
	} else {
		t.order = append(t.order, c.Name())
	}
	t.columns[c.Name()] = c
	return nil
}

// Select returns a new Table with only the named columns. Column data is
// shared, so both tables must be released.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]series.Column, 0, len(names))
	for _, name := range names {
		c, exists := t.columns[name]
		if !exists {
			for _, taken := range cols {
				taken.Release()
			}
			return nil, errors.NewColumnNotFoundError("select", name)
		}
		cols = append(cols, c.Copy())
	}
	return New(cols...), nil
}

// Drop returns a new Table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	cols := make([]series.Column, 0, len(t.order))
	for _, name := range t.order {
		if !dropSet[name] {
			cols = append(cols, t.columns[name].Copy())
		}
	}
	return New(cols...)
}

// Strings returns a string column's values. Nulls come back as "".
func (t *Table) Strings(name string) ([]string, error) {
	s, err := typed[string](t, name, "string")
	if err != nil {
		return nil, err
	}
	return s.Values(), nil
}

// Int64s returns an int64 column's values. Nulls come back as 0.
func (t *Table) Int64s(name string) ([]int64, error) {
	s, err := typed[int64](t, name, "int64")
	if err != nil {
		return nil, err
	}
	return s.Values(), nil
}

// Times returns a timestamp column's values.
func (t *Table) Times(name string) ([]time.Time, error) {
	s, err := typed[time.Time](t, name, "timestamp")
	if err != nil {
		return nil, err
	}
	return s.Values(), nil
}

// Float64s returns any numeric column widened to float64. Nulls come back as NaN.
func (t *Table) Float64s(name string) ([]float64, error) {
	c, exists := t.columns[name]
	if !exists {
		return nil, errors.NewColumnNotFoundError("float64s", name)
	}
	out := make([]float64, c.Len())
	switch s := c.(type) {
	case *series.Series[float64]:
		for i := range out {
			out[i] = s.Value(i)
		}
	case *series.Series[int64]:
		for i := range out {
			out[i] = float64(s.Value(i))
		}
	case *series.Series[bool]:
		for i := range out {
			if s.Value(i) {
				out[i] = 1
			}
		}
	default:
		return nil, errors.NewTypeMismatchError("float64s", name, "numeric")
	}
	for i := range out {
		if c.IsNull(i) {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

func typed[T any](t *Table, name, want string) (*series.Series[T], error) {
	c, exists := t.columns[name]
	if !exists {
		return nil, errors.NewColumnNotFoundError("column", name)
	}
	s, ok := c.(*series.Series[T])
	if !ok {
		return nil, errors.NewTypeMismatchError("column", name, want)
	}
	return s, nil
}

// NullCounts returns the number of nulls per column, in column order.
func (t *Table) NullCounts() []NullCount {
	counts := make([]NullCount, 0, len(t.order))
	for _, name := range t.order {
		counts = append(counts, NullCount{Column: name, Nulls: t.columns[name].NullCount()})
	}
	return counts
}

// NullCount is the number of missing values in one column.
type NullCount struct {
	Column string
	Nulls  int
}

// Head returns the first n rows rendered as strings, row-major.
func (t *Table) Head(n int) [][]string {
	if n > t.Len() {
		n = t.Len()
	}
	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(t.order))
		for j, name := range t.order {
			row[j] = t.columns[name].GetAsString(i)
		}
		rows[i] = row
	}
	return rows
}

// Fingerprint hashes every column's name, validity and values. Two tables
// with identical contents have identical fingerprints.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, name := range t.order {
		_, _ = h.WriteString(name)
		c := t.columns[name]
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				_, _ = h.Write([]byte{0})
				continue
			}
			_, _ = h.Write([]byte{1})
			switch s := c.(type) {
			case *series.Series[float64]:
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Value(i)))
				_, _ = h.Write(buf[:])
			case *series.Series[int64]:
				binary.LittleEndian.PutUint64(buf[:], uint64(s.Value(i))) //nolint:gosec // bit pattern only
				_, _ = h.Write(buf[:])
			default:
				_, _ = h.WriteString(c.GetAsString(i))
			}
		}
	}
	return h.Sum64()
}

// Record exports the Table as an Arrow record batch. The caller releases it.
func (t *Table) Record() arrow.Record {
	fields := make([]arrow.Field, 0, len(t.order))
	arrays := make([]arrow.Array, 0, len(t.order))
	for _, name := range t.order {
		c := t.columns[name]
		fields = append(fields, arrow.Field{Name: name, Type: c.DataType(), Nullable: true})
		arr := c.Array()
		defer arr.Release()
		arrays = append(arrays, arr)
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrays, int64(t.Len()))
}

// String returns a string representation of the Table
func (t *Table) String() string {
	if len(t.order) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, t.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases every column
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
	t.columns = map[string]series.Column{}
	t.order = nil
}
