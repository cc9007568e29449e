package testutil_test

import (
	"testing"

	"github.com/paveg/roadsafety/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMemoryTest(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	require.NotNil(t, mem.Allocator)

	tbl := testutil.CreateAccidentTable(mem.Allocator)
	defer tbl.Release()
	assert.NotNil(t, tbl)
}

func TestCreateAccidentTable(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	t.Run("default configuration", func(t *testing.T) {
		tbl := testutil.CreateAccidentTable(mem.Allocator)
		defer tbl.Release()

		assert.Equal(t, 8, tbl.Len())
		assert.Equal(t, 9, tbl.Width())
		testutil.AssertTableHasColumns(t, tbl, []string{"Location", "Time", "Weather", "Casualties"})
		for _, nc := range tbl.NullCounts() {
			assert.Zero(t, nc.Nulls, nc.Column)
		}
	})

	t.Run("with nulls", func(t *testing.T) {
		tbl := testutil.CreateAccidentTable(mem.Allocator, testutil.WithNulls(), testutil.WithRowCount(12))
		defer tbl.Release()

		weather, _ := tbl.Column("Weather")
		age, _ := tbl.Column("Driver_Age")
		assert.Equal(t, 4, weather.NullCount())
		assert.Equal(t, 3, age.NullCount())
	})

	t.Run("identical tables compare equal", func(t *testing.T) {
		a := testutil.CreateAccidentTable(mem.Allocator)
		defer a.Release()
		b := testutil.CreateAccidentTable(mem.Allocator)
		defer b.Release()

		testutil.AssertTableEqual(t, a, b)
	})
}
