package roadsafety

import (
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/roadsafety/internal/frame"
	"github.com/paveg/roadsafety/internal/series"
	"github.com/paveg/roadsafety/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	id    int
	order *[]int
}

func (r releaseRecorder) Release() {
	*r.order = append(*r.order, r.id)
}

// TestMemoryManager tests the memory management utilities
func TestMemoryManager(t *testing.T) {
	t.Run("track and release multiple resources", func(t *testing.T) {
		mem := testutil.SetupMemoryTest(t)
		defer mem.Release()
		manager := NewMemoryManager(mem.Allocator)

		s1 := series.New("Casualties", []int64{1, 2, 3}, manager.Allocator())
		s2 := series.New("Weather", []string{"Clear", "Rain", "Fog"}, manager.Allocator())
		table := frame.New(
			series.New("Speed_Limit", []int64{30, 50, 70}, manager.Allocator()),
		)

		manager.Track(s1)
		manager.Track(s2)
		manager.Track(table)
		assert.Equal(t, 3, manager.Count())

		require.NotPanics(t, manager.ReleaseAll)
		assert.Equal(t, 0, manager.Count())
	})

	t.Run("releases in reverse order", func(t *testing.T) {
		var order []int
		manager := NewMemoryManager(nil)
		for i := range 3 {
			manager.Track(releaseRecorder{id: i, order: &order})
		}
		manager.ReleaseAll()
		assert.Equal(t, []int{2, 1, 0}, order)
	})

	t.Run("nil resources are ignored", func(t *testing.T) {
		manager := NewMemoryManager(nil)
		manager.Track(nil)
		assert.Equal(t, 0, manager.Count())
		assert.NotNil(t, manager.Allocator())
	})

	t.Run("release all is idempotent", func(t *testing.T) {
		mem := memory.NewGoAllocator()
		manager := NewMemoryManager(mem)
		manager.Track(series.New("Driver_Age", []int64{18, 40}, mem))

		require.NotPanics(t, func() {
			manager.ReleaseAll()
			manager.ReleaseAll()
		})
	})

	t.Run("concurrent access", func(t *testing.T) {
		mem := memory.NewGoAllocator()
		manager := NewMemoryManager(mem)

		var wg sync.WaitGroup
		const numGoroutines = 10
		const resourcesPerGoroutine = 5

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < resourcesPerGoroutine; j++ {
					manager.Track(series.New("Hour", []int64{int64(id), int64(j)}, mem))
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, numGoroutines*resourcesPerGoroutine, manager.Count())
		manager.ReleaseAll()
		assert.Equal(t, 0, manager.Count())
	})
}
