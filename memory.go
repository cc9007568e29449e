package roadsafety

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that can be released to free memory.
//
// Tables, series and Arrow records implement it. Always call Release() when
// done with a resource to prevent leaks from the Arrow allocator.
type Releasable interface {
	Release()
}

// MemoryManager tracks resources created during a run so they can be
// released together.
//
// Run registers the accident table with the Result's manager and
// Result.Record adds each exported record; releasing the Result releases
// everything tracked, newest first. The MemoryManager is safe for
// concurrent use from multiple goroutines.
//
// Example:
//
//	manager := roadsafety.NewMemoryManager(memory.NewGoAllocator())
//	defer manager.ReleaseAll()
//
//	table := frame.New(series.New("Casualties", []int64{1, 2}, manager.Allocator()))
//	manager.Track(table)
//	rec := table.Record()
//	manager.Track(rec) // released before the table
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex // Mutex to synchronize access to resources
}

// NewMemoryManager creates a new memory manager with the given allocator
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Allocator returns the allocator resources should be built with.
func (m *MemoryManager) Allocator() memory.Allocator {
	return m.allocator
}

// Track adds a resource to be managed and automatically released
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources in reverse order of tracking and
// clears the tracking list
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		if m.resources[i] != nil {
			m.resources[i].Release()
		}
	}
	m.resources = m.resources[:0] // Clear the slice but keep capacity
}
