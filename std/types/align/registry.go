package align

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Registry keeps one Allocator per slot size.
type Registry struct {
	classes sync.Map // uintptr -> *Allocator
	poison  atomic.Bool
}

var defaultRegistry = &Registry{}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// ForSize returns the allocator of the default registry serving size bytes.
func ForSize(size uintptr) *Allocator {
	return defaultRegistry.ForSize(size)
}

// ForSize returns the allocator whose slots fit size bytes, creating it on
// first use.
func (r *Registry) ForSize(size uintptr) *Allocator {
	slot := AlignUp(max(size, 1))
	if a, ok := r.classes.Load(slot); ok {
		return a.(*Allocator)
	}

	cfg := DefaultConfig(slot)
	cfg.Poison = r.poison.Load()
	a, err := NewAllocator(cfg)
	if err != nil {
		panic(err)
	}
	actual, _ := r.classes.LoadOrStore(slot, a)
	return actual.(*Allocator)
}

// SetPoison toggles poisoning on every current and future size class.
func (r *Registry) SetPoison(on bool) {
	r.poison.Store(on)
	r.classes.Range(func(_, a any) bool {
		a.(*Allocator).SetPoison(on)
		return true
	})
}

// Stats returns the counters of every size class, smallest first.
func (r *Registry) Stats() []Stats {
	var stats []Stats
	r.classes.Range(func(_, a any) bool {
		stats = append(stats, a.(*Allocator).Stats())
		return true
	})
	slices.SortFunc(stats, func(a, b Stats) int {
		return int(a.SlotSize) - int(b.SlotSize)
	})
	return stats
}

// Live returns the number of live slots across all size classes.
func (r *Registry) Live() (n int64) {
	for _, s := range r.Stats() {
		n += s.Live
	}
	return n
}
