package arc

import (
	"runtime"
	"sync/atomic"
)

// Handle owns one block through a single atomic word that also counts the
// readers currently copying from it. The handle itself holds one unit that
// is never added to the block counter while the handle is alive.
//
// When a swap detaches a block, the readers checked in at that moment move
// with it: the detached word's reader count is folded into the block
// counter on Drop, and each of those readers releases its share directly
// against the block.
type Handle[T any] struct {
	word atomic.Uint64
}

// NewHandle allocates a block holding data and wraps it with no readers.
func NewHandle[T any](data T) *Handle[T] {
	h := &Handle[T]{}
	h.word.Store(uint64(encode(Raw(data), 0)))
	return h
}

// Guard is a checked-in read of a Handle. Release must be called exactly once.
type Guard[T any] struct {
	h    *Handle[T]
	held word
}

// Acquire checks a reader in. The block seen at check-in stays alive until
// the returned Guard is released, even if the handle is swapped meanwhile.
//
// At most 127 readers fit in the word. Further readers yield until a slot
// frees up; writers are never held back.
func (h *Handle[T]) Acquire() Guard[T] {
	cur := word(h.word.Load())
	for {
		if cur.ptr() == 0 {
			panic("arc: Acquire on dropped handle")
		}
		if cur.saturated() {
			runtime.Gosched()
			cur = word(h.word.Load())
			continue
		}
		next := cur.inc()
		if h.word.CompareAndSwap(uint64(cur), uint64(next)) {
			return Guard[T]{h: h, held: next}
		}
		cur = word(h.word.Load())
	}
}

// Load copies the value out of the guarded block.
func (g Guard[T]) Load() T {
	return DataFromRaw[T](g.held.ptr())
}

// Release checks the reader out. If the handle still points at the same
// block, the embedded count is decremented in place. Otherwise the share
// already moved into the detached block's counter and is released there.
func (g Guard[T]) Release() {
	held := g.held
	for {
		if g.h.word.CompareAndSwap(uint64(held), uint64(held.dec())) {
			return
		}
		cur := word(g.h.word.Load())
		if cur.ptr() != held.ptr() {
			FromRaw[T](held.ptr()).Drop()
			return
		}
		held = cur
	}
}

// Get returns a copy of the current value. It never blocks on a lock and
// never fails.
func (h *Handle[T]) Get() T {
	g := h.Acquire()
	v := g.Load()
	g.Release()
	return v
}

// Swap exchanges the words of h and other in one atomic step. other must
// be owned by the caller and not shared with other goroutines.
func (h *Handle[T]) Swap(other *Handle[T]) {
	other.word.Store(h.word.Swap(other.word.Load()))
}

// Drop materializes the embedded readers plus the handle's own unit into
// the block counter and releases the handle's unit. The handle is empty
// afterwards and a second Drop does nothing.
func (h *Handle[T]) Drop() {
	w := word(h.word.Swap(0))
	if w.ptr() == 0 {
		return
	}
	a := FromRaw[T](w.ptr())
	a.InitCount(int64(w.readers()) + 1)
	a.Drop()
}

// Ptr returns the block currently installed, or zero after Drop.
func (h *Handle[T]) Ptr() Ptr {
	return word(h.word.Load()).ptr()
}

// Readers returns the number of readers checked in right now.
func (h *Handle[T]) Readers() int {
	return int(word(h.word.Load()).readers())
}
