// Package cell provides Cell, a value that any goroutine may replace while
// any number of others read it, without locks.
package cell

import (
	"runtime"
	"sync/atomic"

	"github.com/named-data/impatience/std/types/arc"
)

// Cell holds a plain value (no pointers, slices, maps, strings, interfaces,
// channels or functions). Get returns a copy of the value installed most
// recently; Set installs a new one. The superseded value is freed once the
// last reader that saw it is done.
type Cell[T any] struct {
	handle *arc.Handle[T]
	closed atomic.Bool
}

// New creates a cell holding value. New panics if T is not plain.
//
// A cell that becomes unreachable without Close is released by the garbage
// collector.
func New[T any](value T) *Cell[T] {
	c := &Cell[T]{handle: arc.NewHandle(value)}
	runtime.SetFinalizer(c, (*Cell[T]).Close)
	return c
}

// Get returns a copy of the current value.
func (c *Cell[T]) Get() T {
	v := c.handle.Get()
	runtime.KeepAlive(c)
	return v
}

// Set installs value. Readers that already checked in keep reading the
// previous value; every Get that starts after Set returns sees value or a
// later one.
func (c *Cell[T]) Set(value T) {
	next := arc.NewHandle(value)
	c.handle.Swap(next)
	next.Drop()
	runtime.KeepAlive(c)
}

// Close releases the installed value. It must not run concurrently with Get
// or Set, and the cell must not be used afterwards. Close is idempotent.
func (c *Cell[T]) Close() {
	if c.closed.Swap(true) {
		return
	}
	runtime.SetFinalizer(c, nil)
	c.handle.Drop()
}
