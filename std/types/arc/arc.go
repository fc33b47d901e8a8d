// Package arc implements reference-counted blocks living outside the Go
// heap, and Handle, a single atomic word that can be swapped to a new block
// while readers are still copying values out of the old one.
package arc

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/named-data/impatience/std/types/align"
)

// Ptr is the address of a block created by Raw. The zero Ptr refers to nothing.
type Ptr uintptr

type block[T any] struct {
	count atomic.Int64
	data  T
}

func blockSize[T any]() uintptr {
	return unsafe.Sizeof(block[T]{})
}

func load[T any](p Ptr) *block[T] {
	return (*block[T])(unsafe.Pointer(uintptr(p)))
}

// Arc is one ownership unit of a block. Arc values are not duplicated
// implicitly: each one accounts for exactly one unit of the block counter
// and must be dropped exactly once.
type Arc[T any] struct {
	ptr Ptr
}

// Raw allocates a 128-byte aligned block holding data and returns its
// address. The counter starts at zero and is not valid until InitCount.
// T must be plain; Raw panics otherwise, and when memory is exhausted.
func Raw[T any](data T) Ptr {
	align.CheckPlain[T]()
	addr := align.ForSize(blockSize[T]()).MustAlloc()
	b := (*block[T])(unsafe.Pointer(addr))
	b.count.Store(0)
	b.data = data
	return Ptr(addr)
}

// FromRaw reconstructs an ownership unit from an address returned by Raw
// for a type of the same size. Several units may be reconstructed from one
// address as long as the counter accounts for all of them.
func FromRaw[T any](p Ptr) Arc[T] {
	return Arc[T]{ptr: p}
}

// DataFromRaw copies the value out of the block without touching the
// counter. The caller must hold a unit that keeps the block alive.
func DataFromRaw[T any](p Ptr) T {
	return load[T](p).data
}

// InitCount adds n units to the counter. It must be called exactly once per
// Raw, with n >= 1.
func (a Arc[T]) InitCount(n int64) {
	if n < 1 {
		panic(fmt.Sprintf("arc: InitCount(%d) on %#x", n, uintptr(a.ptr)))
	}
	load[T](a.ptr).count.Add(n)
}

// Drop releases one unit. The caller observing the counter fall from
// exactly one frees the block: nothing else can raise it again.
func (a Arc[T]) Drop() {
	if load[T](a.ptr).count.Add(-1) == 0 {
		align.ForSize(blockSize[T]()).Free(uintptr(a.ptr))
	}
}

// Ptr returns the block address.
func (a Arc[T]) Ptr() Ptr {
	return a.ptr
}

// Count loads the materialized counter. Units still embedded in a Handle
// word are not included.
func (a Arc[T]) Count() int64 {
	return load[T](a.ptr).count.Load()
}
