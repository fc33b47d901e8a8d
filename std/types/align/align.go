// Package align provides 128-byte aligned off-heap memory for lock-free
// data structures.
//
// Every slot handed out by an Allocator starts on a 128-byte boundary,
// so the low AlignBits bits of its address are always zero and can carry
// a small counter next to the address in a single atomic word.
package align

import "unsafe"

const (
	// AlignBits is the number of low address bits freed by the alignment.
	AlignBits = 7
	// Alignment of every slot, in bytes. Larger than common cache lines.
	Alignment = 1 << AlignBits
	// MaxReaders is the largest count representable in AlignBits bits.
	MaxReaders = Alignment - 1
)

// IsAligned reports whether addr is a multiple of Alignment.
func IsAligned(addr uintptr) bool {
	return addr&(Alignment-1) == 0
}

// AlignUp rounds size up to the next multiple of Alignment.
func AlignUp(size uintptr) uintptr {
	return (size + Alignment - 1) &^ (Alignment - 1)
}

// Padded keeps a value alone on its own 128-byte line.
type Padded[T any] struct {
	V T
	_ [Alignment]byte
}

// SizeOf returns the size of a T in bytes.
func SizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
