//go:build !unix

package align

import "unsafe"

// mapChunk falls back to the Go heap. The Allocator keeps the slice alive
// and the heap does not move objects, so addresses stay valid.
func mapChunk(size int) ([]byte, error) {
	buf := make([]byte, size+Alignment)
	off := AlignUp(uintptr(unsafe.Pointer(&buf[0]))) - uintptr(unsafe.Pointer(&buf[0]))
	return buf[off : off+uintptr(size) : off+uintptr(size)], nil
}

func unmapChunk([]byte) error {
	return nil
}
