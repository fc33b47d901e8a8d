//go:build unix

package align

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mapChunk maps anonymous memory outside the Go heap.
// Page alignment implies Alignment.
func mapChunk(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("align: mmap %d bytes: %w", size, err)
	}
	return mem, nil
}

func unmapChunk(mem []byte) error {
	return unix.Munmap(mem)
}
