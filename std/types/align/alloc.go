package align

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/named-data/impatience/std/log"
)

var (
	ErrClosed    = errors.New("align: allocator closed")
	ErrExhausted = errors.New("align: allocator exhausted")
	ErrLive      = errors.New("align: slots still live")
	ErrSlotSize  = errors.New("align: slot size must be a positive multiple of 128")
	ErrCapacity  = errors.New("align: chunk geometry exceeds 32-bit slot index")
)

const poisonByte = 0xdd

const (
	slotFree uint32 = iota
	slotLive
)

// Free list head: slot index + 1 (0 means empty) and an ABA tag.
var (
	headIndex = Field[uint64]{Shift: 0, Width: 32}
	headTag   = headIndex.Next(32)
)

// Config describes one size class.
type Config struct {
	// Size of every slot, a multiple of Alignment
	SlotSize uintptr `json:"slot_size"`
	// Number of slots mapped at once
	ChunkSlots uint32 `json:"chunk_slots"`
	// Upper bound on mapped chunks
	MaxChunks uint32 `json:"max_chunks"`
	// Fill freed slots with a poison pattern
	Poison bool `json:"poison"`
}

// DefaultConfig returns a configuration mapping at least 64 KiB per chunk.
func DefaultConfig(slotSize uintptr) Config {
	slotSize = AlignUp(max(slotSize, 1))
	return Config{
		SlotSize:   slotSize,
		ChunkSlots: uint32(max(64<<10/slotSize, 16)),
		MaxChunks:  16384,
	}
}

type chunk struct {
	mem   []byte
	base  uintptr
	state []atomic.Uint32
	next  []atomic.Uint32
}

// Allocator hands out fixed-size, 128-byte aligned slots from memory
// mapped outside the Go heap. Alloc and Free are lock-free; only mapping a
// new chunk takes a lock.
type Allocator struct {
	head   Padded[atomic.Uint64]
	live   Padded[atomic.Int64]
	allocs atomic.Uint64
	frees  atomic.Uint64
	poison atomic.Bool
	closed atomic.Bool

	cfg    Config
	chunks []atomic.Pointer[chunk]
	count  atomic.Uint32
	mu     sync.Mutex
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	SlotSize uintptr
	Live     int64
	Allocs   uint64
	Frees    uint64
	Chunks   uint32
}

// NewAllocator creates an allocator. No memory is mapped until the first Alloc.
func NewAllocator(cfg Config) (*Allocator, error) {
	if cfg.SlotSize == 0 || !IsAligned(cfg.SlotSize) {
		return nil, ErrSlotSize
	}
	if cfg.ChunkSlots == 0 || cfg.MaxChunks == 0 ||
		uint64(cfg.ChunkSlots)*uint64(cfg.MaxChunks) >= 1<<32 {
		return nil, ErrCapacity
	}
	a := &Allocator{
		cfg:    cfg,
		chunks: make([]atomic.Pointer[chunk], cfg.MaxChunks),
	}
	a.poison.Store(cfg.Poison)
	return a, nil
}

func (a *Allocator) String() string {
	return fmt.Sprintf("align-allocator-%d", a.cfg.SlotSize)
}

// SlotSize returns the size of every slot in bytes.
func (a *Allocator) SlotSize() uintptr {
	return a.cfg.SlotSize
}

// SetPoison toggles poisoning of freed slots.
func (a *Allocator) SetPoison(on bool) {
	a.poison.Store(on)
}

// Alloc returns the address of a free slot. The slot contents are unspecified.
func (a *Allocator) Alloc() (uintptr, error) {
	for {
		if a.closed.Load() {
			return 0, ErrClosed
		}

		old := a.head.V.Load()
		idx := headIndex.Get(old)
		if idx == 0 {
			if err := a.grow(); err != nil {
				return 0, err
			}
			continue
		}

		c, s := a.locate(uint32(idx - 1))
		next := uint64(c.next[s].Load())
		if !a.head.V.CompareAndSwap(old, headTag.Set(next, headTag.Get(old)+1)) {
			continue
		}
		if !c.state[s].CompareAndSwap(slotFree, slotLive) {
			panic(fmt.Sprintf("align: free list handed out live slot %d", idx-1))
		}

		a.live.V.Add(1)
		a.allocs.Add(1)
		return c.base + uintptr(s)*a.cfg.SlotSize, nil
	}
}

// MustAlloc is Alloc for callers with no recovery path.
func (a *Allocator) MustAlloc() uintptr {
	addr, err := a.Alloc()
	if err != nil {
		panic(err)
	}
	return addr
}

// Free returns a slot to the allocator. Freeing an address twice or one
// that Alloc never returned panics.
func (a *Allocator) Free(addr uintptr) {
	c, ci, s := a.find(addr)
	if c == nil {
		panic(fmt.Sprintf("align: free of foreign address %#x", addr))
	}
	if !c.state[s].CompareAndSwap(slotLive, slotFree) {
		panic(fmt.Sprintf("align: double free of %#x", addr))
	}

	if a.poison.Load() {
		off := uintptr(s) * a.cfg.SlotSize
		slot := c.mem[off : off+a.cfg.SlotSize]
		for i := range slot {
			slot[i] = poisonByte
		}
	}

	a.live.V.Add(-1)
	a.frees.Add(1)

	idx := uint64(ci*a.cfg.ChunkSlots+s) + 1
	for {
		old := a.head.V.Load()
		c.next[s].Store(uint32(headIndex.Get(old)))
		if a.head.V.CompareAndSwap(old, headTag.Set(idx, headTag.Get(old)+1)) {
			return
		}
	}
}

// Owns reports whether addr is a slot of this allocator, live or not.
func (a *Allocator) Owns(addr uintptr) bool {
	c, _, _ := a.find(addr)
	return c != nil
}

// Bytes returns the memory of the slot at addr.
func (a *Allocator) Bytes(addr uintptr) []byte {
	c, _, s := a.find(addr)
	if c == nil {
		return nil
	}
	off := uintptr(s) * a.cfg.SlotSize
	return c.mem[off : off+a.cfg.SlotSize : off+a.cfg.SlotSize]
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		SlotSize: a.cfg.SlotSize,
		Live:     a.live.V.Load(),
		Allocs:   a.allocs.Load(),
		Frees:    a.frees.Load(),
		Chunks:   a.count.Load(),
	}
}

// Close unmaps all chunks. It fails with ErrLive while any slot is in use.
// Close must not race with Alloc or Free.
func (a *Allocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed.Load() {
		return nil
	}
	if n := a.live.V.Load(); n != 0 {
		return fmt.Errorf("%w: %d", ErrLive, n)
	}
	a.closed.Store(true)

	var errs []error
	n := a.count.Load()
	for i := uint32(0); i < n; i++ {
		c := a.chunks[i].Swap(nil)
		if err := unmapChunk(c.mem); err != nil {
			errs = append(errs, err)
		}
	}
	a.count.Store(0)
	a.head.V.Store(0)
	log.Debug(a, "Unmapped chunks", "count", n)
	return errors.Join(errs...)
}

func (a *Allocator) locate(idx uint32) (*chunk, uint32) {
	return a.chunks[idx/a.cfg.ChunkSlots].Load(), idx % a.cfg.ChunkSlots
}

func (a *Allocator) find(addr uintptr) (*chunk, uint32, uint32) {
	n := a.count.Load()
	for i := uint32(0); i < n; i++ {
		c := a.chunks[i].Load()
		if c == nil || addr < c.base {
			continue
		}
		off := addr - c.base
		if off >= uintptr(len(c.mem)) {
			continue
		}
		if off%a.cfg.SlotSize != 0 {
			return nil, 0, 0
		}
		return c, i, uint32(off / a.cfg.SlotSize)
	}
	return nil, 0, 0
}

// grow maps one more chunk and pushes its slots onto the free list.
func (a *Allocator) grow() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed.Load() {
		return ErrClosed
	}
	if headIndex.Get(a.head.V.Load()) != 0 {
		return nil // someone else refilled
	}
	ci := a.count.Load()
	if ci >= a.cfg.MaxChunks {
		return ErrExhausted
	}

	n := a.cfg.ChunkSlots
	size := int(a.cfg.SlotSize) * int(n)
	mem, err := mapChunk(size)
	if err != nil {
		return err
	}
	c := &chunk{
		mem:   mem,
		base:  uintptr(unsafe.Pointer(&mem[0])),
		state: make([]atomic.Uint32, n),
		next:  make([]atomic.Uint32, n),
	}
	first := ci * n
	for s := uint32(0); s+1 < n; s++ {
		c.next[s].Store(first + s + 2)
	}
	a.chunks[ci].Store(c)
	a.count.Store(ci + 1)

	for {
		old := a.head.V.Load()
		c.next[n-1].Store(uint32(headIndex.Get(old)))
		if a.head.V.CompareAndSwap(old, headTag.Set(uint64(first)+1, headTag.Get(old)+1)) {
			break
		}
	}

	log.Debug(a, "Mapped chunk", "chunk", ci, "bytes", size)
	return nil
}
