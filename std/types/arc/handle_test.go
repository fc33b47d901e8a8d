package arc_test

import (
	"sync"
	"testing"
	"time"

	"github.com/named-data/impatience/std/types/align"
	"github.com/named-data/impatience/std/types/arc"
	tu "github.com/named-data/impatience/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestHandleGetSwap(t *testing.T) {
	defer tu.NoLeaks(t)()

	h := arc.NewHandle[int64](5)
	require.Equal(t, int64(5), h.Get())
	require.Equal(t, 0, h.Readers())

	tmp := arc.NewHandle[int64](7)
	h.Swap(tmp)
	require.Equal(t, int64(7), h.Get())
	require.Equal(t, int64(5), tmp.Get())

	tmp.Drop()
	tmp.Drop() // no-op
	require.Equal(t, arc.Ptr(0), tmp.Ptr())
	require.Panics(t, func() { tmp.Get() })

	h.Drop()
}

func TestGuardOutlivesSwap(t *testing.T) {
	defer tu.NoLeaks(t)()
	live := align.Default().Live()

	h := arc.NewHandle[int64](1)
	g := h.Acquire()
	require.Equal(t, 1, h.Readers())

	tmp := arc.NewHandle[int64](2)
	h.Swap(tmp)
	tmp.Drop()

	// the old block is kept alive by the guard
	require.Equal(t, live+2, align.Default().Live())
	require.Equal(t, int64(1), g.Load())
	g.Release()
	require.Equal(t, live+1, align.Default().Live())

	require.Equal(t, int64(2), h.Get())
	h.Drop()
}

func TestGuardOutlivesHandleDrop(t *testing.T) {
	defer tu.NoLeaks(t)()

	h := arc.NewHandle[int64](3)
	g1, g2 := h.Acquire(), h.Acquire()
	require.Equal(t, 2, h.Readers())
	h.Drop()

	require.Equal(t, int64(3), g1.Load())
	g1.Release()
	require.Equal(t, int64(3), g2.Load())
	g2.Release()
}

func TestReaderSaturation(t *testing.T) {
	defer tu.NoLeaks(t)()

	h := arc.NewHandle[int64](1)
	guards := make([]arc.Guard[int64], align.MaxReaders)
	for i := range guards {
		guards[i] = h.Acquire()
	}
	require.Equal(t, align.MaxReaders, h.Readers())

	got := make(chan int64)
	go func() { got <- h.Get() }()

	// writers are not held back by a saturated count
	tmp := arc.NewHandle[int64](2)
	h.Swap(tmp)
	tmp.Drop()
	require.LessOrEqual(t, h.Readers(), 1)

	require.Equal(t, int64(2), <-got)
	for _, g := range guards {
		require.Equal(t, int64(1), g.Load())
		g.Release()
	}
	h.Drop()
}

func TestReaderBackpressure(t *testing.T) {
	defer tu.NoLeaks(t)()

	h := arc.NewHandle[int64](9)
	guards := make([]arc.Guard[int64], align.MaxReaders)
	for i := range guards {
		guards[i] = h.Acquire()
	}

	got := make(chan int64, 1)
	go func() { got <- h.Get() }()
	select {
	case <-got:
		t.Fatal("reader checked in past the saturated count")
	case <-time.After(20 * time.Millisecond):
	}

	guards[0].Release()
	require.Equal(t, int64(9), <-got)
	for _, g := range guards[1:] {
		g.Release()
	}
	require.Equal(t, 0, h.Readers())
	h.Drop()
}

func TestHandleConcurrentSwaps(t *testing.T) {
	defer tu.NoLeaks(t)()
	const readers, writers, rounds = 6, 3, 3000

	type pair struct{ A, B int64 }
	h := arc.NewHandle(pair{0, 0})

	var wg sync.WaitGroup
	bad := make(chan pair, readers)
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				if v := h.Get(); v.A != -v.B {
					bad <- v
					return
				}
			}
		}()
	}
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				n := int64(w*rounds + i)
				tmp := arc.NewHandle(pair{n, -n})
				h.Swap(tmp)
				tmp.Drop()
			}
		}()
	}
	wg.Wait()
	close(bad)
	for v := range bad {
		t.Fatalf("torn read %v", v)
	}
	require.Equal(t, 0, h.Readers())
	h.Drop()
}
