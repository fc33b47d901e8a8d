package arc_test

import (
	"sync"
	"testing"

	"github.com/named-data/impatience/std/types/align"
	"github.com/named-data/impatience/std/types/arc"
	"github.com/named-data/impatience/std/utils"
	tu "github.com/named-data/impatience/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

type value [10]uint64

var sample = value{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

func TestRawAlignment(t *testing.T) {
	defer tu.NoLeaks(t)()

	p := arc.Raw(sample)
	require.True(t, align.IsAligned(uintptr(p)))
	require.Equal(t, sample, arc.DataFromRaw[value](p))

	a := arc.FromRaw[value](p)
	a.InitCount(1)
	require.Equal(t, int64(1), a.Count())
	require.Equal(t, p, a.Ptr())
	a.Drop()
}

func TestInitCountRejectsNonPositive(t *testing.T) {
	defer tu.NoLeaks(t)()

	a := arc.FromRaw[value](arc.Raw(sample))
	require.Panics(t, func() { a.InitCount(0) })
	a.InitCount(1)
	a.Drop()
}

func TestRawRejectsReferences(t *testing.T) {
	require.Panics(t, func() { arc.Raw("not plain") })
	require.Panics(t, func() { arc.NewHandle([]int{1}) })
}

func TestCountSharedUnits(t *testing.T) {
	defer tu.NoLeaks(t)()

	p := arc.Raw(sample)
	a := arc.FromRaw[value](p)
	a.InitCount(3)
	for i := 2; i >= 0; i-- {
		require.Equal(t, int64(i+1), a.Count())
		arc.FromRaw[value](p).Drop()
	}
}

// One thread drops a unit reconstructed from p, another reconstructs p,
// initializes the count to 2 and drops. Every schedule frees exactly once.
func TestDropVsInitCountSchedules(t *testing.T) {
	defer tu.NoLeaks(t)()

	schedules := 0
	for order := range utils.Schedules(1, 2) {
		schedules++
		alloc := align.ForSize(align.SizeOf[value]() + 8)
		frees := alloc.Stats().Frees

		p := arc.Raw(sample)
		a0, a1 := arc.FromRaw[value](p), arc.FromRaw[value](p)
		utils.Run(order,
			[]func(){a0.Drop},
			[]func(){func() { a1.InitCount(2) }, a1.Drop})

		require.Equal(t, frees+1, alloc.Stats().Frees, "order %v", order)
	}
	require.Equal(t, 3, schedules)
}

func TestDropVsInitCountConcurrent(t *testing.T) {
	defer tu.NoLeaks(t)()

	for range 2000 {
		p := arc.Raw(sample)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			arc.FromRaw[value](p).Drop()
		}()
		go func() {
			defer wg.Done()
			a := arc.FromRaw[value](p)
			a.InitCount(2)
			a.Drop()
		}()
		wg.Wait()
	}
}
