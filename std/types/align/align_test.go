package align_test

import (
	"reflect"
	"testing"

	"github.com/named-data/impatience/std/types/align"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, uintptr(0), align.AlignUp(0))
	require.Equal(t, uintptr(128), align.AlignUp(1))
	require.Equal(t, uintptr(128), align.AlignUp(128))
	require.Equal(t, uintptr(256), align.AlignUp(129))

	require.True(t, align.IsAligned(0))
	require.True(t, align.IsAligned(384))
	require.False(t, align.IsAligned(64))
	require.Equal(t, 127, align.MaxReaders)
}

func TestField(t *testing.T) {
	low := align.Field[uint64]{Shift: 0, Width: 7}
	high := low.Next(57)
	require.Equal(t, uint64(127), low.Mask())
	require.Equal(t, uint(7), high.Shift)

	w := high.Set(low.Set(0, 5), 0xabcdef)
	require.Equal(t, uint64(5), low.Get(w))
	require.Equal(t, uint64(0xabcdef), high.Get(w))
	require.Equal(t, uint64(0xabcdef<<7|5), w)

	// overflowing values are truncated to the field
	w = low.Set(w, 130)
	require.Equal(t, uint64(2), low.Get(w))
	require.Equal(t, uint64(0xabcdef), high.Get(w))

	full := align.Field[uint8]{Shift: 0, Width: 8}
	require.Equal(t, uint8(0xff), full.Max())
	require.Equal(t, uint8(0x42), full.Get(full.Set(0, 0x42)))
}

type plainStruct struct {
	A int64
	B [2]float64
	C struct{ D uint8 }
}

type refStruct struct {
	A int
	S string
}

func TestIsPlain(t *testing.T) {
	for _, v := range []any{0, uint8(1), 1.5, [4]uint32{}, plainStruct{}, [0]string{}, complex64(1)} {
		require.True(t, align.IsPlain(reflect.TypeOf(v)), "%T", v)
	}
	for _, v := range []any{new(int), "s", []int{}, map[int]int{}, refStruct{}, uintptr(0), [1]any{}, func() {}} {
		require.False(t, align.IsPlain(reflect.TypeOf(v)), "%T", v)
	}

	require.NotPanics(t, align.CheckPlain[plainStruct])
	require.Panics(t, align.CheckPlain[refStruct])
}
