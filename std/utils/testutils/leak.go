package utils

import (
	"testing"

	"github.com/named-data/impatience/std/types/align"
	"github.com/stretchr/testify/require"
)

// NoLeaks records the live slot count of the default allocator registry and
// returns a check that it is back to the same value.
//
//	defer tu.NoLeaks(t)()
func NoLeaks(t *testing.T) func() {
	t.Helper()
	before := align.Default().Live()
	return func() {
		t.Helper()
		require.Equal(t, before, align.Default().Live(), "live slots leaked")
	}
}
