package lockfree_test

import (
	"sync"
	"testing"

	"github.com/named-data/impatience/std/types/lockfree"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := lockfree.NewQueue[int]()
	_, ok := q.Pop()
	require.False(t, ok)

	for i := range 5 {
		q.Push(i)
	}
	for i := range 5 {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok = q.Pop()
	require.False(t, ok)
}

func TestYiQueueProducers(t *testing.T) {
	const producers, each = 8, 1000
	yq := lockfree.NewYiQueue[int]()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				yq.Push(p*each + i)
			}
		}()
	}
	wg.Wait()

	select {
	case <-yq.Notify:
	default:
		t.Fatal("consumer was not notified")
	}

	require.Equal(t, producers*each, yq.Len())
	seen := make(map[int]bool)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for v := range yq.Drain() {
		seen[v] = true
		// per-producer FIFO
		require.Greater(t, v%each, last[v/each])
		last[v/each] = v % each
	}
	require.Len(t, seen, producers*each)
	require.Equal(t, 0, yq.Len())
}
