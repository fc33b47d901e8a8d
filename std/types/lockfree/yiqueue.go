// Lock-free data structures
package lockfree

import (
	"iter"
	"sync/atomic"
)

// YiQueue is a lock-free Yielding Queue for many producers and one consumer.
//
// Producers never spin. The consumer is woken through Notify when the
// queue goes from empty to non-empty.
type YiQueue[T any] struct {
	Notify chan struct{}
	queue  *Queue[T]
	size   atomic.Int32
}

func NewYiQueue[T any]() *YiQueue[T] {
	return &YiQueue[T]{
		Notify: make(chan struct{}, 1),
		queue:  NewQueue[T](),
	}
}

func (yq *YiQueue[T]) Push(v T) {
	if yq.size.Add(1) == 1 {
		defer yq.wake()
	}
	yq.queue.Push(v)
}

func (yq *YiQueue[T]) wake() {
	select {
	case yq.Notify <- struct{}{}:
	default:
	}
}

func (yq *YiQueue[T]) Pop() (val T, ok bool) {
	for yq.size.Load() > 0 {
		if val, ok = yq.queue.Pop(); !ok {
			// promised by size but the Push has not linked it yet
			continue
		}
		yq.size.Add(-1)
		return val, true
	}
	return val, false
}

// Len returns the number of values pushed and not yet popped.
func (yq *YiQueue[T]) Len() int {
	return int(yq.size.Load())
}

// Drain pops until the queue is empty.
func (yq *YiQueue[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			val, ok := yq.Pop()
			if !ok || !yield(val) {
				return
			}
		}
	}
}
