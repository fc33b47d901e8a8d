package utils

import "iter"

// Schedules enumerates every interleaving of len(steps) threads where
// thread i runs steps[i] steps in program order. Each schedule is the
// sequence of thread indexes to run. The yielded slice is reused.
func Schedules(steps ...int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		total := 0
		for _, n := range steps {
			total += n
		}
		left := append([]int(nil), steps...)
		order := make([]int, 0, total)

		var walk func() bool
		walk = func() bool {
			if len(order) == total {
				return yield(order)
			}
			for t := range left {
				if left[t] == 0 {
					continue
				}
				left[t]--
				order = append(order, t)
				ok := walk()
				order = order[:len(order)-1]
				left[t]++
				if !ok {
					return false
				}
			}
			return true
		}
		walk()
	}
}

// Run executes one schedule: the k-th occurrence of thread t in order runs
// threads[t][k].
func Run(order []int, threads ...[]func()) {
	pc := make([]int, len(threads))
	for _, t := range order {
		threads[t][pc[t]]()
		pc[t]++
	}
}
