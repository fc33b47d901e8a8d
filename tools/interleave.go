package tools

import (
	"errors"
	"fmt"

	"github.com/named-data/impatience/std/log"
	"github.com/named-data/impatience/std/types/align"
	"github.com/named-data/impatience/std/types/arc"
	"github.com/named-data/impatience/std/utils"
)

// Scenario is a fixed set of threads, each a list of atomic steps, plus a
// check run after every schedule.
type Scenario struct {
	Name string
	// Number of steps of each thread
	Steps []int
	// Setup builds fresh state and returns the threads and the final check.
	Setup func() (threads [][]func(), check func() error)
}

// InterleaveResult counts the schedules explored for one scenario.
type InterleaveResult struct {
	Scenario  string
	Schedules int
	Failures  []error
}

// Explore runs every interleaving of the scenario's threads one step at a
// time on the calling goroutine.
func Explore(sc Scenario) InterleaveResult {
	res := InterleaveResult{Scenario: sc.Name}
	for order := range utils.Schedules(sc.Steps...) {
		res.Schedules++
		if err := runSchedule(sc, order); err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("schedule %v: %w", order, err))
		}
	}
	return res
}

func runSchedule(sc Scenario, order []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	registry := align.Default()
	before := registry.Live()
	threads, check := sc.Setup()
	for i, t := range threads {
		if len(t) != sc.Steps[i] {
			return fmt.Errorf("thread %d has %d steps, want %d", i, len(t), sc.Steps[i])
		}
	}
	utils.Run(order, threads...)
	if err := check(); err != nil {
		return err
	}
	if leaked := registry.Live() - before; leaked != 0 {
		return fmt.Errorf("%d blocks not freed", leaked)
	}
	return nil
}

// ArcScenarios are the built-in scenarios covering the drop protocol of
// arc.Arc and the read/swap protocol of arc.Handle.
func ArcScenarios() []Scenario {
	return []Scenario{
		{Name: "drop-vs-init", Steps: []int{1, 2}, Setup: dropVsInit},
		getVsSet("get-vs-set", 1, 1),
		getVsSet("two-gets-vs-set", 2, 1),
		getVsSet("get-vs-two-sets", 1, 2),
	}
}

// One thread drops a unit reconstructed from p while another reconstructs
// p, initializes the counter with 2 and drops.
func dropVsInit() ([][]func(), func() error) {
	type value [10]uint64
	p := arc.Raw(value{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	a0 := arc.FromRaw[value](p)
	a1 := arc.FromRaw[value](p)

	threads := [][]func(){
		{a0.Drop},
		{func() { a1.InitCount(2) }, a1.Drop},
	}
	return threads, func() error { return nil }
}

// getVsSet runs readers Get step by step against writers Set step by step
// on one handle, then drops the handle. A reader must copy exactly the
// value installed when it checked in.
func getVsSet(name string, readers, writers int) Scenario {
	steps := make([]int, readers+writers)
	for i := range steps {
		steps[i] = 3
	}

	setup := func() ([][]func(), func() error) {
		h := arc.NewHandle[int64](0)
		current := int64(0)
		var errs []error
		var threads [][]func()

		for r := range readers {
			var g arc.Guard[int64]
			var want int64
			threads = append(threads, []func(){
				func() { g = h.Acquire(); want = current },
				func() {
					if got := g.Load(); got != want {
						errs = append(errs, fmt.Errorf("reader %d copied %d, installed was %d", r, got, want))
					}
				},
				func() { g.Release() },
			})
		}
		for w := range writers {
			var tmp *arc.Handle[int64]
			threads = append(threads, []func(){
				func() { tmp = arc.NewHandle(int64(w + 1)) },
				func() { h.Swap(tmp); current = int64(w + 1) },
				func() { tmp.Drop() },
			})
		}

		check := func() error {
			h.Drop()
			return errors.Join(errs...)
		}
		return threads, check
	}
	return Scenario{Name: name, Steps: steps, Setup: setup}
}

// RunInterleave explores all scenarios and logs a summary for each.
func RunInterleave(scenarios []Scenario) []InterleaveResult {
	results := make([]InterleaveResult, 0, len(scenarios))
	for _, sc := range scenarios {
		res := Explore(sc)
		log.Info(nil, "Explored scenario", "scenario", res.Scenario,
			"schedules", res.Schedules, "failures", len(res.Failures))
		for _, err := range res.Failures {
			log.Error(nil, "Schedule failed", "scenario", res.Scenario, "err", err)
		}
		results = append(results, res)
	}
	return results
}
