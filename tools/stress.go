package tools

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cespare/xxhash"
	"github.com/named-data/impatience/std/log"
	"github.com/named-data/impatience/std/types/align"
	"github.com/named-data/impatience/std/types/cell"
	"github.com/named-data/impatience/std/types/lockfree"
)

// StressConfig configures a stress run.
type StressConfig struct {
	// Number of goroutines calling Get
	Readers int `json:"readers"`
	// Number of goroutines calling Set
	Writers int `json:"writers"`
	// Operations per goroutine
	Iterations int `json:"iterations"`
	// Poison freed blocks so late reads are caught by the checksum
	Poison bool `json:"poison"`
	// Logging level
	LogLevel string `json:"log_level"`
}

// DefaultStressConfig mirrors one reader against one writer doing 10k operations each.
func DefaultStressConfig() *StressConfig {
	return &StressConfig{
		Readers:    1,
		Writers:    1,
		Iterations: 10000,
		Poison:     true,
		LogLevel:   "INFO",
	}
}

func (c *StressConfig) Validate() error {
	if c.Readers < 1 {
		return errors.New("readers must be at least 1")
	}
	if c.Writers < 0 {
		return errors.New("writers must not be negative")
	}
	if c.Iterations < 1 {
		return errors.New("iterations must be at least 1")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// StressReport summarizes a stress run.
type StressReport struct {
	Gets        uint64
	Sets        uint64
	Torn        uint64
	Regressions uint64
	Unknown     uint64
	LeakedSlots int64
	Elapsed     time.Duration
}

// Ok reports whether the run observed no anomaly.
func (r StressReport) Ok() bool {
	return r.Torn == 0 && r.Regressions == 0 && r.Unknown == 0 && r.LeakedSlots == 0
}

// stressValue is wide enough that a torn or freed read breaks the checksum.
type stressValue struct {
	Writer uint64
	Seq    uint64
	Words  [6]uint64
	Sum    uint64
}

func makeStressValue(writer, seq uint64) stressValue {
	v := stressValue{Writer: writer, Seq: seq}
	for i := range v.Words {
		v.Words[i] = seq*0x9e3779b97f4a7c15 + writer<<32 + uint64(i)
	}
	v.Sum = v.checksum()
	return v
}

func (v *stressValue) checksum() uint64 {
	n := unsafe.Offsetof(v.Sum)
	return xxhash.Sum64(unsafe.Slice((*byte)(unsafe.Pointer(v)), n))
}

type anomalyKind int

const (
	anomalyTorn anomalyKind = iota
	anomalyRegression
	anomalyUnknown
)

func (k anomalyKind) String() string {
	switch k {
	case anomalyTorn:
		return "torn"
	case anomalyRegression:
		return "regression"
	default:
		return "unknown"
	}
}

type anomaly struct {
	kind   anomalyKind
	reader int
	value  stressValue
}

// Stress runs readers and writers against one shared cell.
type Stress struct {
	cfg *StressConfig
	cnt [3]uint64 // by anomalyKind, owned by the collector
}

func NewStress(cfg *StressConfig) *Stress {
	return &Stress{cfg: cfg}
}

func (s *Stress) String() string {
	return "stress"
}

// Run executes the configured workload and reports what readers observed.
func (s *Stress) Run() (StressReport, error) {
	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return StressReport{}, fmt.Errorf("invalid stress config: %w", err)
	}

	registry := align.Default()
	registry.SetPoison(cfg.Poison)
	before := registry.Live()

	log.Info(s, "Starting stress run",
		"readers", cfg.Readers, "writers", cfg.Writers, "iterations", cfg.Iterations)

	var gets, sets atomic.Uint64
	anomalies := lockfree.NewYiQueue[anomaly]()
	c := cell.New(makeStressValue(0, 0))
	start := time.Now()

	stop := make(chan struct{})
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for {
			select {
			case <-anomalies.Notify:
				s.collect(anomalies)
			case <-stop:
				s.collect(anomalies)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for r := range cfg.Readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.read(c, r, anomalies)
			gets.Add(uint64(cfg.Iterations))
		}()
	}
	for w := 1; w <= cfg.Writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= cfg.Iterations; i++ {
				c.Set(makeStressValue(uint64(w), uint64(i)))
			}
			sets.Add(uint64(cfg.Iterations))
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	close(stop)
	<-collected
	c.Close()

	report := StressReport{
		Gets:        gets.Load(),
		Sets:        sets.Load(),
		Torn:        s.cnt[anomalyTorn],
		Regressions: s.cnt[anomalyRegression],
		Unknown:     s.cnt[anomalyUnknown],
		LeakedSlots: registry.Live() - before,
		Elapsed:     elapsed,
	}
	log.Info(s, "Stress run finished", "ok", report.Ok(), "elapsed", elapsed)
	return report, nil
}

func (s *Stress) read(c *cell.Cell[stressValue], reader int, out *lockfree.YiQueue[anomaly]) {
	last := make([]uint64, s.cfg.Writers+1)
	for range s.cfg.Iterations {
		v := c.Get()
		switch {
		case v.Sum != v.checksum():
			out.Push(anomaly{kind: anomalyTorn, reader: reader, value: v})
		case v.Writer > uint64(s.cfg.Writers) || v.Seq > uint64(s.cfg.Iterations) ||
			v != makeStressValue(v.Writer, v.Seq):
			out.Push(anomaly{kind: anomalyUnknown, reader: reader, value: v})
		case v.Seq < last[v.Writer]:
			out.Push(anomaly{kind: anomalyRegression, reader: reader, value: v})
		default:
			last[v.Writer] = v.Seq
		}
	}
}

func (s *Stress) collect(q *lockfree.YiQueue[anomaly]) {
	for a := range q.Drain() {
		s.cnt[a.kind]++
		log.Warn(s, "Anomaly observed", "kind", a.kind, "reader", a.reader,
			"writer", a.value.Writer, "seq", a.value.Seq)
	}
}
