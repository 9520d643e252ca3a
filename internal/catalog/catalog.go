// Package catalog holds the built-in benchmarks run by `settle run`. They
// span a few orders of magnitude so the engine can be calibrated on a
// machine before it is trusted with real code.
package catalog

import (
	"crypto/sha256"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/suite"
)

// Benchmark ids.
const (
	Noop        = "noop"
	Sleep1ms    = "sleep-1ms"
	SHA256_1KiB = "sha256-1KiB"
	Alloc1KiB   = "alloc-1KiB"
	Sort1KInts  = "sort-1K-ints"
	MapInsert1K = "map-insert-1K"
)

const kib = 1024

// sink keeps results alive so the compiler cannot drop the work.
var sink any

// IDs lists the built-in benchmarks in registration order.
func IDs() []string {
	return []string{Noop, Sleep1ms, SHA256_1KiB, Sort1KInts, Alloc1KiB, MapInsert1K}
}

// Register adds every built-in benchmark to s.
func Register(s *suite.Suite) {
	s.Add(Noop, func() error { return nil })

	// Scheduler jitter makes single sleeps noisy; score on cleaned samples.
	s.Scope("timers", bench.Overrides{Averaging: bench.Ptr(bench.AveragingCleanOutliers)}, func(s *suite.Suite) {
		s.Add(Sleep1ms, func() error {
			time.Sleep(time.Millisecond)
			return nil
		}, bench.Overrides{MaxWarmupRuns: bench.Ptr(10)})
	})

	s.Scope("cpu", bench.Overrides{}, func(s *suite.Suite) {
		suite.AddFunc(s, SHA256_1KiB, bench.Func[[]byte, []byte]{
			Before: func() ([]byte, error) { return randomBytes(kib), nil },
			BeforeEach: func(data []byte, _ int) ([]byte, error) {
				return data, nil
			},
			Fn: func(data []byte) error {
				sum := sha256.Sum256(data)
				sink = sum[0]
				return nil
			},
		})

		suite.AddFunc(s, Sort1KInts, bench.Func[[]int, []int]{
			Before: func() ([]int, error) { return randomInts(1000), nil },
			// Sorting in place would leave every later call a sorted input.
			BeforeEach: func(fixture []int, _ int) ([]int, error) {
				return slices.Clone(fixture), nil
			},
			Fn: func(xs []int) error {
				slices.Sort(xs)
				return nil
			},
		})
	})

	s.Scope("memory", bench.Overrides{}, func(s *suite.Suite) {
		s.Add(Alloc1KiB, func() error {
			sink = make([]byte, kib)
			return nil
		})

		suite.AddFunc(s, MapInsert1K, bench.Func[[]string, []string]{
			Before: func() ([]string, error) {
				keys := make([]string, 1000)
				for i := range keys {
					keys[i] = "key-" + strconv.Itoa(i)
				}
				return keys, nil
			},
			BeforeEach: func(keys []string, _ int) ([]string, error) {
				return keys, nil
			},
			Fn: func(keys []string) error {
				m := make(map[string]int)
				for i, k := range keys {
					m[k] = i
				}
				sink = m
				return nil
			},
		}, bench.Overrides{RunsDivisor: bench.Ptr(1000)})
	})
}

func randomBytes(n int) []byte {
	r := rand.New(rand.NewPCG(1, 2))
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.UintN(256))
	}
	return b
}

func randomInts(n int) []int {
	r := rand.New(rand.NewPCG(3, 4))
	xs := make([]int, n)
	for i := range xs {
		xs[i] = r.Int()
	}
	return xs
}
