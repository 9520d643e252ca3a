package bench

import "github.com/wesleyorama2/settle/bench/stats"

// RunHistory is the append-only record of measured samples of one run.
// The total and count are kept incrementally so averages cost O(1).
type RunHistory struct {
	samples []int64
	total   stats.Int128
}

// Append records one measured sample in nanoseconds.
func (h *RunHistory) Append(ns int64) {
	h.samples = append(h.samples, ns)
	h.total = h.total.AddInt64(ns)
}

// Len returns the number of measured runs.
func (h *RunHistory) Len() int { return len(h.samples) }

// Total returns the exact sum of all samples.
func (h *RunHistory) Total() stats.Int128 { return h.total }

// Samples returns the recorded samples. Callers must not modify the slice.
func (h *RunHistory) Samples() []int64 { return h.samples }
