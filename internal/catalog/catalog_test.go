package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/bench/suite"
)

func TestRegister(t *testing.T) {
	s := suite.New()
	Register(s)
	require.NoError(t, s.Err())

	var ids []string
	for _, e := range s.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, IDs(), ids)
	assert.Equal(t, []string{Noop, Sleep1ms, SHA256_1KiB, Sort1KInts, Alloc1KiB, MapInsert1K}, ids)

	for _, e := range s.Entries() {
		if e.ID == Sleep1ms {
			opts := bench.Merge(bench.DefaultOptions(), e.Layers...)
			assert.Equal(t, bench.AveragingCleanOutliers, opts.Averaging)
			assert.Equal(t, "timers", e.ScopePath())
		}
	}
}

// limits keeps every built-in benchmark short enough for unit tests.
type limits struct{}

func (limits) Layers(string) []bench.Overrides {
	return []bench.Overrides{{
		MaxRuns:           bench.Ptr(20),
		MaxWarmupRuns:     bench.Ptr(2),
		MaxWarmupDuration: bench.Ptr(10 * time.Millisecond),
		MaxDuration:       bench.Ptr(200 * time.Millisecond),
		MinDuration:       bench.Ptr(time.Duration(0)),
	}}
}

func TestCatalogRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("runs real benchmarks")
	}

	s := suite.New()
	Register(s)

	report, err := suite.NewRunner(suite.WithLayers(limits{})).Run(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.Len(t, report.Results, len(IDs()))

	for _, r := range report.Results {
		assert.Positive(t, r.Runs, r.ID)
		assert.LessOrEqual(t, r.Runs, 20, r.ID)
	}
}
