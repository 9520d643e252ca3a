package bench

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/settle/bench/termination"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()

	assert.Equal(t, Unlimited, o.MaxRuns)
	assert.Equal(t, 1, o.MinRuns)
	assert.Equal(t, NoDeadline, o.MaxDuration)
	assert.Equal(t, 100*time.Millisecond, o.MinDuration)
	assert.Equal(t, 500*time.Millisecond, o.MaxWarmupDuration)
	assert.Equal(t, 1000, o.MaxWarmupRuns)
	assert.Equal(t, 0.005, o.ConvergeFactor)
	assert.Equal(t, 1, o.RunsDivisor)
	assert.False(t, o.YieldAfterEach)
	assert.Equal(t, 10*time.Second, o.HardTimeout)
	assert.Equal(t, termination.KindLinear, o.Termination)
	assert.Equal(t, AveragingSimple, o.Averaging)
	assert.Equal(t, 2.0, o.Threshold)

	require.NoError(t, o.Validate())
}

func TestMerge_LaterLayersWin(t *testing.T) {
	global := Overrides{MaxRuns: Ptr(100), MinRuns: Ptr(10), Threshold: Ptr(3.0)}
	outer := Overrides{MinRuns: Ptr(20), Termination: Ptr(termination.KindCV)}
	inner := Overrides{MinRuns: Ptr(30)}
	call := Overrides{YieldAfterEach: Ptr(true)}

	o := Merge(DefaultOptions(), global, outer, inner, call)

	assert.Equal(t, 100, o.MaxRuns, "set only by the global layer")
	assert.Equal(t, 30, o.MinRuns, "innermost scope wins")
	assert.Equal(t, termination.KindCV, o.Termination)
	assert.Equal(t, 3.0, o.Threshold)
	assert.True(t, o.YieldAfterEach)
	assert.Equal(t, 100*time.Millisecond, o.MinDuration, "untouched fields keep the base value")
}

func TestMerge_NoLayers(t *testing.T) {
	assert.Equal(t, DefaultOptions(), Merge(DefaultOptions()))
}

func TestEffectiveHardTimeout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   time.Duration
	}{
		{"default", func(o *Options) {}, 10 * time.Second},
		{"disabled", func(o *Options) { o.HardTimeout = 0 }, 0},
		{"max duration below timeout", func(o *Options) { o.MaxDuration = 5 * time.Second }, 10 * time.Second},
		{"max duration above timeout", func(o *Options) { o.MaxDuration = 20 * time.Second }, 30 * time.Second},
		{"min duration above timeout", func(o *Options) { o.MinDuration = 12 * time.Second }, 18 * time.Second},
		{"min duration below raised timeout", func(o *Options) {
			o.MaxDuration = 20 * time.Second
			o.MinDuration = 15 * time.Second
		}, 30 * time.Second},
		{"min duration above raised timeout", func(o *Options) {
			o.MaxDuration = 20 * time.Second
			o.MinDuration = 40 * time.Second
		}, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			assert.Equal(t, tt.want, o.EffectiveHardTimeout())
		})
	}
}

func TestThresholdValue(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 2.0, o.ThresholdValue())

	o.NoThreshold = true
	assert.Equal(t, math.MaxFloat64, o.ThresholdValue())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		fields []string
	}{
		{"warm-up duration equals max duration", func(o *Options) {
			o.MaxDuration = 500 * time.Millisecond
		}, []string{"maxWarmupDuration"}},
		{"warm-up runs above max runs", func(o *Options) {
			o.MaxRuns = 10
		}, []string{"maxWarmupRuns"}},
		{"zero warm-up duration still bounded by runs", func(o *Options) {
			o.MaxWarmupDuration = 0
			o.MaxRuns = 10
			o.MaxWarmupRuns = 10
		}, []string{"maxWarmupRuns"}},
		{"zero warm-up runs still bounded by duration", func(o *Options) {
			o.MaxDuration = 0
			o.MaxWarmupDuration = 0
			o.MaxWarmupRuns = 0
		}, []string{"maxWarmupDuration"}},
		{"warm-up disabled within bounds", func(o *Options) {
			o.MaxRuns = 10
			o.MaxDuration = time.Second
			o.MaxWarmupRuns = 0
		}, nil},
		{"unknown strategy", func(o *Options) {
			o.Termination = "fastest"
		}, []string{"termination"}},
		{"unknown averaging", func(o *Options) {
			o.Averaging = "median"
		}, []string{"averaging"}},
		{"converge factor out of range", func(o *Options) {
			o.ConvergeFactor = 0
		}, []string{"convergeFactor"}},
		{"several problems", func(o *Options) {
			o.MaxRuns = 0
			o.RunsDivisor = 0
			o.WarmupBudgetRatio = 2
		}, []string{"maxRuns", "runsDivisor", "warmupBudgetRatio", "maxWarmupRuns"}},
		{"no threshold ignores threshold", func(o *Options) {
			o.Threshold = 0
			o.NoThreshold = true
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)

			err := o.Validate()
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected *ValidationErrors, got %T", err)

			var got []string
			for _, e := range verrs.Errors {
				got = append(got, e.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestValidationErrors_Merge(t *testing.T) {
	inner := &ValidationErrors{}
	inner.Add("maxRuns", "must be at least 1")

	outer := &ValidationErrors{}
	outer.Merge("scopes.fast", inner)
	outer.Merge("", inner)
	outer.Merge("ignored", nil)

	require.Len(t, outer.Errors, 2)
	assert.Equal(t, "scopes.fast.maxRuns", outer.Errors[0].Field)
	assert.Equal(t, "maxRuns", outer.Errors[1].Field)
	assert.Contains(t, outer.Error(), "2 validation errors")
}
