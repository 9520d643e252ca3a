package stats

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInt128(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   string
		exact  bool
	}{
		{name: "zero", values: nil, want: "0", exact: true},
		{name: "small positive", values: []int64{1, 2, 3}, want: "6", exact: true},
		{name: "negative", values: []int64{-5, 2}, want: "-3", exact: true},
		{name: "past int64", values: []int64{math.MaxInt64, math.MaxInt64, 2}, want: "18446744073709551616", exact: false},
		{name: "below int64", values: []int64{math.MinInt64, math.MinInt64}, want: "-18446744073709551616", exact: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acc Int128
			for _, v := range tt.values {
				acc = acc.AddInt64(v)
			}
			assert.Equal(t, tt.want, acc.String())
			_, ok := acc.Int64()
			assert.Equal(t, tt.exact, ok)
		})
	}
}

func TestInt128_Float64(t *testing.T) {
	assert.Equal(t, -5.0, FromInt64(-5).Float64())
	assert.Equal(t, 0x1p64, FromInt64(math.MaxInt64).AddInt64(math.MaxInt64).AddInt64(2).Float64())
	assert.Equal(t, 2.5, FromInt64(5).Quo(2))
	assert.True(t, math.IsNaN(Int128{}.Quo(0)))
}

func TestEmptyInput(t *testing.T) {
	_, err := Sum(nil)
	assert.True(t, errors.Is(err, ErrEmptySample))

	_, err = Mean([]int64{})
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Variance([]float64{}, 0)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = UnbiasedVariance([]float64{}, 0)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Median([]int64{}, false)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Quartile([]int64{}, false, 0.5)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		xs   []int64
		want float64
	}{
		{name: "single", xs: []int64{7}, want: 7},
		{name: "integers", xs: []int64{1, 2, 3, 4}, want: 2.5},
		{name: "rounded", xs: []int64{1, 1, 0}, want: 0.66666667},
		{name: "negatives", xs: []int64{-4, 4, -2}, want: -0.66666667},
		{name: "large", xs: []int64{math.MaxInt64, math.MaxInt64}, want: float64(math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mean(tt.xs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariance(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, err := Mean(xs)
	require.NoError(t, err)
	assert.Equal(t, 5.0, mean)

	v, err := Variance(xs, mean)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	uv, err := UnbiasedVariance(xs, mean)
	require.NoError(t, err)
	assert.InDelta(t, 32.0/7.0, uv, 1e-12)

	single, err := UnbiasedVariance([]float64{3}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, single)

	sd, err := StdDev(xs)
	require.NoError(t, err)
	assert.Equal(t, 2.0, sd)
}

func TestSortAscending(t *testing.T) {
	xs := []int64{5, -3, 0, 9, -3, 2}
	got := SortAscending(xs)

	assert.Equal(t, []int64{-3, -3, 0, 2, 5, 9}, got)
	assert.Equal(t, []int64{5, -3, 0, 9, -3, 2}, xs, "input must not be modified")
}

func TestMedian(t *testing.T) {
	odd, err := Median([]int64{9, 1, 5}, false)
	require.NoError(t, err)
	assert.Equal(t, 5.0, odd)

	even, err := Median([]int64{1, 2, 3, 4}, true)
	require.NoError(t, err)
	assert.Equal(t, 2.5, even)
}

func TestQuartile(t *testing.T) {
	data := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want float64
	}{
		{p: 0, want: 1},
		{p: 0.25, want: 3.25},
		{p: 0.5, want: 5.5},
		{p: 0.75, want: 7.75},
		{p: 1, want: 10},
	}
	for _, tt := range tests {
		got, err := Quartile(data, true, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}

	_, err := Quartile(data, true, 1.5)
	assert.ErrorIs(t, err, ErrPercentile)
}

func TestFilterOutliers(t *testing.T) {
	data := []int64{10, 11, 12, 11, 10, 12, 11, 100}

	mild := FilterOutliers(data, false, Mild)
	assert.Equal(t, []int64{10, 10, 11, 11, 11, 12, 12}, mild)

	short := []int64{1, 1000, 1000000}
	assert.Equal(t, short, FilterOutliers(short, false, Mild))

	strict := FilterOutliers([]int64{10, 11, 12, 13, 17}, true, Strict)
	assert.Equal(t, []int64{10, 11, 12, 13, 17}, strict)
}

func TestCoefficientOfVariation(t *testing.T) {
	cv, err := CoefficientOfVariation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, cv, 1e-12)

	_, err = CoefficientOfVariation([]int64{0, 0})
	assert.ErrorIs(t, err, ErrZeroMean)
}

func genSample(t *rapid.T, minLen int) []int64 {
	return rapid.SliceOfN(rapid.Int64Range(-1_000_000_000_000, 1_000_000_000_000), minLen, 100).Draw(t, "xs")
}

func TestProperty_MeanWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := genSample(t, 1)
		mean, err := Mean(xs)
		if err != nil {
			t.Fatalf("Mean: %v", err)
		}
		if lo, hi := slices.Min(xs), slices.Max(xs); mean < float64(lo) || mean > float64(hi) {
			t.Fatalf("mean %v outside [%d, %d]", mean, lo, hi)
		}
	})
}

func TestProperty_VarianceZeroIffConstant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := genSample(t, 1)
		if rapid.Bool().Draw(t, "constant") {
			for i := range xs {
				xs[i] = xs[0]
			}
		}
		mean, _ := Mean(xs)
		v, err := Variance(xs, mean)
		if err != nil {
			t.Fatalf("Variance: %v", err)
		}
		allEqual := slices.Min(xs) == slices.Max(xs)
		if (v == 0) != allEqual {
			t.Fatalf("variance %v, all equal %v", v, allEqual)
		}
	})
}

func TestProperty_MedianMatchesHalfQuartile(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := genSample(t, 1)
		m, _ := Median(xs, false)
		q, _ := Quartile(xs, false, 0.5)
		if m != q {
			t.Fatalf("median %v != quartile(0.5) %v", m, q)
		}
	})
}

func TestProperty_FilterOutliersShortIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfN(rapid.Int64(), 0, 3).Draw(t, "xs")
		got := FilterOutliers(xs, false, Mild)
		if !slices.Equal(got, xs) {
			t.Fatalf("FilterOutliers(%v) = %v", xs, got)
		}
	})
}

func TestProperty_FilterOutliersKeepsEvenlySpacedSample(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "start")
		step := rapid.Int64Range(0, 1_000_000).Draw(t, "step")
		n := rapid.IntRange(4, 100).Draw(t, "n")
		sensitivity := rapid.SampledFrom([]Sensitivity{Mild, Strict}).Draw(t, "sensitivity")

		// The fences of an arithmetic progression lie at or beyond its ends.
		want := make([]int64, n)
		for i := range want {
			want[i] = start + int64(i)*step
		}
		xs := rapid.Permutation(want).Draw(t, "xs")

		once := FilterOutliers(xs, false, sensitivity)
		if !slices.Equal(once, want) {
			t.Fatalf("FilterOutliers(%v) = %v, want %v", xs, once, want)
		}
		if twice := FilterOutliers(once, true, sensitivity); !slices.Equal(twice, once) {
			t.Fatalf("second pass changed: %v -> %v", once, twice)
		}
	})
}

func TestProperty_FilterOutliersSecondPassStaysInFirstBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := genSample(t, 4)
		sorted := SortAscending(xs)

		q1, _ := Quartile(sorted, true, 0.25)
		q3, _ := Quartile(sorted, true, 0.75)
		lower := q1 - float64(Mild)*(q3-q1)
		upper := q3 + float64(Mild)*(q3-q1)

		once := FilterOutliers(sorted, true, Mild)
		twice := FilterOutliers(once, true, Mild)
		if len(twice) > len(once) {
			t.Fatalf("second pass grew: %d -> %d", len(once), len(twice))
		}
		for _, x := range twice {
			if v := float64(x); v < lower || v > upper {
				t.Fatalf("value %d outside first-pass bounds [%v, %v]", x, lower, upper)
			}
			if !slices.Contains(once, x) {
				t.Fatalf("value %d not in first-pass result %v", x, once)
			}
		}
	})
}

func TestProperty_FilterOutliersKeepsSubset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := genSample(t, 4)
		got := FilterOutliers(xs, false, Strict)
		if len(got) == 0 || len(got) > len(xs) {
			t.Fatalf("unexpected filtered length %d of %d", len(got), len(xs))
		}
		if !slices.IsSorted(got) {
			t.Fatalf("result not sorted: %v", got)
		}
	})
}
