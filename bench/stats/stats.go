// Package stats implements the statistics primitives used by the termination
// strategies and the final average computation.
//
// All functions are pure. Functions that reduce a sample to a number return
// ErrEmptySample for empty input instead of a zero value, so callers have to
// guard the empty case explicitly.
package stats

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strconv"
)

// MaxFraction is the number of fractional digits kept by Mean.
const MaxFraction = 8

var (
	// ErrEmptySample is returned when a reduction receives no values.
	ErrEmptySample = errors.New("stats: empty sample")

	// ErrPercentile is returned for percentiles outside [0, 1].
	ErrPercentile = errors.New("stats: percentile must be within [0, 1]")

	// ErrZeroMean is returned when a ratio to the mean is undefined.
	ErrZeroMean = errors.New("stats: mean is zero")
)

// Number is the set of sample element types.
type Number interface {
	~int64 | ~float64
}

// Sensitivity is the IQR multiplier used by FilterOutliers.
type Sensitivity float64

const (
	// Mild removes typical anomalies such as short CPU spikes.
	Mild Sensitivity = 1.5

	// Strict only removes extreme deviations.
	Strict Sensitivity = 3.0
)

// RoundDecimal rounds x to MaxFraction fractional digits.
func RoundDecimal(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', MaxFraction, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// Sum returns the exact total of xs.
func Sum(xs []int64) (Int128, error) {
	if len(xs) == 0 {
		return Int128{}, ErrEmptySample
	}
	var acc Int128
	for _, x := range xs {
		acc = acc.AddInt64(x)
	}
	return acc, nil
}

// Mean returns the arithmetic mean of xs rounded to MaxFraction digits.
// Integer samples are accumulated exactly before the division.
func Mean[T Number](xs []T) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	return RoundDecimal(total(xs) / float64(len(xs))), nil
}

// Variance returns the biased population variance Σ(x-mean)²/n.
func Variance[T Number](xs []T, mean float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	return squaredDeviations(xs, mean) / float64(len(xs)), nil
}

// UnbiasedVariance divides by n-1 when n >= 2 and falls back to the biased
// value for a single sample.
func UnbiasedVariance[T Number](xs []T, mean float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	base := squaredDeviations(xs, mean)
	if len(xs) < 2 {
		return base / float64(len(xs)), nil
	}
	return base / float64(len(xs)-1), nil
}

// StdDev returns the population standard deviation of xs.
func StdDev[T Number](xs []T) (float64, error) {
	mean, err := Mean(xs)
	if err != nil {
		return 0, err
	}
	v, err := Variance(xs, mean)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// CoefficientOfVariation returns stddev/mean of xs.
func CoefficientOfVariation[T Number](xs []T) (float64, error) {
	mean, err := Mean(xs)
	if err != nil {
		return 0, err
	}
	if mean == 0 {
		return 0, ErrZeroMean
	}
	v, err := Variance(xs, mean)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v) / mean, nil
}

// SortAscending returns a sorted copy of xs. The input is not modified.
func SortAscending[T Number](xs []T) []T {
	out := slices.Clone(xs)
	slices.SortStableFunc(out, cmp.Compare[T])
	return out
}

// Median returns the middle value of xs, averaging the two central values
// when the length is even. Pass sorted=true to skip sorting.
func Median[T Number](xs []T, sorted bool) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	data := xs
	if !sorted {
		data = SortAscending(xs)
	}
	mid := len(data) / 2
	if len(data)%2 == 0 {
		return (float64(data[mid-1]) + float64(data[mid])) / 2, nil
	}
	return float64(data[mid]), nil
}

// Quartile returns the p-quantile of xs using linear interpolation between
// neighbouring ranks.
func Quartile[T Number](xs []T, sorted bool, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, ErrPercentile
	}
	data := xs
	if !sorted {
		data = SortAscending(xs)
	}

	index := float64(len(data)-1) * p
	floor := int(math.Floor(index))
	fraction := index - float64(floor)

	if floor+1 < len(data) {
		lo := float64(data[floor])
		return lo + fraction*(float64(data[floor+1])-lo), nil
	}
	return float64(data[floor]), nil
}

// FilterOutliers drops values outside [Q1 - k·IQR, Q3 + k·IQR] where k is the
// sensitivity. Samples shorter than 4 values are returned as is. The result
// is in ascending order.
func FilterOutliers[T Number](xs []T, sorted bool, sensitivity Sensitivity) []T {
	if len(xs) < 4 {
		return xs
	}
	data := xs
	if !sorted {
		data = SortAscending(xs)
	}

	// Non-empty input, so the quartile errors cannot occur.
	q1, _ := Quartile(data, true, 0.25)
	q3, _ := Quartile(data, true, 0.75)
	iqr := q3 - q1
	lower := q1 - float64(sensitivity)*iqr
	upper := q3 + float64(sensitivity)*iqr

	out := make([]T, 0, len(data))
	for _, x := range data {
		if v := float64(x); v >= lower && v <= upper {
			out = append(out, x)
		}
	}
	return out
}

func total[T Number](xs []T) float64 {
	if isInteger[T]() {
		var acc Int128
		for _, x := range xs {
			acc = acc.AddInt64(int64(x))
		}
		return acc.Float64()
	}
	var s float64
	for _, x := range xs {
		s += float64(x)
	}
	return s
}

func squaredDeviations[T Number](xs []T, mean float64) float64 {
	var base float64
	for _, x := range xs {
		d := float64(x) - mean
		base += d * d
	}
	return base
}

func isInteger[T Number]() bool {
	one := T(1)
	return one/2 == 0
}
