package compare

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// DefaultAlpha is the significance level used by Samples.
const DefaultAlpha = 0.05

// SampleComparison is the outcome of comparing two raw sample sets.
type SampleComparison struct {
	N1 int `json:"n1"`
	N2 int `json:"n2"`

	MedianA float64 `json:"medianA"`
	MedianB float64 `json:"medianB"`

	// Ratio is MedianB / MedianA.
	Ratio float64 `json:"ratio"`

	// UTestP is the two-sided Mann-Whitney U test p-value. It is 1 when
	// both samples are identical constants.
	UTestP float64 `json:"uTestP"`

	// TTestP is Welch's t-test p-value, NaN when it could not be computed.
	TTestP float64 `json:"-"`

	Alpha       float64 `json:"alpha"`
	Significant bool    `json:"significant"`
}

// MarshalJSON writes TTestP as null when it is NaN.
func (c SampleComparison) MarshalJSON() ([]byte, error) {
	type plain SampleComparison
	out := struct {
		plain
		TTestP *float64 `json:"tTestP"`
	}{plain: plain(c)}
	if !math.IsNaN(c.TTestP) {
		out.TTestP = &c.TTestP
	}
	return json.Marshal(out)
}

// Samples compares two sample sets, in nanoseconds, with a two-sided
// Mann-Whitney U test. alpha <= 0 selects DefaultAlpha.
func Samples(a, b []int64, alpha float64) (*SampleComparison, error) {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("cannot compare empty samples (%d vs %d values)", len(a), len(b))
	}

	sa := toSample(a)
	sb := toSample(b)

	out := &SampleComparison{
		N1:      len(a),
		N2:      len(b),
		MedianA: sa.Quantile(0.5),
		MedianB: sb.Quantile(0.5),
		Alpha:   alpha,
		TTestP:  math.NaN(),
	}
	if out.MedianA != 0 {
		out.Ratio = out.MedianB / out.MedianA
	}

	u, err := stats.MannWhitneyUTest(sa.Xs, sb.Xs, stats.LocationDiffers)
	switch {
	case errors.Is(err, stats.ErrSamplesEqual):
		out.UTestP = 1
	case err != nil:
		return nil, fmt.Errorf("u-test failed: %w", err)
	case math.IsNaN(u.P):
		// The normal approximation degenerates for large constant samples.
		out.UTestP = 1
	default:
		out.UTestP = u.P
	}

	if t, err := stats.TwoSampleWelchTTest(sa, sb, stats.LocationDiffers); err == nil {
		out.TTestP = t.P
	}

	out.Significant = out.UTestP < alpha
	return out, nil
}

func toSample(xs []int64) *stats.Sample {
	s := &stats.Sample{Xs: make([]float64, len(xs))}
	for i, x := range xs {
		s.Xs[i] = float64(x)
	}
	return s.Sort()
}
