package output

import (
	"fmt"
	"math"
)

// FormatNs renders a nanosecond value with the largest unit that keeps it at
// or above 1, with three significant digits.
func FormatNs(ns float64) string {
	abs := math.Abs(ns)
	switch {
	case math.IsNaN(ns):
		return "-"
	case abs >= 1e9:
		return formatUnit(ns/1e9, "s")
	case abs >= 1e6:
		return formatUnit(ns/1e6, "ms")
	case abs >= 1e3:
		return formatUnit(ns/1e3, "us")
	default:
		return formatUnit(ns, "ns")
	}
}

func formatUnit(v float64, unit string) string {
	switch abs := math.Abs(v); {
	case abs >= 100:
		return fmt.Sprintf("%.0f %s", v, unit)
	case abs >= 10:
		return fmt.Sprintf("%.1f %s", v, unit)
	default:
		return fmt.Sprintf("%.2f %s", v, unit)
	}
}

// FormatRatio renders a curr/prev ratio, or "-" when there is none.
func FormatRatio(ratio *float64) string {
	if ratio == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fx", *ratio)
}
