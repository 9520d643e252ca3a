package compare

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var thresholdExpr = regexp.MustCompile(`^(\w+)\s*([<>=!]+)\s*(.+)$`)

// Expression is a parsed check such as "ratio < 1.5".
type Expression struct {
	Raw    string
	Metric string
	Op     string
	Value  float64
}

// ExpressionResult is the outcome of evaluating an Expression.
type ExpressionResult struct {
	ID         string
	Expression string
	Value      float64
	Passed     bool
	Message    string
}

// metrics that an expression may name.
var expressionMetrics = map[string]func(PerformanceResult) (float64, bool){
	"ratio": func(r PerformanceResult) (float64, bool) {
		if r.Ratio == nil {
			return 0, false
		}
		return *r.Ratio, true
	},
	"avg": func(r PerformanceResult) (float64, bool) { return r.CurrAverageNs, true },
	"prev": func(r PerformanceResult) (float64, bool) {
		if r.PrevAverageNs == nil {
			return 0, false
		}
		return *r.PrevAverageNs, true
	},
}

// ParseExpression parses an expression like "ratio < 1.5" or "avg <= 2ms".
// Values of avg and prev may carry a duration unit.
func ParseExpression(expr string) (Expression, error) {
	metric, op, valueStr, err := parseThresholdExpression(expr)
	if err != nil {
		return Expression{}, err
	}
	if _, ok := expressionMetrics[metric]; !ok {
		return Expression{}, fmt.Errorf("unknown metric: %s", metric)
	}
	if !validOp(op) {
		return Expression{}, fmt.Errorf("unknown operator: %s", op)
	}

	value, err := parseValue(metric, valueStr)
	if err != nil {
		return Expression{}, fmt.Errorf("failed to parse threshold value: %w", err)
	}
	return Expression{Raw: strings.TrimSpace(expr), Metric: metric, Op: op, Value: value}, nil
}

// Evaluate applies e to every result of report. Results without a previous
// value pass ratio and prev checks.
func (e Expression) Evaluate(report *PerformanceReport) []ExpressionResult {
	out := make([]ExpressionResult, 0, len(report.Results))
	get := expressionMetrics[e.Metric]

	for _, r := range report.Results {
		res := ExpressionResult{ID: r.ID, Expression: e.Raw, Passed: true}
		if v, ok := get(r); ok {
			res.Value = v
			res.Passed = compareValues(v, e.Op, e.Value)
			if !res.Passed {
				res.Message = fmt.Sprintf("%s is %.4g, threshold: %s %.4g", e.Metric, v, e.Op, e.Value)
			}
		}
		out = append(out, res)
	}
	return out
}

func parseValue(metric, s string) (float64, error) {
	if metric != "ratio" {
		if d, err := parseNs(s); err == nil {
			return d, nil
		}
	}
	return strconv.ParseFloat(s, 64)
}

// parseNs accepts a Go duration such as "1.5ms" and returns nanoseconds.
func parseNs(s string) (float64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return float64(d.Nanoseconds()), nil
}

// parseThresholdExpression parses an expression like "ratio < 1.5".
func parseThresholdExpression(expr string) (metric, op, value string, err error) {
	expr = strings.TrimSpace(expr)

	matches := thresholdExpr.FindStringSubmatch(expr)
	if len(matches) != 4 {
		return "", "", "", fmt.Errorf("invalid expression format: %s", expr)
	}

	return matches[1], matches[2], strings.TrimSpace(matches[3]), nil
}

func validOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "=", "!=", "<>":
		return true
	}
	return false
}

// compareValues compares two values using the given operator.
func compareValues(actual float64, op string, threshold float64) bool {
	switch op {
	case "<":
		return actual < threshold
	case "<=":
		return actual <= threshold
	case ">":
		return actual > threshold
	case ">=":
		return actual >= threshold
	case "==", "=":
		return actual == threshold
	case "!=", "<>":
		return actual != threshold
	default:
		return false
	}
}
