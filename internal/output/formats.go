package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/settle/bench"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
	// FormatJUnit outputs in JUnit XML format (for CI/CD integration)
	FormatJUnit OutputFormat = "junit"
	// FormatHTML outputs a standalone HTML report
	FormatHTML OutputFormat = "html"
)

// Formats lists every supported format.
func Formats() []OutputFormat {
	return []OutputFormat{FormatText, FormatJSON, FormatYAML, FormatJUnit, FormatHTML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (OutputFormat, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml, junit, html)", s)
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	Format(doc *Document) (string, error)
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format implements FormatProvider.
func (f *JSONFormatter) Format(doc *Document) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return string(data) + "\n", nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

// Format implements FormatProvider.
func (f *YAMLFormatter) Format(doc *Document) (string, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return string(data), nil
}

// JUnitFormatter reports each benchmark as a test case. A benchmark fails
// when it errored or regressed past its threshold.
type JUnitFormatter struct {
	SuiteName string
}

// JUnitTestSuites represents the root element containing all test suites
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a JUnit test suite
type JUnitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a JUnit test case
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitFailure `xml:"error,omitempty"`
	Skipped   *struct{}     `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a JUnit test failure
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Format implements FormatProvider.
func (f *JUnitFormatter) Format(doc *Document) (string, error) {
	name := f.SuiteName
	if name == "" {
		name = "settle"
	}
	ts := JUnitTestSuite{Name: name, Timestamp: doc.Timestamp}

	regressions := make(map[string]string)
	if doc.Comparison != nil {
		for _, r := range doc.Comparison.Failed() {
			regressions[r.ID] = fmt.Sprintf("%s is %s slower than %s (threshold %.2fx)",
				r.ID, FormatRatio(r.Ratio), shortSha(doc.Comparison.PrevCommitSha), r.Threshold)
		}
	}

	for _, r := range doc.Results {
		tc := JUnitTestCase{
			Name:      r.ID,
			Classname: "settle." + name,
			Time:      float64(r.TotalMs) / 1000.0,
			SystemOut: resultLine(r),
		}
		if msg, ok := regressions[r.ID]; ok {
			tc.Failure = &JUnitFailure{Message: msg, Type: "Regression", Content: msg}
			ts.Failures++
		}
		ts.Time += tc.Time
		ts.TestCases = append(ts.TestCases, tc)
	}

	for _, failure := range doc.Failures {
		ts.TestCases = append(ts.TestCases, JUnitTestCase{
			Name:      failure.ID,
			Classname: "settle." + name,
			Error:     &JUnitFailure{Message: failure.Error, Type: "BenchmarkError", Content: failure.Error},
		})
		ts.Errors++
	}

	for _, id := range doc.Skipped {
		ts.TestCases = append(ts.TestCases, JUnitTestCase{
			Name:      id,
			Classname: "settle." + name,
			Skipped:   &struct{}{},
		})
		ts.Skipped++
	}
	ts.Tests = len(ts.TestCases)

	out, err := xml.MarshalIndent(JUnitTestSuites{TestSuites: []JUnitTestSuite{ts}}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JUnit output: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func resultLine(r *bench.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "average=%s runs=%d totalMs=%d", FormatNs(r.AverageNs), r.Runs, r.TotalMs)
	if p := r.Percentiles; p != nil {
		fmt.Fprintf(&b, " p50=%s p99=%s", FormatNs(float64(p.P50)), FormatNs(float64(p.P99)))
	}
	return b.String()
}

func shortSha(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatJUnit:
		return &JUnitFormatter{SuiteName: "benchmarks"}
	case FormatHTML:
		return &HTMLFormatter{}
	default:
		return NewConsole(noColor)
	}
}
