package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/wesleyorama2/settle/bench"
	"github.com/wesleyorama2/settle/internal/compare"
)

// HTMLFormatter renders a standalone HTML report with a chart of averages.
type HTMLFormatter struct{}

// htmlData contains all data needed to render the HTML report.
type htmlData struct {
	*Document
	ChartJSON template.JS
}

// chartPoint is one bar of the averages chart.
type chartPoint struct {
	ID        string   `json:"id"`
	AverageNs float64  `json:"averageNs"`
	PrevNs    *float64 `json:"prevNs,omitempty"`
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatNs":     FormatNs,
	"formatRatio":  FormatRatio,
	"formatNumber": formatNumber,
	"shortSha":     shortSha,
	"percentile":   percentile,
	"ratioClass":   ratioClass,
}).Parse(htmlTemplate))

// Format implements FormatProvider.
func (f *HTMLFormatter) Format(doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document cannot be nil")
	}

	chart, err := chartJSON(doc)
	if err != nil {
		return "", fmt.Errorf("failed to convert chart data: %w", err)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, htmlData{Document: doc, ChartJSON: template.JS(chart)}); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func chartJSON(doc *Document) (string, error) {
	prev := make(map[string]*float64)
	if doc.Comparison != nil {
		for _, r := range doc.Comparison.Results {
			prev[r.ID] = r.PrevAverageNs
		}
	}

	points := make([]chartPoint, len(doc.Results))
	for i, r := range doc.Results {
		points[i] = chartPoint{ID: r.ID, AverageNs: r.AverageNs, PrevNs: prev[r.ID]}
	}

	data, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// percentile renders the p50 or p99 of r, or "-" without a histogram.
func percentile(r *bench.Result, name string) string {
	p := r.Percentiles
	if p == nil || p.Count == 0 {
		return "-"
	}
	if name == "p99" {
		return FormatNs(float64(p.P99))
	}
	return FormatNs(float64(p.P50))
}

func ratioClass(r compare.PerformanceResult) string {
	switch {
	case r.IsFailed:
		return "regressed"
	case r.IsImproved:
		return "improved"
	default:
		return ""
	}
}

// formatNumber formats a large number with commas.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var out []byte
	for i := range len(str) {
		if i > 0 && (len(str)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, str[i])
	}
	return string(out)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Benchmark report{{if .CommitSha}} - {{shortSha .CommitSha}}{{end}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }
        .container { max-width: 1100px; margin: 0 auto; padding: 2rem; }
        header { margin-bottom: 1.5rem; }
        header .meta { color: var(--text-secondary); font-size: 0.9rem; }
        .card {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            box-shadow: var(--shadow);
            padding: 1.25rem;
            margin-bottom: 1.5rem;
        }
        h2 { font-size: 1.1rem; margin-bottom: 0.75rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { padding: 0.5rem; border-bottom: 1px solid var(--border-color); text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        th { color: var(--text-secondary); font-weight: 600; }
        .regressed { color: var(--accent-error); font-weight: 600; }
        .improved { color: var(--accent-success); font-weight: 600; }
        .error { color: var(--accent-error); }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>Benchmark report</h1>
        <div class="meta">
            {{if .CommitSha}}commit <code>{{shortSha .CommitSha}}</code>{{end}}
            {{if .Branch}}on <code>{{.Branch}}</code>{{end}}
            &middot; {{.Timestamp}}{{if .RunID}} &middot; run {{.RunID}}{{end}}
        </div>
    </header>

    <section class="card">
        <h2>Results</h2>
        <table>
            <thead><tr><th>id</th><th>average</th><th>runs</th><th>total</th><th>p50</th><th>p99</th></tr></thead>
            <tbody>
            {{range .Results}}
                <tr><td>{{.ID}}</td><td>{{formatNs .AverageNs}}</td><td>{{formatNumber .Runs}}</td><td>{{.TotalMs}} ms</td><td>{{percentile . "p50"}}</td><td>{{percentile . "p99"}}</td></tr>
            {{else}}
                <tr><td colspan="6">no results</td></tr>
            {{end}}
            </tbody>
        </table>
    </section>

    {{if .Results}}
    <section class="card">
        <h2>Averages</h2>
        <canvas id="averages" height="120"></canvas>
    </section>
    {{end}}

    {{if .Failures}}
    <section class="card">
        <h2>Failures</h2>
        <ul>
        {{range .Failures}}<li><strong>{{.ID}}</strong>: <span class="error">{{.Error}}</span></li>{{end}}
        </ul>
    </section>
    {{end}}

    {{with .Comparison}}{{if .PrevCommitSha}}
    <section class="card">
        <h2>Comparison with {{shortSha .PrevCommitSha}}</h2>
        <table>
            <thead><tr><th>id</th><th>current</th><th>previous</th><th>ratio</th><th>threshold</th></tr></thead>
            <tbody>
            {{range .Results}}
                <tr>
                    <td>{{.ID}}</td>
                    <td>{{formatNs .CurrAverageNs}}</td>
                    <td>{{if .PrevAverageNs}}{{formatNs .PrevAverageNs}}{{else}}-{{end}}</td>
                    <td class="{{ratioClass .}}">{{formatRatio .Ratio}}</td>
                    <td>{{printf "%.2fx" .Threshold}}</td>
                </tr>
            {{end}}
            </tbody>
        </table>
    </section>
    {{end}}{{end}}
</div>
<script>
    const points = {{.ChartJSON}};
    if (points.length > 0 && window.Chart) {
        const datasets = [{ label: 'current (ns)', data: points.map(p => p.averageNs), backgroundColor: '#3b82f6' }];
        if (points.some(p => p.prevNs !== undefined)) {
            datasets.push({ label: 'previous (ns)', data: points.map(p => p.prevNs ?? null), backgroundColor: '#94a3b8' });
        }
        new Chart(document.getElementById('averages'), {
            type: 'bar',
            data: { labels: points.map(p => p.id), datasets: datasets },
            options: { scales: { y: { type: 'logarithmic' } } }
        });
    }
</script>
</body>
</html>
`
