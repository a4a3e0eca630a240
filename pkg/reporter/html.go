package reporter

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	messages "github.com/cucumber/messages/go/v21"
)

// Report is everything the HTML report renders.
type Report struct {
	Scenarios []ScenarioResult
	Summary   Summary
	StartedAt time.Time
	Duration  time.Duration
}

// tagGroup holds scenarios sharing the same tag combination.
type tagGroup struct {
	TagLabel  string
	Duration  time.Duration
	Scenarios []ScenarioResult
}

// statusSection is the failed or the passed half of the report.
type statusSection struct {
	Label     string
	CSSClass  string
	Count     int
	Duration  time.Duration
	TagGroups []tagGroup
}

type reportData struct {
	Summary    Summary
	Duration   time.Duration
	ExecutedAt time.Time
	Sections   []statusSection
}

func sumDurations(scenarios []ScenarioResult) time.Duration {
	var total time.Duration
	for _, s := range scenarios {
		total += s.Duration
	}
	return total
}

// buildReportData puts failed scenarios before passed ones and groups each
// half by tag set.
func buildReportData(report Report) reportData {
	failed := make([]ScenarioResult, 0)
	passed := make([]ScenarioResult, 0)
	for _, s := range report.Scenarios {
		if s.Passed() {
			passed = append(passed, s)
		} else {
			failed = append(failed, s)
		}
	}

	var sections []statusSection
	if len(failed) > 0 {
		sections = append(sections, statusSection{
			Label:     "Failed Scenarios",
			CSSClass:  "failed",
			Count:     len(failed),
			Duration:  sumDurations(failed),
			TagGroups: groupByTags(failed),
		})
	}
	if len(passed) > 0 {
		sections = append(sections, statusSection{
			Label:     "Passed Scenarios",
			CSSClass:  "passed",
			Count:     len(passed),
			Duration:  sumDurations(passed),
			TagGroups: groupByTags(passed),
		})
	}

	return reportData{
		Summary:    report.Summary,
		Duration:   report.Duration,
		ExecutedAt: report.StartedAt,
		Sections:   sections,
	}
}

// groupByTags groups scenarios by their sorted tag set. The "Untagged" group
// comes last.
func groupByTags(scenarios []ScenarioResult) []tagGroup {
	groups := make(map[string][]ScenarioResult)
	for _, s := range scenarios {
		key := tagKey(s.Tags)
		groups[key] = append(groups[key], s)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]tagGroup, 0, len(keys))
	var untagged *tagGroup
	for _, k := range keys {
		tg := tagGroup{TagLabel: k, Duration: sumDurations(groups[k]), Scenarios: groups[k]}
		if k == "Untagged" {
			untagged = &tg
		} else {
			result = append(result, tg)
		}
	}
	if untagged != nil {
		result = append(result, *untagged)
	}
	return result
}

func tagKey(tags []string) string {
	if len(tags) == 0 {
		return "Untagged"
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// htmlParamColors cycle over the captured arguments of a step.
var htmlParamColors = []string{
	"#5C92FF",
	"#00CED1",
	"#E5C07B",
	"#C0A0FF",
	"#98C379",
}

// colorizeStepHTML escapes the step text and wraps every captured argument in
// a colored span.
func colorizeStepHTML(step StepResult) template.HTML {
	statusCls := stepStatusClass(step.Status)
	if len(step.MatchLocs) == 0 {
		return template.HTML(fmt.Sprintf(`<span class="step-text %s">%s</span>`, statusCls, html.EscapeString(step.Text)))
	}

	var b strings.Builder
	cursor := 0
	paramIdx := 0
	for i := 0; i+1 < len(step.MatchLocs); i += 2 {
		start, end := step.MatchLocs[i], step.MatchLocs[i+1]
		if start < cursor || end > len(step.Text) || start > end {
			continue
		}
		if cursor < start {
			fmt.Fprintf(&b, `<span class="step-text %s">%s</span>`, statusCls, html.EscapeString(step.Text[cursor:start]))
		}
		if step.Status == messages.TestStepResultStatus_SKIPPED {
			fmt.Fprintf(&b, `<span class="step-text skipped">%s</span>`, html.EscapeString(step.Text[start:end]))
		} else {
			fmt.Fprintf(&b, `<span class="step-param" style="color:%s">%s</span>`,
				htmlParamColors[paramIdx%len(htmlParamColors)], html.EscapeString(step.Text[start:end]))
		}
		paramIdx++
		cursor = end
	}
	if cursor < len(step.Text) {
		fmt.Fprintf(&b, `<span class="step-text %s">%s</span>`, statusCls, html.EscapeString(step.Text[cursor:]))
	}
	return template.HTML(b.String())
}

func stepStatusClass(s messages.TestStepResultStatus) string {
	switch s {
	case messages.TestStepResultStatus_PASSED:
		return "passed"
	case messages.TestStepResultStatus_FAILED, messages.TestStepResultStatus_AMBIGUOUS:
		return "failed"
	case messages.TestStepResultStatus_SKIPPED:
		return "skipped"
	default:
		return "undefined"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"statusClass":      stepStatusClass,
	"statusSymbol":     func(s messages.TestStepResultStatus) string { return styleOf(s).symbol },
	"statusLabel":      func(s messages.TestStepResultStatus) string { return styleOf(s).label },
	"colorizeStepText": colorizeStepHTML,
	"formatDuration":   formatDuration,
	"summaryClass": func(failed int) string {
		if failed > 0 {
			return "has-failures"
		}
		return "all-passed"
	},
	"scenarioClass": func(s ScenarioResult) string {
		if s.Passed() {
			return "passed"
		}
		return "failed"
	},
	"stepCount": func(summary Summary, label string) int {
		for _, s := range statusStyles {
			if s.style.label == label {
				return summary.Steps[s.status]
			}
		}
		return 0
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04:05")
	},
}).Parse(htmlTemplate))

// WriteHTMLReport renders a self-contained HTML report to w.
func WriteHTMLReport(w io.Writer, report Report) error {
	if err := reportTemplate.Execute(w, buildReportData(report)); err != nil {
		return fmt.Errorf("could not render HTML report: %w", err)
	}
	return nil
}

// GenerateHTMLReport writes the HTML report to path, creating missing parent
// directories.
func GenerateHTMLReport(path string, report Report) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create report directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report file %q: %w", path, err)
	}
	defer f.Close()

	return WriteHTMLReport(f, report)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>fake-cucumber report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f8f9fa; color: #212529; padding: 2rem; }
  h1 { font-size: 1.4rem; }
  .executed-at { font-size: 0.8rem; color: #868e96; margin-bottom: 1.5rem; }
  .summary { display: flex; gap: 1.5rem; padding: 1rem; background: #fff; border-radius: 8px; margin-bottom: 2rem; }
  .summary.all-passed { border: 2px solid #2b8a3e; }
  .summary.has-failures { border: 2px solid #c92a2a; }
  .summary .number { font-size: 1.6rem; font-weight: 700; text-align: center; }
  .summary .label { font-size: 0.7rem; text-transform: uppercase; color: #868e96; }
  .section-header.failed { color: #c92a2a; }
  .section-header.passed { color: #2b8a3e; }
  .tag-group { margin: 0.75rem 0 0.75rem 1rem; }
  .tag-label { font-weight: 600; color: #1864ab; }
  details.scenario { background: #fff; border-left: 4px solid #dee2e6; margin: 0.5rem 0; padding: 0.5rem 0.75rem; }
  details.scenario.failed { border-left-color: #c92a2a; }
  details.scenario.passed { border-left-color: #2b8a3e; }
  .uri, .duration { color: #868e96; font-size: 0.8rem; }
  ul.steps { list-style: none; padding-left: 1rem; font-family: monospace; }
  .symbol.passed, .step-text.passed { color: #2b8a3e; }
  .symbol.failed, .step-text.failed { color: #c92a2a; }
  .symbol.skipped, .step-text.skipped { color: #868e96; }
  .symbol.undefined, .step-text.undefined { color: #e67700; }
  .error { color: #c92a2a; white-space: pre-wrap; margin-left: 1.5rem; }
</style>
</head>
<body>
<h1>Test Execution Report</h1>
<div class="executed-at">{{formatTime .ExecutedAt}} · {{formatDuration .Duration}}</div>
<div class="summary {{summaryClass .Summary.ScenariosFailed}}">
  <div><div class="number">{{.Summary.ScenariosTotal}}</div><div class="label">Scenarios</div></div>
  <div><div class="number">{{.Summary.ScenariosPassed}}</div><div class="label">Passed</div></div>
  <div><div class="number">{{.Summary.ScenariosFailed}}</div><div class="label">Failed</div></div>
  <div><div class="number">{{.Summary.StepsTotal}}</div><div class="label">Steps</div></div>
  <div><div class="number">{{stepCount .Summary "skipped"}}</div><div class="label">Skipped steps</div></div>
  <div><div class="number">{{stepCount .Summary "undefined"}}</div><div class="label">Undefined steps</div></div>
</div>
{{range .Sections}}
<section>
  <h2 class="section-header {{.CSSClass}}">{{.Label}} ({{.Count}}) <span class="duration">{{formatDuration .Duration}}</span></h2>
  {{range .TagGroups}}
  <div class="tag-group">
    <div class="tag-label">{{.TagLabel}} <span class="duration">{{formatDuration .Duration}}</span></div>
    {{range .Scenarios}}
    <details class="scenario {{scenarioClass .}}"{{if not .Passed}} open{{end}}>
      <summary>{{.Name}} <span class="uri">{{.URI}}</span> <span class="duration">{{formatDuration .Duration}}</span></summary>
      <ul class="steps">
        {{range .Steps}}
        <li><span class="symbol {{statusClass .Status}}" title="{{statusLabel .Status}}">{{statusSymbol .Status}}</span> {{colorizeStepText .}}
          {{if .Error}}<div class="error">{{.Error}}</div>{{end}}</li>
        {{end}}
      </ul>
    </details>
    {{end}}
  </div>
  {{end}}
</section>
{{end}}
</body>
</html>
`
