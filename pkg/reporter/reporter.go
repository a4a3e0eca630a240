// Package reporter prints human readable scenario results.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	messages "github.com/cucumber/messages/go/v21"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"

	colorKeyword = "\033[38;2;207;142;109m" // #CF8E6D
	colorText    = "\033[38;2;188;190;196m" // #BCBEC4
	colorParam   = "\033[38;2;92;146;255m"  // #5C92FF
	colorSkipped = "\033[38;2;111;115;122m" // #6F737A
)

type statusStyle struct {
	symbol string
	color  string
	label  string
}

// summary order matches the order statuses are printed in
var statusStyles = []struct {
	status messages.TestStepResultStatus
	style  statusStyle
}{
	{messages.TestStepResultStatus_PASSED, statusStyle{"✓", colorGreen, "passed"}},
	{messages.TestStepResultStatus_FAILED, statusStyle{"✗", colorRed, "failed"}},
	{messages.TestStepResultStatus_AMBIGUOUS, statusStyle{"✗", colorRed, "ambiguous"}},
	{messages.TestStepResultStatus_UNDEFINED, statusStyle{"?", colorYellow, "undefined"}},
	{messages.TestStepResultStatus_PENDING, statusStyle{"?", colorYellow, "pending"}},
	{messages.TestStepResultStatus_SKIPPED, statusStyle{"-", colorCyan, "skipped"}},
}

func styleOf(status messages.TestStepResultStatus) statusStyle {
	for _, s := range statusStyles {
		if s.status == status {
			return s.style
		}
	}
	return statusStyle{"?", colorYellow, strings.ToLower(status.String())}
}

// Reporter receives finished scenarios.
type Reporter interface {
	ScenarioFinished(scenario ScenarioResult)
	PrintSummary()
	Summary() Summary
}

// ConsoleReporter prints colored scenario blocks. Each scenario is written
// in one piece, so output of concurrently run scenarios never interleaves.
type ConsoleReporter struct {
	out       io.Writer
	useColors bool

	mu      sync.Mutex
	summary Summary
}

// NewConsoleReporter creates a reporter writing to out.
func NewConsoleReporter(out io.Writer, useColors bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:       out,
		useColors: useColors,
	}
}

func (r *ConsoleReporter) color(c, s string) string {
	if r.useColors {
		return c + s + colorReset
	}
	return s
}

// ScenarioFinished prints the scenario with all of its steps and counts it.
func (r *ConsoleReporter) ScenarioFinished(scenario ScenarioResult) {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s %s\n",
		r.color(colorKeyword, "Scenario:"),
		r.color(colorText, scenario.Name),
		r.color(colorSkipped, "# "+scenario.URI))

	for _, step := range scenario.Steps {
		r.writeStep(&b, step)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Add(scenario)
	io.WriteString(r.out, b.String())
}

func (r *ConsoleReporter) writeStep(b *strings.Builder, step StepResult) {
	style := styleOf(step.Status)

	text := r.colorizeStepText(step.Text, step.MatchLocs)
	if step.Status == messages.TestStepResultStatus_SKIPPED {
		text = r.color(colorSkipped, step.Text)
	}
	fmt.Fprintf(b, "  %s %s\n", r.color(style.color, style.symbol), text)

	if step.Error != "" {
		for _, line := range strings.Split(step.Error, "\n") {
			b.WriteString(r.color(colorRed, "      "+line) + "\n")
		}
	}
}

// colorizeStepText applies the text color to the entire step text, but
// overrides capture-group regions with the parameter color when matchLocs
// is non-nil.
func (r *ConsoleReporter) colorizeStepText(text string, matchLocs []int) string {
	if !r.useColors || len(matchLocs) < 2 {
		return r.color(colorText, text)
	}

	var b strings.Builder
	prev := 0
	for i := 0; i+1 < len(matchLocs); i += 2 {
		start, end := matchLocs[i], matchLocs[i+1]
		if start < prev || end > len(text) || start >= end {
			continue
		}
		if start > prev {
			b.WriteString(colorText + text[prev:start] + colorReset)
		}
		b.WriteString(colorParam + text[start:end] + colorReset)
		prev = end
	}
	if prev < len(text) {
		b.WriteString(colorText + text[prev:] + colorReset)
	}
	return b.String()
}

// Summary returns the current summary statistics.
func (r *ConsoleReporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := r.summary
	summary.Steps = make(map[messages.TestStepResultStatus]int, len(r.summary.Steps))
	for status, count := range r.summary.Steps {
		summary.Steps[status] = count
	}
	return summary
}

// PrintSummary prints the final test summary.
func (r *ConsoleReporter) PrintSummary() {
	summary := r.Summary()

	var b strings.Builder
	b.WriteString("\n")

	scenarioLine := fmt.Sprintf("%d scenario(s)", summary.ScenariosTotal)
	parts := []string{}
	if summary.ScenariosPassed > 0 {
		parts = append(parts, r.color(colorGreen, fmt.Sprintf("%d passed", summary.ScenariosPassed)))
	}
	if summary.ScenariosFailed > 0 {
		parts = append(parts, r.color(colorRed, fmt.Sprintf("%d failed", summary.ScenariosFailed)))
	}
	if len(parts) > 0 {
		scenarioLine += " (" + strings.Join(parts, ", ") + ")"
	}
	b.WriteString(scenarioLine + "\n")

	stepLine := fmt.Sprintf("%d step(s)", summary.StepsTotal)
	parts = parts[:0]
	for _, s := range statusStyles {
		if count := summary.Steps[s.status]; count > 0 {
			parts = append(parts, r.color(s.style.color, fmt.Sprintf("%d %s", count, s.style.label)))
		}
	}
	if len(parts) > 0 {
		stepLine += " (" + strings.Join(parts, ", ") + ")"
	}
	b.WriteString(stepLine + "\n")

	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.out, b.String())
}

// noopReporter discards all output
type noopReporter struct {
	mu      sync.Mutex
	summary Summary
}

// NewNoopReporter creates a reporter that discards all output but still
// counts results.
func NewNoopReporter() Reporter {
	return &noopReporter{}
}

func (r *noopReporter) ScenarioFinished(scenario ScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Add(scenario)
}

func (r *noopReporter) PrintSummary() {}

func (r *noopReporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}
