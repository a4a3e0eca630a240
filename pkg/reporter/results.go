package reporter

import (
	"time"

	messages "github.com/cucumber/messages/go/v21"
)

// StepResult holds the execution result of a single step.
type StepResult struct {
	// Text is the pickle step text.
	Text string

	// Status is the execution outcome.
	Status messages.TestStepResultStatus

	// Error is the failure message. Empty unless Status is FAILED.
	Error string

	// Duration is the wall-clock execution time. Zero for skipped steps.
	Duration time.Duration

	// MatchLocs holds pairs of [start, end] byte offsets for each captured
	// argument within Text. Nil unless exactly one definition matched.
	MatchLocs []int
}

// ScenarioResult holds the execution result of a single scenario.
type ScenarioResult struct {
	// URI is the feature file of the scenario.
	URI string

	// Name is the scenario name.
	Name string

	// Tags contains the tag names, including inherited ones.
	Tags []string

	// Status is the worst status of all steps.
	Status messages.TestStepResultStatus

	// Duration is the wall-clock time of the scenario including hooks.
	Duration time.Duration

	// Steps contains the result of every step, background steps included.
	Steps []StepResult
}

// Passed reports whether every step passed.
func (s ScenarioResult) Passed() bool {
	return s.Status == messages.TestStepResultStatus_PASSED
}

// Summary tracks test execution statistics.
type Summary struct {
	ScenariosTotal  int
	ScenariosPassed int
	ScenariosFailed int
	StepsTotal      int
	Steps           map[messages.TestStepResultStatus]int
}

// Add counts one scenario and its steps.
func (s *Summary) Add(scenario ScenarioResult) {
	if s.Steps == nil {
		s.Steps = make(map[messages.TestStepResultStatus]int)
	}

	s.ScenariosTotal++
	if scenario.Passed() {
		s.ScenariosPassed++
	} else {
		s.ScenariosFailed++
	}

	for _, step := range scenario.Steps {
		s.StepsTotal++
		s.Steps[step.Status]++
	}
}
