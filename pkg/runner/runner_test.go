package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/reporter"
	"github.com/denizgursoy/fake-cucumber/pkg/stepdef"
	"github.com/denizgursoy/fake-cucumber/pkg/support"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const cukesFeature = `Feature: Cukes

  @passing
  Scenario: Passing
    Given I have 3 cukes
    When I eat 2 cukes

  @failing
  Scenario: Failing
    Given I have 3 cukes
    When a failed step
    Then I have 1 cukes left

  @undefined
  Scenario: Undefined
    Given an undefined step
    Then I have 1 cukes left

  @ambiguous
  Scenario: Ambiguous
    Given an ambiguous step
`

// envelopeRecorder collects every envelope a run produces.
type envelopeRecorder struct {
	mu        sync.Mutex
	envelopes []*messages.Envelope
}

func (r *envelopeRecorder) Handle(envelope *messages.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, envelope)
	return nil
}

func (r *envelopeRecorder) stepStatuses() []messages.TestStepResultStatus {
	statuses := make([]messages.TestStepResultStatus, 0)
	for _, envelope := range r.envelopes {
		if envelope.TestStepFinished != nil {
			statuses = append(statuses, envelope.TestStepFinished.TestStepResult.Status)
		}
	}
	return statuses
}

func writeFeature(t *testing.T, content string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cukes.feature"), []byte(content), 0o644))
	return dir
}

func cukesRunner(dir string, recorder *envelopeRecorder) *CucumberRunner {
	return NewCucumberRunner().
		WithFeaturesDirectories(dir).
		WithIdGenerator((&messages.Incrementing{}).NewId).
		WithEnvelopeHandler(recorder).
		RegisterStep(`^I have (\d+) cukes$`, func(int) {}).
		RegisterStep(`^I eat (\d+) cukes$`, func(int) {}).
		RegisterStep(`^I have (\d+) cukes left$`, func(int) {}).
		RegisterStep(`^a failed step$`, func() error { return errors.New("This step has failed") }).
		RegisterStep(`^an ambiguous step$`, func() {}).
		RegisterStep(`^an ambiguous (.*)$`, func(string) {})
}

func TestCucumberRunner_RegisterStep(t *testing.T) {
	t.Run("returns error for duplicate pattern", func(t *testing.T) {
		_, err := NewCucumberRunner().
			WithFeaturesDirectories(t.TempDir()).
			RegisterStep("^test$", func() {}).
			RegisterStep("^test$", func() {}).
			Run(context.Background())
		require.ErrorIs(t, err, ErrDuplicateStep)
	})

	t.Run("returns error for invalid regex before running anything", func(t *testing.T) {
		recorder := &envelopeRecorder{}
		_, err := NewCucumberRunner().
			WithFeaturesDirectories(writeFeature(t, cukesFeature)).
			WithEnvelopeHandler(recorder).
			RegisterStep("[invalid", func() {}).
			Run(context.Background())
		require.ErrorIs(t, err, stepdef.ErrInvalidPattern)
		require.Empty(t, recorder.envelopes)
	})

	t.Run("returns error when the function does not take the captured arguments", func(t *testing.T) {
		_, err := NewCucumberRunner().
			WithFeaturesDirectories(t.TempDir()).
			RegisterStep(`^I have (\d+) cukes$`, func() {}).
			Run(context.Background())
		require.ErrorIs(t, err, stepdef.ErrArityMismatch)
	})
}

func TestCucumberRunner_Run(t *testing.T) {
	t.Run("reports each step outcome", func(t *testing.T) {
		recorder := &envelopeRecorder{}
		result, err := cukesRunner(writeFeature(t, cukesFeature), recorder).Run(context.Background())
		require.NoError(t, err)

		require.False(t, result.Success)
		require.Equal(t, []messages.TestStepResultStatus{
			messages.TestStepResultStatus_PASSED,
			messages.TestStepResultStatus_PASSED,

			messages.TestStepResultStatus_PASSED,
			messages.TestStepResultStatus_FAILED,
			messages.TestStepResultStatus_SKIPPED,

			messages.TestStepResultStatus_UNDEFINED,
			messages.TestStepResultStatus_SKIPPED,

			messages.TestStepResultStatus_AMBIGUOUS,
		}, recorder.stepStatuses())

		require.Len(t, result.Scenarios, 4)
		require.Equal(t, messages.TestStepResultStatus_PASSED, result.Scenarios[0].Status)
		require.Equal(t, messages.TestStepResultStatus_FAILED, result.Scenarios[1].Status)
		require.Equal(t, "This step has failed", result.Scenarios[1].Steps[1].Error)
		require.Equal(t, messages.TestStepResultStatus_UNDEFINED, result.Scenarios[2].Status)
		require.Equal(t, messages.TestStepResultStatus_AMBIGUOUS, result.Scenarios[3].Status)
	})

	t.Run("emits messages in protocol order", func(t *testing.T) {
		recorder := &envelopeRecorder{}
		_, err := cukesRunner(writeFeature(t, "Feature: f\n  Scenario: s\n    Given I have 1 cukes\n"), recorder).Run(context.Background())
		require.NoError(t, err)

		kinds := make([]string, 0, len(recorder.envelopes))
		for _, envelope := range recorder.envelopes {
			kinds = append(kinds, kind(envelope))
		}
		require.Equal(t, []string{
			"meta", "source", "gherkinDocument", "pickle",
			"stepDefinition", "stepDefinition", "stepDefinition",
			"stepDefinition", "stepDefinition", "stepDefinition",
			"testRunStarted", "testCase",
			"testCaseStarted", "testStepStarted", "testStepFinished", "testCaseFinished",
			"testRunFinished",
		}, kinds)

		last := recorder.envelopes[len(recorder.envelopes)-1]
		require.True(t, last.TestRunFinished.Success)
	})

	t.Run("links test steps to step definitions and arguments", func(t *testing.T) {
		recorder := &envelopeRecorder{}
		_, err := cukesRunner(writeFeature(t, "Feature: f\n  Scenario: s\n    Given I have 42 cukes\n    And an ambiguous step\n"), recorder).Run(context.Background())
		require.NoError(t, err)

		definitionIds := map[string]string{}
		var testCase *messages.TestCase
		var testCaseStarted *messages.TestCaseStarted
		var finished []*messages.TestStepFinished
		for _, envelope := range recorder.envelopes {
			switch {
			case envelope.StepDefinition != nil:
				definitionIds[envelope.StepDefinition.Pattern.Source] = envelope.StepDefinition.Id
			case envelope.TestCase != nil:
				testCase = envelope.TestCase
			case envelope.TestCaseStarted != nil:
				testCaseStarted = envelope.TestCaseStarted
			case envelope.TestStepFinished != nil:
				finished = append(finished, envelope.TestStepFinished)
			}
		}

		require.NotNil(t, testCase)
		require.Equal(t, testCase.Id, testCaseStarted.TestCaseId)

		first := testCase.TestSteps[0]
		require.Equal(t, []string{definitionIds[`^I have (\d+) cukes$`]}, first.StepDefinitionIds)
		require.Equal(t, "42", first.StepMatchArgumentsLists[0].StepMatchArguments[0].Group.Value)
		require.Equal(t, int64(7), first.StepMatchArgumentsLists[0].StepMatchArguments[0].Group.Start)

		second := testCase.TestSteps[1]
		require.Equal(t, []string{
			definitionIds[`^an ambiguous step$`],
			definitionIds[`^an ambiguous (.*)$`],
		}, second.StepDefinitionIds)

		require.Len(t, finished, 2)
		for i, f := range finished {
			require.Equal(t, testCase.TestSteps[i].Id, f.TestStepId)
			require.Equal(t, testCaseStarted.Id, f.TestCaseStartedId)
		}
	})

	t.Run("filters scenarios by tag expression", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		result, err := cukesRunner(dir, &envelopeRecorder{}).
			WithConfig(&support.Config{Tags: "@passing or @undefined", Paths: []string{dir}}).
			Run(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Scenarios, 2)
		require.Equal(t, "Passing", result.Scenarios[0].Name)
		require.Equal(t, "Undefined", result.Scenarios[1].Name)
	})

	t.Run("returns error for invalid tag expression", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		_, err := cukesRunner(dir, &envelopeRecorder{}).
			WithConfig(&support.Config{Tags: "@a and (", Paths: []string{dir}}).
			Run(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid tag expression")
	})

	t.Run("stops after the first failed scenario with fail fast", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		result, err := cukesRunner(dir, &envelopeRecorder{}).
			WithConfig(&support.Config{FailFast: true, Paths: []string{dir}}).
			Run(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Scenarios, 2)
		require.False(t, result.Success)
	})

	t.Run("runs scenarios in parallel", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		recorder := &envelopeRecorder{}
		result, err := cukesRunner(dir, recorder).
			WithConfig(&support.Config{Parallel: 4, Paths: []string{dir}}).
			Run(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Scenarios, 4)
		require.Equal(t, 4, result.Summary.ScenariosTotal)

		// envelopes of one test case stay contiguous
		var current string
		for _, envelope := range recorder.envelopes {
			switch {
			case envelope.TestCaseStarted != nil:
				require.Empty(t, current)
				current = envelope.TestCaseStarted.Id
			case envelope.TestStepFinished != nil:
				require.Equal(t, current, envelope.TestStepFinished.TestCaseStartedId)
			case envelope.TestCaseFinished != nil:
				require.Equal(t, current, envelope.TestCaseFinished.TestCaseStartedId)
				current = ""
			}
		}
	})

	t.Run("invokes hooks around scenarios and steps", func(t *testing.T) {
		var calls []string
		hooks := &support.Hooks{
			BeforeAll:      func() { calls = append(calls, "before-all") },
			AfterAll:       func() { calls = append(calls, "after-all") },
			BeforeScenario: func(s support.Scenario) { calls = append(calls, "before-scenario:"+s.Name) },
			AfterScenario: func(s support.Scenario, status messages.TestStepResultStatus) {
				calls = append(calls, "after-scenario:"+status.String())
			},
			BeforeStep: func(s support.Step) { calls = append(calls, "before-step:"+s.Text) },
			AfterStep: func(s support.Step, r *messages.TestStepResult) {
				calls = append(calls, "after-step:"+r.Status.String())
			},
		}

		_, err := cukesRunner(writeFeature(t, "Feature: f\n  Scenario: s\n    Given an undefined step\n    Then I have 1 cukes left\n"), &envelopeRecorder{}).
			WithHooks(hooks).
			Run(context.Background())
		require.NoError(t, err)

		require.Equal(t, []string{
			"before-all",
			"before-scenario:s",
			"before-step:an undefined step",
			"after-step:UNDEFINED",
			"after-step:SKIPPED",
			"after-scenario:UNDEFINED",
			"after-all",
		}, calls)
	})

	t.Run("fails the step around a panicking hook and keeps running", func(t *testing.T) {
		hooks := &support.Hooks{
			BeforeStep: func(s support.Step) {
				if s.Text == "I eat 2 cukes" {
					panic("kitchen is closed")
				}
			},
		}

		dir := writeFeature(t, cukesFeature)
		recorder := &envelopeRecorder{}
		result, err := cukesRunner(dir, recorder).
			WithConfig(&support.Config{Tags: "@passing or @failing", Paths: []string{dir}}).
			WithHooks(hooks).
			Run(context.Background())
		require.NoError(t, err)
		require.False(t, result.Success)

		require.Equal(t, []messages.TestStepResultStatus{
			messages.TestStepResultStatus_PASSED,
			messages.TestStepResultStatus_FAILED,
			messages.TestStepResultStatus_PASSED,
			messages.TestStepResultStatus_FAILED,
			messages.TestStepResultStatus_SKIPPED,
		}, recorder.stepStatuses())
		require.Equal(t, "before step: hook panicked: kitchen is closed", result.Scenarios[0].Steps[1].Error)
	})

	t.Run("fails a passed step when its after step hook panics", func(t *testing.T) {
		hooks := &support.Hooks{
			AfterStep: func(support.Step, *messages.TestStepResult) { panic("cleanup failed") },
		}

		recorder := &envelopeRecorder{}
		result, err := cukesRunner(writeFeature(t, "Feature: f\n  Scenario: s\n    Given I have 1 cukes\n    Then I have 1 cukes left\n"), recorder).
			WithHooks(hooks).
			Run(context.Background())
		require.NoError(t, err)
		require.False(t, result.Success)
		require.Equal(t, []messages.TestStepResultStatus{
			messages.TestStepResultStatus_FAILED,
			messages.TestStepResultStatus_SKIPPED,
		}, recorder.stepStatuses())
	})

	t.Run("fails the first step when a before scenario hook panics", func(t *testing.T) {
		hooks := &support.Hooks{
			BeforeScenario: func(support.Scenario) { panic("no fixtures") },
		}

		dir := writeFeature(t, cukesFeature)
		recorder := &envelopeRecorder{}
		result, err := cukesRunner(dir, recorder).
			WithConfig(&support.Config{Tags: "@passing", Paths: []string{dir}}).
			WithHooks(hooks).
			Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, []messages.TestStepResultStatus{
			messages.TestStepResultStatus_FAILED,
			messages.TestStepResultStatus_SKIPPED,
		}, recorder.stepStatuses())
		require.Equal(t, messages.TestStepResultStatus_FAILED, result.Scenarios[0].Status)
	})

	t.Run("returns error when a before all hook panics", func(t *testing.T) {
		_, err := cukesRunner(writeFeature(t, cukesFeature), &envelopeRecorder{}).
			WithHooks(&support.Hooks{BeforeAll: func() { panic("no database") }}).
			Run(context.Background())
		require.ErrorIs(t, err, support.ErrHookPanicked)
	})

	t.Run("fails the run when an after all hook panics", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		recorder := &envelopeRecorder{}
		result, err := cukesRunner(dir, recorder).
			WithConfig(&support.Config{Tags: "@passing", Paths: []string{dir}}).
			WithHooks(&support.Hooks{AfterAll: func() { panic("teardown") }}).
			Run(context.Background())
		require.NoError(t, err)
		require.False(t, result.Success)

		runFinished := recorder.envelopes[len(recorder.envelopes)-1].TestRunFinished
		require.NotNil(t, runFinished)
		require.False(t, runFinished.Success)
		require.Equal(t, "after all: hook panicked: teardown", runFinished.Message)
	})

	t.Run("reports parse errors and runs the remaining features", func(t *testing.T) {
		dir := writeFeature(t, cukesFeature)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.feature"), []byte("Feature: broken\n  Scenario: s\n    Given a step\n  not a gherkin line\n"), 0o644))

		recorder := &envelopeRecorder{}
		result, err := cukesRunner(dir, recorder).
			WithConfig(&support.Config{Tags: "@passing", Paths: []string{dir}}).
			Run(context.Background())
		require.NoError(t, err)
		require.False(t, result.Success)
		require.NotZero(t, result.ParseErrors)
		require.Len(t, result.Scenarios, 1)
		require.Equal(t, messages.TestStepResultStatus_PASSED, result.Scenarios[0].Status)

		var parseErrors []*messages.ParseError
		for _, envelope := range recorder.envelopes {
			if envelope.ParseError != nil {
				parseErrors = append(parseErrors, envelope.ParseError)
			}
		}
		require.Len(t, parseErrors, result.ParseErrors)
		require.Equal(t, filepath.Join(dir, "broken.feature"), parseErrors[0].Source.Uri)
		require.False(t, recorder.envelopes[len(recorder.envelopes)-1].TestRunFinished.Success)
	})

	t.Run("reports scenarios to the reporter", func(t *testing.T) {
		r := reporter.NewNoopReporter()
		result, err := cukesRunner(writeFeature(t, cukesFeature), &envelopeRecorder{}).
			WithReporter(r).
			Run(context.Background())
		require.NoError(t, err)

		require.Equal(t, 4, r.Summary().ScenariosTotal)
		require.Equal(t, 1, r.Summary().ScenariosPassed)
		require.Equal(t, r.Summary(), result.Summary)
	})

	t.Run("returns the error of an envelope handler", func(t *testing.T) {
		controller := gomock.NewController(t)
		handler := NewMockEnvelopeHandler(controller)
		handler.EXPECT().Handle(gomock.Any()).Return(errors.New("closed pipe")).Times(1)

		_, err := NewCucumberRunner().
			WithFeaturesDirectories(t.TempDir()).
			WithEnvelopeHandler(handler).
			Run(context.Background())
		require.EqualError(t, err, "closed pipe")
	})

	t.Run("succeeds without feature files", func(t *testing.T) {
		result, err := NewCucumberRunner().
			WithFeaturesDirectories(t.TempDir()).
			Run(context.Background())
		require.NoError(t, err)
		require.True(t, result.Success)
		require.Empty(t, result.Scenarios)
	})
}

func kind(envelope *messages.Envelope) string {
	switch {
	case envelope.Meta != nil:
		return "meta"
	case envelope.Source != nil:
		return "source"
	case envelope.GherkinDocument != nil:
		return "gherkinDocument"
	case envelope.Pickle != nil:
		return "pickle"
	case envelope.StepDefinition != nil:
		return "stepDefinition"
	case envelope.TestRunStarted != nil:
		return "testRunStarted"
	case envelope.TestCase != nil:
		return "testCase"
	case envelope.TestCaseStarted != nil:
		return "testCaseStarted"
	case envelope.TestStepStarted != nil:
		return "testStepStarted"
	case envelope.TestStepFinished != nil:
		return "testStepFinished"
	case envelope.TestCaseFinished != nil:
		return "testCaseFinished"
	case envelope.TestRunFinished != nil:
		return "testRunFinished"
	default:
		return "unknown"
	}
}
