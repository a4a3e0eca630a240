package steps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/runner"
	"github.com/stretchr/testify/require"
)

const feature = `Feature: canned steps

  Scenario: passed
    Given a passed step
    And I have 5 cukes in my belly
    And the answer is 42
    And I wait 1 millisecond

  Scenario: failed
    Given a failed step

  Scenario: panics
    Given a step that panics

  Scenario: ambiguous
    Given an ambiguous step

  Scenario: undefined
    Given a step nobody wrote

  Scenario: wrong answer
    Given the answer is 7

  Scenario: too many cukes
    Given I have 5000 cukes in my belly
`

func TestRegister(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "canned.feature"), []byte(feature), 0o644))

	result, err := Register(runner.NewCucumberRunner().WithFeaturesDirectories(dir)).Run(context.Background())
	require.NoError(t, err)
	require.False(t, result.Success)

	statuses := make(map[string]messages.TestStepResultStatus)
	errs := make(map[string]string)
	for _, scenario := range result.Scenarios {
		statuses[scenario.Name] = scenario.Status
		for _, step := range scenario.Steps {
			if step.Error != "" {
				errs[scenario.Name] = step.Error
			}
		}
	}

	require.Equal(t, map[string]messages.TestStepResultStatus{
		"passed":         messages.TestStepResultStatus_PASSED,
		"failed":         messages.TestStepResultStatus_FAILED,
		"panics":         messages.TestStepResultStatus_FAILED,
		"ambiguous":      messages.TestStepResultStatus_AMBIGUOUS,
		"undefined":      messages.TestStepResultStatus_UNDEFINED,
		"wrong answer":   messages.TestStepResultStatus_FAILED,
		"too many cukes": messages.TestStepResultStatus_FAILED,
	}, statuses)

	require.Equal(t, "This step has failed", errs["failed"])
	require.Equal(t, "this step panicked", errs["panics"])
	require.Equal(t, "expected 42 but got 7", errs["wrong answer"])
	require.Equal(t, "5000 cukes do not fit in a belly", errs["too many cukes"])
}

func TestWait(t *testing.T) {
	t.Run("returns when the time is up", func(t *testing.T) {
		require.NoError(t, Wait(context.Background(), 1))
	})

	t.Run("returns the context error when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		require.ErrorIs(t, Wait(ctx, 10_000), context.DeadlineExceeded)
	})
}
