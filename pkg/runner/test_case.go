package runner

import (
	"context"
	"fmt"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/executor"
	"github.com/denizgursoy/fake-cucumber/pkg/registry"
	"github.com/denizgursoy/fake-cucumber/pkg/reporter"
	"github.com/denizgursoy/fake-cucumber/pkg/support"
)

type (
	testCase struct {
		pickle  *messages.Pickle
		message *messages.TestCase
		steps   []testCaseStep
	}

	testCaseStep struct {
		pickleStep *messages.PickleStep
		id         string
		matchLocs  []int
	}
)

// newTestCase resolves the step definitions of every pickle step up front,
// so the TestCase message can list them. No support code runs here.
func (c *CucumberRunner) newTestCase(stepRegistry *registry.Registry, pickle *messages.Pickle) *testCase {
	tc := &testCase{
		pickle: pickle,
		message: &messages.TestCase{
			Id:        c.nextId(),
			PickleId:  pickle.Id,
			TestSteps: make([]*messages.TestStep, 0, len(pickle.Steps)),
		},
	}

	for _, pickleStep := range pickle.Steps {
		matches := stepRegistry.Match(pickleStep.Text)

		testStep := &messages.TestStep{
			Id:                      c.nextId(),
			PickleStepId:            pickleStep.Id,
			StepDefinitionIds:       make([]string, 0, len(matches)),
			StepMatchArgumentsLists: make([]*messages.StepMatchArgumentsList, 0, len(matches)),
		}
		for _, match := range matches {
			testStep.StepDefinitionIds = append(testStep.StepDefinitionIds, match.StepDefinitionID())
			testStep.StepMatchArgumentsLists = append(testStep.StepMatchArgumentsLists, stepMatchArguments(match.Arguments()))
		}

		step := testCaseStep{pickleStep: pickleStep, id: testStep.Id}
		if len(matches) == 1 {
			step.matchLocs = matchLocs(matches[0].Arguments())
		}

		tc.message.TestSteps = append(tc.message.TestSteps, testStep)
		tc.steps = append(tc.steps, step)
	}

	return tc
}

// runTestCase executes the steps of one test case in order. After the first
// step that did not pass, the remaining steps are reported as skipped
// without being matched or run. A panicking hook fails the step it
// surrounds; a before scenario hook fails the first step.
func (c *CucumberRunner) runTestCase(ctx context.Context, stepRegistry *registry.Registry, hooks *support.HookExecutor, tc *testCase) (reporter.ScenarioResult, []*messages.Envelope) {
	logger := c.logger()
	scenario := support.ScenarioFromPickle(tc.pickle)
	started := time.Now()

	testCaseStarted := &messages.TestCaseStarted{
		Id:         c.nextId(),
		TestCaseId: tc.message.Id,
		Timestamp:  timestamp(started),
	}
	envelopes := []*messages.Envelope{{TestCaseStarted: testCaseStarted}}

	result := reporter.ScenarioResult{
		URI:   scenario.URI,
		Name:  scenario.Name,
		Tags:  scenario.Tags,
		Steps: make([]reporter.StepResult, 0, len(tc.steps)),
	}

	hookErr := hooks.ExecuteBeforeScenario(scenario)
	if hookErr != nil {
		hookErr = fmt.Errorf("before scenario: %w", hookErr)
	}

	statuses := make([]messages.TestStepResultStatus, 0, len(tc.steps))
	skipRest := false
	var last *messages.TestStepFinished
	for _, step := range tc.steps {
		hookStep := support.StepFromPickleStep(step.pickleStep)
		envelopes = append(envelopes, &messages.Envelope{TestStepStarted: &messages.TestStepStarted{
			TestCaseStartedId: testCaseStarted.Id,
			TestStepId:        step.id,
			Timestamp:         timestamp(time.Now()),
		}})

		var finished *messages.TestStepFinished
		switch {
		case skipRest:
			finished = skippedStep(step.id)
		case hookErr != nil:
			finished = failedStep(step.id, hookErr)
			hookErr = nil
		default:
			if err := hooks.ExecuteBeforeStep(hookStep); err != nil {
				finished = failedStep(step.id, fmt.Errorf("before step: %w", err))
				break
			}
			finished = stepRegistry.CreateTestStep(step.pickleStep.Text, step.id).Execute(ctx)
		}
		finished.TestCaseStartedId = testCaseStarted.Id
		stepResult := finished.TestStepResult

		if err := hooks.ExecuteAfterStep(hookStep, stepResult); err != nil {
			c.hookFailed(stepResult, fmt.Errorf("after step: %w", err))
		}
		logger.Debug("step finished", "scenario", scenario.Name, "step", step.pickleStep.Text, "status", stepResult.Status)

		statuses = append(statuses, stepResult.Status)
		skipRest = skipRest || stepResult.Status != messages.TestStepResultStatus_PASSED

		envelopes = append(envelopes, &messages.Envelope{TestStepFinished: finished})
		result.Steps = append(result.Steps, reporter.StepResult{
			Text:      step.pickleStep.Text,
			Status:    stepResult.Status,
			Error:     stepResult.Message,
			Duration:  messages.DurationToGoDuration(*stepResult.Duration),
			MatchLocs: step.matchLocs,
		})
		last = finished
	}
	if hookErr != nil {
		logger.Error("hook failed", "scenario", scenario.Name, "error", hookErr)
	}

	if err := hooks.ExecuteAfterScenario(scenario, support.WorstStatus(statuses...)); err != nil && last != nil {
		c.hookFailed(last.TestStepResult, fmt.Errorf("after scenario: %w", err))
		statuses[len(statuses)-1] = last.TestStepResult.Status
		result.Steps[len(result.Steps)-1].Status = last.TestStepResult.Status
		result.Steps[len(result.Steps)-1].Error = last.TestStepResult.Message
	} else if err != nil {
		logger.Error("hook failed", "scenario", scenario.Name, "error", err)
	}
	result.Status = support.WorstStatus(statuses...)

	ended := time.Now()
	result.Duration = ended.Sub(started)
	envelopes = append(envelopes, &messages.Envelope{TestCaseFinished: &messages.TestCaseFinished{
		TestCaseStartedId: testCaseStarted.Id,
		Timestamp:         timestamp(ended),
	}})

	return result, envelopes
}

// hookFailed turns a passed step into a failed one carrying err. Any other
// status is kept and the error is only logged.
func (c *CucumberRunner) hookFailed(result *messages.TestStepResult, err error) {
	if result.Status != messages.TestStepResultStatus_PASSED {
		c.logger().Error("hook failed", "status", result.Status, "error", err)
		return
	}

	result.Status = messages.TestStepResultStatus_FAILED
	result.Message = err.Error()
	result.Exception = &messages.Exception{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}

func failedStep(id string, err error) *messages.TestStepFinished {
	finished := skippedStep(id)
	finished.TestStepResult.Status = messages.TestStepResultStatus_FAILED
	finished.TestStepResult.Message = err.Error()
	finished.TestStepResult.Exception = &messages.Exception{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	return finished
}

func skippedStep(id string) *messages.TestStepFinished {
	return &messages.TestStepFinished{
		TestStepId: id,
		TestStepResult: &messages.TestStepResult{
			Status:   messages.TestStepResultStatus_SKIPPED,
			Duration: &messages.Duration{},
		},
		Timestamp: timestamp(time.Now()),
	}
}

func stepMatchArguments(args []executor.Argument) *messages.StepMatchArgumentsList {
	list := &messages.StepMatchArgumentsList{
		StepMatchArguments: make([]*messages.StepMatchArgument, 0, len(args)),
	}
	for _, arg := range args {
		group := &messages.Group{Children: []*messages.Group{}}
		if arg.Start >= 0 {
			group.Start = int64(arg.Start)
			group.Value = arg.Value
		}
		list.StepMatchArguments = append(list.StepMatchArguments, &messages.StepMatchArgument{Group: group})
	}

	return list
}

// matchLocs flattens argument positions into [start, end] pairs.
func matchLocs(args []executor.Argument) []int {
	locs := make([]int, 0, len(args)*2)
	for _, arg := range args {
		if arg.Start < 0 {
			continue
		}
		locs = append(locs, arg.Start, arg.Start+len(arg.Value))
	}

	return locs
}
