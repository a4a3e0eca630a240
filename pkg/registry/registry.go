// Package registry resolves step text against registered step definitions
// and turns the outcome into test step results.
package registry

import (
	"context"
	"fmt"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/executor"
)

// Registry holds an immutable, ordered set of step definitions. It is safe
// for concurrent use.
type Registry struct {
	definitions []Definition
}

// NewRegistry creates a registry. The definitions are copied, so later
// changes to the caller's slice have no effect.
func NewRegistry(definitions ...Definition) *Registry {
	return &Registry{
		definitions: append([]Definition(nil), definitions...),
	}
}

// CreateTestStep binds text and id to a test step. No matching happens here.
func (r *Registry) CreateTestStep(text, id string) *TestStep {
	return &TestStep{
		ID:       id,
		Text:     text,
		registry: r,
	}
}

// Match evaluates every definition against text in registration order and
// returns one executor per match. No action is invoked.
func (r *Registry) Match(text string) []executor.Executor {
	matches := make([]executor.Executor, 0, 1)
	for _, definition := range r.definitions {
		if exec, ok := definition.Match(text); ok {
			matches = append(matches, exec)
		}
	}

	return matches
}

// ToMessages wraps the configuration snapshot of every definition in an
// envelope, in registration order.
func (r *Registry) ToMessages() []*messages.Envelope {
	envelopes := make([]*messages.Envelope, 0, len(r.definitions))
	for _, definition := range r.definitions {
		envelopes = append(envelopes, &messages.Envelope{
			StepDefinition: definition.ToMessage(),
		})
	}

	return envelopes
}

func (r *Registry) execute(ctx context.Context, text string) *messages.TestStepResult {
	start := time.Now()

	matches := r.Match(text)
	switch len(matches) {
	case 0:
		return newResult(messages.TestStepResultStatus_UNDEFINED, start)
	case 1:
	default:
		return newResult(messages.TestStepResultStatus_AMBIGUOUS, start)
	}

	outcome := matches[0].Execute(ctx)
	if !outcome.Failed() {
		return newResult(messages.TestStepResultStatus_PASSED, start)
	}

	result := newResult(messages.TestStepResultStatus_FAILED, start)
	result.Message = outcome.Err.Error()
	result.Exception = &messages.Exception{
		Type:    fmt.Sprintf("%T", outcome.Err),
		Message: outcome.Err.Error(),
	}

	return result
}

func newResult(status messages.TestStepResultStatus, start time.Time) *messages.TestStepResult {
	duration := messages.GoDurationToDuration(time.Since(start))
	return &messages.TestStepResult{
		Status:   status,
		Duration: &duration,
	}
}
