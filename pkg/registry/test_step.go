package registry

import (
	"context"
	"time"

	messages "github.com/cucumber/messages/go/v21"
)

// TestStep is one occurrence of a step in a test case.
type TestStep struct {
	ID   string
	Text string

	registry *Registry
}

// Execute matches the step text and runs the single matching definition, if
// any. Failures of the support code are reported as a FAILED result, never
// returned or propagated.
func (s *TestStep) Execute(ctx context.Context) *messages.TestStepFinished {
	result := s.registry.execute(ctx, s.Text)
	timestamp := messages.GoTimeToTimestamp(time.Now())

	return &messages.TestStepFinished{
		TestStepId:     s.ID,
		TestStepResult: result,
		Timestamp:      &timestamp,
	}
}
