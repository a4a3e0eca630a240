//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=executor
package executor

import "context"

type (
	// Action is the support code bound to a step definition.
	Action interface {
		Invoke(ctx context.Context, args []Argument) (any, error)
	}

	// Executor runs the action of one matched step definition.
	Executor interface {
		Execute(ctx context.Context) Outcome
		StepDefinitionID() string
		Arguments() []Argument
	}
)
