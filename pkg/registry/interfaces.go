//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=registry
package registry

import (
	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/executor"
)

type (
	// Definition is a registered step definition as seen by the registry.
	Definition interface {
		Match(text string) (executor.Executor, bool)
		ToMessage() *messages.StepDefinition
	}
)
