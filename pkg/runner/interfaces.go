//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=runner
package runner

import messages "github.com/cucumber/messages/go/v21"

type (
	// EnvelopeHandler receives every message produced by a run, in order.
	EnvelopeHandler interface {
		Handle(*messages.Envelope) error
	}
)

// EnvelopeHandlerFunc adapts a function to EnvelopeHandler.
type EnvelopeHandlerFunc func(*messages.Envelope) error

func (f EnvelopeHandlerFunc) Handle(envelope *messages.Envelope) error {
	return f(envelope)
}
