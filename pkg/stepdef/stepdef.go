// Package stepdef pairs a pattern with the support code it triggers.
package stepdef

import (
	"errors"
	"fmt"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/executor"
)

// ErrArityMismatch is returned when a function does not take one parameter
// per capture group of its pattern.
var ErrArityMismatch = errors.New("step function does not match pattern arity")

// StepDefinition is an immutable matcher and action pair.
type StepDefinition struct {
	id              string
	matcher         Matcher
	action          executor.Action
	sourceReference *messages.SourceReference
}

// Option configures a StepDefinition.
type Option func(*StepDefinition)

// WithSourceReference records where the step definition was declared.
func WithSourceReference(uri string, line int64) Option {
	return func(s *StepDefinition) {
		s.sourceReference = &messages.SourceReference{
			Uri:      uri,
			Location: &messages.Location{Line: line},
		}
	}
}

// New builds a step definition from a regular expression and a Go function.
// Malformed patterns, non-function handlers and functions whose parameters
// do not line up with the capture groups are rejected here, never at match
// time.
func New(id, pattern string, fn any, opts ...Option) (*StepDefinition, error) {
	matcher, err := NewRegexpMatcher(pattern)
	if err != nil {
		return nil, err
	}

	action, err := executor.NewFuncAction(fn)
	if err != nil {
		return nil, err
	}
	if action.Arity() != matcher.Groups() {
		return nil, fmt.Errorf("%w: %q captures %d argument(s), function takes %d",
			ErrArityMismatch, pattern, matcher.Groups(), action.Arity())
	}

	return NewStepDefinition(id, matcher, action, opts...), nil
}

// NewStepDefinition builds a step definition from any matcher and action.
func NewStepDefinition(id string, matcher Matcher, action executor.Action, opts ...Option) *StepDefinition {
	s := &StepDefinition{
		id:              id,
		matcher:         matcher,
		action:          action,
		sourceReference: &messages.SourceReference{},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the step definition id.
func (s *StepDefinition) ID() string {
	return s.id
}

// Match returns a fresh executor when text matches, or false. The action
// is never invoked.
func (s *StepDefinition) Match(text string) (executor.Executor, bool) {
	args, ok := s.matcher.Match(text)
	if !ok {
		return nil, false
	}

	return executor.NewSupportCodeExecutor(s.id, s.action, args), true
}

// ToMessage returns a configuration snapshot for reporting.
func (s *StepDefinition) ToMessage() *messages.StepDefinition {
	ref := *s.sourceReference
	if s.sourceReference.Location != nil {
		loc := *s.sourceReference.Location
		ref.Location = &loc
	}

	return &messages.StepDefinition{
		Id: s.id,
		Pattern: &messages.StepDefinitionPattern{
			Source: s.matcher.Source(),
			Type:   s.matcher.Type(),
		},
		SourceReference: &ref,
	}
}
