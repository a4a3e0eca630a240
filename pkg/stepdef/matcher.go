package stepdef

import (
	"errors"
	"fmt"
	"regexp"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/fake-cucumber/pkg/executor"
)

// ErrInvalidPattern is returned when a step pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid step pattern")

// Matcher decides whether a step definition applies to a line of step text.
// Match must be free of side effects.
type Matcher interface {
	Match(text string) ([]executor.Argument, bool)
	Source() string
	Type() messages.StepDefinitionPatternType
}

// RegexpMatcher matches step text with a regular expression. Every capture
// group becomes one argument.
type RegexpMatcher struct {
	pattern *regexp.Regexp
}

// NewRegexpMatcher compiles pattern.
func NewRegexpMatcher(pattern string) (*RegexpMatcher, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	return &RegexpMatcher{pattern: compiled}, nil
}

// Match returns the capture groups of the first match in text.
func (m *RegexpMatcher) Match(text string) ([]executor.Argument, bool) {
	locs := m.pattern.FindStringSubmatchIndex(text)
	if locs == nil {
		return nil, false
	}

	// skip the full-match pair
	args := make([]executor.Argument, 0, len(locs)/2-1)
	for i := 2; i+1 < len(locs); i += 2 {
		start, end := locs[i], locs[i+1]
		if start < 0 {
			args = append(args, executor.Argument{Start: -1})
			continue
		}
		args = append(args, executor.Argument{Value: text[start:end], Start: start})
	}

	return args, true
}

// Groups is the number of capture groups in the pattern.
func (m *RegexpMatcher) Groups() int {
	return m.pattern.NumSubexp()
}

// Source returns the pattern as written at registration.
func (m *RegexpMatcher) Source() string {
	return m.pattern.String()
}

func (m *RegexpMatcher) Type() messages.StepDefinitionPatternType {
	return messages.StepDefinitionPatternType_REGULAR_EXPRESSION
}
