package support

import messages "github.com/cucumber/messages/go/v21"

// Scenario holds metadata about the currently executing scenario.
// Passed to BeforeScenario/AfterScenario hooks.
type Scenario struct {
	// ID is the pickle id.
	ID string

	// Name is the scenario name. For expanded Scenario Outlines this
	// includes the substituted values.
	Name string

	// URI is the feature file the scenario comes from.
	URI string

	// Tags contains the tag names, including inherited ones (e.g. "@smoke").
	Tags []string
}

// Step holds metadata about the currently executing step.
// Passed to BeforeStep/AfterStep hooks.
type Step struct {
	// ID is the pickle step id.
	ID string

	// Text is the step text after the keyword.
	Text string
}

// ScenarioFromPickle converts a compiled pickle into a Scenario value
// suitable for hook functions.
func ScenarioFromPickle(p *messages.Pickle) Scenario {
	tags := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		tags[i] = t.Name
	}

	return Scenario{
		ID:   p.Id,
		Name: p.Name,
		URI:  p.Uri,
		Tags: tags,
	}
}

// StepFromPickleStep converts a pickle step into a Step value suitable for
// hook functions.
func StepFromPickleStep(s *messages.PickleStep) Step {
	return Step{
		ID:   s.Id,
		Text: s.Text,
	}
}
