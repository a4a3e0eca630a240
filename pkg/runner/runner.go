package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"github.com/denizgursoy/fake-cucumber/pkg/gherkin_parser"
	"github.com/denizgursoy/fake-cucumber/pkg/registry"
	"github.com/denizgursoy/fake-cucumber/pkg/reporter"
	"github.com/denizgursoy/fake-cucumber/pkg/stepdef"
	"github.com/denizgursoy/fake-cucumber/pkg/support"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	ImplementationName = "fake-cucumber"
	ProtocolVersion    = "21.0.1"
)

// Version is the implementation version reported in the meta message.
var Version = "dev"

// ErrDuplicateStep is returned when the same pattern is registered twice.
var ErrDuplicateStep = errors.New("duplicate step pattern")

type (
	stepRegistration struct {
		pattern string
		fn      any
		file    string
		line    int
	}

	// CucumberRunner discovers features, executes their scenarios against
	// the registered step definitions and publishes the results as messages.
	CucumberRunner struct {
		config        *support.Config
		registrations []stepRegistration
		patterns      map[string]bool
		errs          []error
		hooks         []*support.Hooks
		handlers      []EnvelopeHandler
		reporter      reporter.Reporter
		newId         func() string

		idMu   sync.Mutex
		emitMu sync.Mutex
	}

	// RunResult holds the complete results of a test run.
	RunResult struct {
		Scenarios   []reporter.ScenarioResult
		Summary     reporter.Summary
		Success     bool
		// ParseErrors counts the errors of feature files that could not be
		// parsed. Any parse error fails the run.
		ParseErrors int
		StartedAt   time.Time
		Duration    time.Duration
	}
)

func NewCucumberRunner() *CucumberRunner {
	return &CucumberRunner{
		config:   &support.Config{},
		patterns: make(map[string]bool),
		reporter: reporter.NewNoopReporter(),
		newId:    uuid.NewString,
	}
}

// WithConfig replaces the runtime configuration.
func (c *CucumberRunner) WithConfig(config *support.Config) *CucumberRunner {
	if config != nil {
		c.config = config
	}

	return c
}

func (c *CucumberRunner) WithFeaturesDirectories(directories ...string) *CucumberRunner {
	c.config.Paths = directories

	return c
}

func (c *CucumberRunner) WithHooks(hooks ...*support.Hooks) *CucumberRunner {
	c.hooks = append(c.hooks, hooks...)

	return c
}

// WithIdGenerator sets the generator used for every message id.
func (c *CucumberRunner) WithIdGenerator(newId func() string) *CucumberRunner {
	if newId != nil {
		c.newId = newId
	}

	return c
}

// WithEnvelopeHandler adds a receiver for the produced messages.
func (c *CucumberRunner) WithEnvelopeHandler(handler EnvelopeHandler) *CucumberRunner {
	c.handlers = append(c.handlers, handler)

	return c
}

func (c *CucumberRunner) WithReporter(r reporter.Reporter) *CucumberRunner {
	if r != nil {
		c.reporter = r
	}

	return c
}

// RegisterStep registers a regular expression and the Go function it runs.
// Invalid registrations are reported by Run before anything is executed.
func (c *CucumberRunner) RegisterStep(pattern string, function any) *CucumberRunner {
	if c.patterns[pattern] {
		c.errs = append(c.errs, fmt.Errorf("%w: %s", ErrDuplicateStep, pattern))
		return c
	}
	c.patterns[pattern] = true

	registration := stepRegistration{pattern: pattern, fn: function}
	if _, file, line, ok := runtime.Caller(1); ok {
		registration.file, registration.line = file, line
	}
	c.registrations = append(c.registrations, registration)

	return c
}

// Run executes every scenario selected by the configuration.
func (c *CucumberRunner) Run(ctx context.Context) (*RunResult, error) {
	logger := c.logger()

	definitions, err := c.buildDefinitions()
	if err != nil {
		return nil, err
	}
	stepRegistry := registry.NewRegistry(definitions...)

	filter, err := c.tagFilter()
	if err != nil {
		return nil, err
	}

	paths := c.config.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	featureFiles, err := gherkin_parser.SearchFeatureFilesIn(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("found feature files", "count", len(featureFiles), "paths", paths)

	if err := c.emit(metaEnvelope()); err != nil {
		return nil, err
	}

	pickles := make([]*messages.Pickle, 0)
	parseErrors := 0
	for _, file := range featureFiles {
		feature, err := gherkin_parser.LoadFeature(file, c.nextId)
		if err != nil {
			return nil, err
		}

		if len(feature.ParseErrors) > 0 {
			parseErrors += len(feature.ParseErrors)
			envelopes := []*messages.Envelope{{Source: feature.Source}}
			for _, parseError := range feature.ParseErrors {
				logger.Warn("could not parse feature file", "uri", file, "error", parseError.Message)
				envelopes = append(envelopes, &messages.Envelope{ParseError: parseError})
			}
			if err := c.emit(envelopes...); err != nil {
				return nil, err
			}
			continue
		}

		envelopes := []*messages.Envelope{
			{Source: feature.Source},
			{GherkinDocument: feature.Document},
		}
		for _, pickle := range feature.Pickles {
			if !filter(pickle) {
				logger.Debug("skipping pickle excluded by tags", "pickle", pickle.Name, "uri", pickle.Uri)
				continue
			}
			pickles = append(pickles, pickle)
			envelopes = append(envelopes, &messages.Envelope{Pickle: pickle})
		}
		if err := c.emit(envelopes...); err != nil {
			return nil, err
		}
	}

	if err := c.emit(stepRegistry.ToMessages()...); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	if err := c.emit(&messages.Envelope{TestRunStarted: &messages.TestRunStarted{Timestamp: timestamp(startedAt)}}); err != nil {
		return nil, err
	}

	testCases := make([]*testCase, len(pickles))
	for i, pickle := range pickles {
		testCases[i] = c.newTestCase(stepRegistry, pickle)
		if err := c.emit(&messages.Envelope{TestCase: testCases[i].message}); err != nil {
			return nil, err
		}
	}

	hookExecutor := support.NewHookExecutor(c.hooks...)
	if err := hookExecutor.ExecuteBeforeAll(); err != nil {
		return nil, fmt.Errorf("before all: %w", err)
	}

	scenarios, err := c.runTestCases(ctx, stepRegistry, hookExecutor, testCases)

	afterAllErr := hookExecutor.ExecuteAfterAll()
	if err != nil {
		return nil, err
	}

	success := parseErrors == 0
	for _, scenario := range scenarios {
		success = success && support.IsSuccess(scenario.Status)
	}

	runFinished := &messages.TestRunFinished{}
	if afterAllErr != nil {
		afterAllErr = fmt.Errorf("after all: %w", afterAllErr)
		logger.Error("hook failed", "error", afterAllErr)
		runFinished.Message = afterAllErr.Error()
		success = false
	}

	finished := time.Now()
	runFinished.Success = success
	runFinished.Timestamp = timestamp(finished)
	if err := c.emit(&messages.Envelope{TestRunFinished: runFinished}); err != nil {
		return nil, err
	}

	c.reporter.PrintSummary()
	logger.Info("test run finished", "scenarios", len(scenarios), "success", success, "duration", finished.Sub(startedAt))

	return &RunResult{
		Scenarios:   scenarios,
		Summary:     c.reporter.Summary(),
		Success:     success,
		ParseErrors: parseErrors,
		StartedAt:   startedAt,
		Duration:    finished.Sub(startedAt),
	}, nil
}

func (c *CucumberRunner) runTestCases(ctx context.Context, stepRegistry *registry.Registry, hooks *support.HookExecutor, testCases []*testCase) ([]reporter.ScenarioResult, error) {
	results := make([]*reporter.ScenarioResult, len(testCases))
	var stop atomic.Bool

	group, groupCtx := errgroup.WithContext(ctx)
	if c.config.Parallel > 1 {
		group.SetLimit(c.config.Parallel)
	} else {
		group.SetLimit(1)
	}

	for i, tc := range testCases {
		i, tc := i, tc
		if stop.Load() {
			break
		}

		group.Go(func() error {
			if stop.Load() {
				return nil
			}

			result, envelopes := c.runTestCase(groupCtx, stepRegistry, hooks, tc)
			if err := c.emit(envelopes...); err != nil {
				return err
			}
			c.reporter.ScenarioFinished(result)
			results[i] = &result

			if c.config.FailFast && !support.IsSuccess(result.Status) {
				stop.Store(true)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	scenarios := make([]reporter.ScenarioResult, 0, len(results))
	for _, result := range results {
		if result != nil {
			scenarios = append(scenarios, *result)
		}
	}

	return scenarios, nil
}

func (c *CucumberRunner) buildDefinitions() ([]registry.Definition, error) {
	errs := append([]error(nil), c.errs...)
	definitions := make([]registry.Definition, 0, len(c.registrations))

	for _, registration := range c.registrations {
		definition, err := stepdef.New(
			c.nextId(),
			registration.pattern,
			registration.fn,
			stepdef.WithSourceReference(registration.file, int64(registration.line)),
		)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		definitions = append(definitions, definition)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return definitions, nil
}

func (c *CucumberRunner) tagFilter() (func(*messages.Pickle) bool, error) {
	if c.config.Tags == "" {
		return func(*messages.Pickle) bool { return true }, nil
	}

	evaluator, err := tagexpressions.Parse(c.config.Tags)
	if err != nil {
		return nil, fmt.Errorf("invalid tag expression %q: %w", c.config.Tags, err)
	}

	return func(pickle *messages.Pickle) bool {
		return evaluator.Evaluate(support.ScenarioFromPickle(pickle).Tags)
	}, nil
}

func (c *CucumberRunner) logger() support.Logger {
	if c.config.DisableLog || c.config.Logger == nil {
		return support.NopLogger()
	}

	return c.config.Logger
}

func (c *CucumberRunner) nextId() string {
	c.idMu.Lock()
	defer c.idMu.Unlock()

	return c.newId()
}

// emit hands the envelopes to every handler. Envelopes passed in one call
// are never interleaved with those of another call.
func (c *CucumberRunner) emit(envelopes ...*messages.Envelope) error {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	for _, envelope := range envelopes {
		for _, handler := range c.handlers {
			if err := handler.Handle(envelope); err != nil {
				return err
			}
		}
	}

	return nil
}

func metaEnvelope() *messages.Envelope {
	return &messages.Envelope{Meta: &messages.Meta{
		ProtocolVersion: ProtocolVersion,
		Implementation:  &messages.Product{Name: ImplementationName, Version: Version},
		Runtime:         &messages.Product{Name: "go", Version: runtime.Version()},
		Os:              &messages.Product{Name: runtime.GOOS},
		Cpu:             &messages.Product{Name: runtime.GOARCH},
	}}
}

func timestamp(t time.Time) *messages.Timestamp {
	ts := messages.GoTimeToTimestamp(t)
	return &ts
}
