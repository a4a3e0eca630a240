package support

import (
	"errors"
	"fmt"
	"sort"

	messages "github.com/cucumber/messages/go/v21"
)

// ErrHookPanicked wraps the value of a panicking hook.
var ErrHookPanicked = errors.New("hook panicked")

// Hooks holds lifecycle hooks for test execution.
// All registered hook functions are executed, sorted by Order.
type Hooks struct {
	// Order determines execution order (lower = runs first).
	// Hooks with same Order run in registration order.
	Order int

	// BeforeAll runs once before all scenarios.
	BeforeAll func()

	// AfterAll runs once after all scenarios.
	AfterAll func()

	// BeforeScenario runs before each scenario.
	BeforeScenario func(Scenario)

	// AfterScenario runs after each scenario with the worst step status.
	AfterScenario func(Scenario, messages.TestStepResultStatus)

	// BeforeStep runs before each step that will be executed.
	BeforeStep func(Step)

	// AfterStep runs after each step, skipped ones included.
	AfterStep func(Step, *messages.TestStepResult)
}

// SortHooks sorts hooks by Order (ascending) without modifying the input.
func SortHooks(hooks []*Hooks) []*Hooks {
	sorted := make([]*Hooks, len(hooks))
	copy(sorted, hooks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}

// HookExecutor manages execution of multiple hooks.
type HookExecutor struct {
	hooks []*Hooks // sorted by Order
}

// NewHookExecutor creates a new HookExecutor with sorted hooks. Nil hooks
// are dropped.
func NewHookExecutor(hooks ...*Hooks) *HookExecutor {
	validHooks := make([]*Hooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			validHooks = append(validHooks, h)
		}
	}

	return &HookExecutor{
		hooks: SortHooks(validHooks),
	}
}

// each calls fn for every hook set in order. A panic stops the remaining
// hooks and is returned as an error wrapping ErrHookPanicked.
func (e *HookExecutor) each(fn func(*Hooks)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanicked, r)
		}
	}()

	for _, h := range e.hooks {
		fn(h)
	}

	return nil
}

func (e *HookExecutor) ExecuteBeforeAll() error {
	return e.each(func(h *Hooks) {
		if h.BeforeAll != nil {
			h.BeforeAll()
		}
	})
}

func (e *HookExecutor) ExecuteAfterAll() error {
	return e.each(func(h *Hooks) {
		if h.AfterAll != nil {
			h.AfterAll()
		}
	})
}

func (e *HookExecutor) ExecuteBeforeScenario(scenario Scenario) error {
	return e.each(func(h *Hooks) {
		if h.BeforeScenario != nil {
			h.BeforeScenario(scenario)
		}
	})
}

func (e *HookExecutor) ExecuteAfterScenario(scenario Scenario, status messages.TestStepResultStatus) error {
	return e.each(func(h *Hooks) {
		if h.AfterScenario != nil {
			h.AfterScenario(scenario, status)
		}
	})
}

func (e *HookExecutor) ExecuteBeforeStep(step Step) error {
	return e.each(func(h *Hooks) {
		if h.BeforeStep != nil {
			h.BeforeStep(step)
		}
	})
}

func (e *HookExecutor) ExecuteAfterStep(step Step, result *messages.TestStepResult) error {
	return e.each(func(h *Hooks) {
		if h.AfterStep != nil {
			h.AfterStep(step, result)
		}
	})
}
