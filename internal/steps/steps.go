// Package steps holds the canned step library of the fake-cucumber binary.
// Every step outcome the runner can report has a step that produces it.
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/denizgursoy/fake-cucumber/pkg/runner"
)

// ErrStepFailed is returned by the "a failed step" step.
var ErrStepFailed = errors.New("This step has failed")

// Register adds the canned step definitions to r.
func Register(r *runner.CucumberRunner) *runner.CucumberRunner {
	return r.
		RegisterStep(`^a passed step$`, Passed).
		RegisterStep(`^a failed step$`, Failed).
		RegisterStep(`^a step that panics$`, Panics).
		RegisterStep(`^an ambiguous step$`, Passed).
		RegisterStep(`^an? ambiguous (.*)$`, Echo).
		RegisterStep(`^I have (\d+) cukes in my belly$`, Cukes).
		RegisterStep(`^I wait (\d+) milliseconds?$`, Wait).
		RegisterStep(`^the answer is (-?\d+)$`, Answer)
}

func Passed() {}

func Failed() error {
	return ErrStepFailed
}

func Panics() {
	panic("this step panicked")
}

func Echo(text string) string {
	return text
}

// Cukes fails when the belly holds more than a thousand cukes.
func Cukes(count uint) error {
	if count > 1000 {
		return fmt.Errorf("%d cukes do not fit in a belly", count)
	}
	return nil
}

// Wait sleeps for the given number of milliseconds or until ctx is done.
func Wait(ctx context.Context, ms int) error {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func Answer(n int) error {
	if n != 42 {
		return fmt.Errorf("expected 42 but got %d", n)
	}
	return nil
}
