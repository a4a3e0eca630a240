package steps

import "context"

// HaveCukes
// @step `^I have {int} cukes$`
func HaveCukes(ctx context.Context, count int) error {
	return nil
}

// EatCukes
// @step `^I eat (\d{1,3}) cukes$`
func EatCukes(count int) {}

// helper is not exported and never registered.
// @step `^a hidden step$`
func helper() {}

// Describe has no step annotation.
func Describe() string {
	return "cukes"
}
