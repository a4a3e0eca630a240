package steps

import "github.com/denizgursoy/fake-cucumber/pkg/support"

// Config returns configuration settings
func Config() *support.Config {
	return &support.Config{FailFast: true}
}

// Hooks returns lifecycle hooks
func Hooks() *support.Hooks {
	return &support.Hooks{
		Order: 10,
		BeforeAll: func() {
		},
	}
}

// NamedConfig takes a parameter and is not a provider.
func NamedConfig(name string) *support.Config {
	return &support.Config{Tags: name}
}
