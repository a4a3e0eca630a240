package support

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	FormatPretty = "pretty"
	FormatNDJSON = "ndjson"
)

// Config holds runtime configuration settings.
// Settings are merged from the config file and CLI flags (last wins).
type Config struct {
	// FailFast stops scheduling new scenarios after the first failure.
	FailFast bool `yaml:"failFast"`

	// NoColor disables colored output.
	NoColor bool `yaml:"noColor"`

	// DisableLog replaces the logger with a no-op logger.
	DisableLog bool `yaml:"disableLog"`

	// DisableReporter disables the pretty reporter output.
	DisableReporter bool `yaml:"disableReporter"`

	// Tags is a tag expression such as "@smoke and not @wip".
	Tags string `yaml:"tags"`

	// Paths are the directories searched for .feature files.
	Paths []string `yaml:"paths"`

	// Parallel is the number of scenarios run concurrently. Values below 2
	// run sequentially.
	Parallel int `yaml:"parallel"`

	// Format selects the output written to Output: "pretty" or "ndjson".
	Format string `yaml:"format"`

	// Output is the file the formatter writes to. Empty means stdout.
	Output string `yaml:"output"`

	// HTMLReport is the path of an HTML report written after the run.
	HTMLReport string `yaml:"htmlReport"`

	// Logger sets a custom logger. If nil, a no-op logger is used.
	Logger Logger `yaml:"-"`
}

// MergeConfigs combines multiple configs into one.
// Later configs override earlier ones (last wins). A boolean setting enabled
// by any config stays enabled; callers that need to switch one off assign
// the field on the merged result.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		result.FailFast = result.FailFast || cfg.FailFast
		result.NoColor = result.NoColor || cfg.NoColor
		result.DisableLog = result.DisableLog || cfg.DisableLog
		result.DisableReporter = result.DisableReporter || cfg.DisableReporter

		if cfg.Tags != "" {
			result.Tags = cfg.Tags
		}
		if len(cfg.Paths) > 0 {
			result.Paths = cfg.Paths
		}
		if cfg.Parallel > 0 {
			result.Parallel = cfg.Parallel
		}
		if cfg.Format != "" {
			result.Format = cfg.Format
		}
		if cfg.Output != "" {
			result.Output = cfg.Output
		}
		if cfg.HTMLReport != "" {
			result.HTMLReport = cfg.HTMLReport
		}
		if cfg.Logger != nil {
			result.Logger = cfg.Logger
		}
	}

	return result
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	switch cfg.Format {
	case "", FormatPretty, FormatNDJSON:
	default:
		return nil, fmt.Errorf("unknown format %q in %s", cfg.Format, path)
	}

	return cfg, nil
}
