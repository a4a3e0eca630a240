package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/denizgursoy/fake-cucumber/pkg/formatter"
	"github.com/denizgursoy/fake-cucumber/pkg/reporter"
	"github.com/denizgursoy/fake-cucumber/pkg/runner"
	"github.com/denizgursoy/fake-cucumber/pkg/support"
	"github.com/spf13/cobra"
)

// ErrRunFailed is returned when at least one scenario did not succeed.
var ErrRunFailed = errors.New("test run failed")

const defaultDebounce = 500 * time.Millisecond

type (
	// StepLibrary registers step definitions on a runner.
	StepLibrary func(*runner.CucumberRunner) *runner.CucumberRunner

	Application struct {
		steps      StepLibrary
		hooks      []*support.Hooks
		codeParser GoCodeParser
		debounce   time.Duration
	}
)

func New(steps StepLibrary, codeParser GoCodeParser, hooks ...*support.Hooks) *Application {
	return &Application{
		steps:      steps,
		hooks:      hooks,
		codeParser: codeParser,
		debounce:   defaultDebounce,
	}
}

// NewRootCmd creates the root command. Positional arguments are the
// directories searched for feature files.
func (a *Application) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fake-cucumber [paths...]",
		Short:         "Run Gherkin features against Go step definitions",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       runner.Version,
		RunE:          a.runE,
	}

	flags := root.Flags()
	flags.StringP("config", "c", "", "YAML config file; flags override its settings")
	flags.StringP("tags", "t", "", "only run scenarios matching the tag expression")
	flags.Bool("fail-fast", false, "stop after the first failed scenario")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "f", support.FormatPretty, "output format: pretty or ndjson")
	flags.StringP("out", "o", "", "write the formatter output to a file instead of stdout")
	flags.String("html", "", "write an HTML report to the given path")
	flags.IntP("parallel", "p", 0, "number of scenarios to run concurrently")
	flags.BoolP("verbose", "v", false, "log debug messages to stderr")
	flags.BoolP("watch", "w", false, "re-run when feature files change")

	root.AddCommand(a.newGenerateCmd())

	return root
}

func (a *Application) runE(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	result, err := a.runOnce(cmd.Context(), cmd, config)
	if err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return a.watch(cmd.Context(), cmd, config)
	}

	if !result.Success {
		return ErrRunFailed
	}
	return nil
}

// loadConfig starts from the config file and applies the flags that were set
// explicitly on top of it, so a flag can also switch a file setting off.
func loadConfig(cmd *cobra.Command, args []string) (*support.Config, error) {
	flags := cmd.Flags()

	var fileConfig *support.Config
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := support.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		fileConfig = loaded
	}

	config := support.MergeConfigs(fileConfig)
	applyFlags(config, cmd, args)

	switch config.Format {
	case "":
		config.Format = support.FormatPretty
	case support.FormatPretty, support.FormatNDJSON:
	default:
		return nil, fmt.Errorf("unknown format %q: expected %s or %s", config.Format, support.FormatPretty, support.FormatNDJSON)
	}

	level := slog.LevelWarn
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	config.Logger = support.NewSlogLogger(cmd.ErrOrStderr(), level)
	if config.DisableLog {
		config.Logger = support.NopLogger()
	}

	return config, nil
}

func applyFlags(config *support.Config, cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	if len(args) > 0 {
		config.Paths = args
	}
	if flags.Changed("tags") {
		config.Tags, _ = flags.GetString("tags")
	}
	if flags.Changed("format") {
		config.Format, _ = flags.GetString("format")
	}
	if flags.Changed("out") {
		config.Output, _ = flags.GetString("out")
	}
	if flags.Changed("html") {
		config.HTMLReport, _ = flags.GetString("html")
	}
	if flags.Changed("parallel") {
		config.Parallel, _ = flags.GetInt("parallel")
	}
	if flags.Changed("fail-fast") {
		config.FailFast, _ = flags.GetBool("fail-fast")
	}
	if flags.Changed("no-color") {
		config.NoColor, _ = flags.GetBool("no-color")
	}
}

func (a *Application) runOnce(ctx context.Context, cmd *cobra.Command, config *support.Config) (*runner.RunResult, error) {
	var out io.Writer = cmd.OutOrStdout()
	if config.Output != "" {
		f, err := os.Create(config.Output)
		if err != nil {
			return nil, fmt.Errorf("could not create output file %q: %w", config.Output, err)
		}
		defer f.Close()
		out = f
	}

	r := runner.NewCucumberRunner().
		WithConfig(config).
		WithHooks(a.hooks...)

	switch {
	case config.Format == support.FormatNDJSON:
		r.WithEnvelopeHandler(formatter.NewNDJSONWriter(out))
	case !config.DisableReporter:
		r.WithReporter(reporter.NewConsoleReporter(out, !config.NoColor))
	}

	result, err := a.steps(r).Run(ctx)
	if err != nil {
		return nil, err
	}

	if config.HTMLReport != "" {
		if err := reporter.GenerateHTMLReport(config.HTMLReport, reporter.Report{
			Scenarios: result.Scenarios,
			Summary:   result.Summary,
			StartedAt: result.StartedAt,
			Duration:  result.Duration,
		}); err != nil {
			return nil, err
		}
	}

	return result, nil
}
