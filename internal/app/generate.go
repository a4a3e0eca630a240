package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/denizgursoy/fake-cucumber/internal/generator"
	"github.com/spf13/cobra"
)

func (a *Application) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Go test that runs the annotated step functions",
		Long: "generate scans Go sources for functions annotated with // @step `pattern`\n" +
			"and writes a test that registers them with the runner. Functions returning\n" +
			"*support.Config or *support.Hooks are wired in as well.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, _ := cmd.Flags().GetStringSlice("code")
			out, _ := cmd.Flags().GetString("out")
			return a.generate(cmd.Context(), sources, out)
		},
	}
	cmd.Flags().StringSlice("code", nil, "directories to search for functions separated by comma (default: working directory)")
	cmd.Flags().StringP("out", "o", generator.GeneratedFileName, "file the test is written to")

	return cmd
}

func (a *Application) generate(ctx context.Context, sources []string, outPath string) error {
	if len(sources) == 0 {
		directory, err := os.Getwd()
		if err != nil {
			return err
		}
		sources = append(sources, directory)
	}

	merged := &generator.Output{StepFunctions: make([]*generator.StepFunctionLocator, 0)}
	for _, source := range sources {
		output, err := a.codeParser.ParseFunctionCommentsOfGoFilesInDirectoryRecursively(ctx, source)
		if err != nil {
			return fmt.Errorf("could not parse %s: %w", source, err)
		}
		merged.ConfigFunctions = append(merged.ConfigFunctions, output.ConfigFunctions...)
		merged.HooksFunctions = append(merged.HooksFunctions, output.HooksFunctions...)
		merged.StepFunctions = append(merged.StepFunctions, output.StepFunctions...)
	}

	pkgName, pkgPath, err := generator.DetectPackage(filepath.Dir(outPath))
	if err != nil && pkgName == "" {
		return err
	}
	merged.PackageName = pkgName
	merged.CurrentPackagePath = pkgPath

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return merged.Generate(f)
}
