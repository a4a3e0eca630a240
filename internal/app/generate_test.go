package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/denizgursoy/fake-cucumber/internal/generator"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGenerateCmd(t *testing.T) {
	moduleDir := func(t *testing.T) string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/shop\n"), 0o644))
		return dir
	}

	t.Run("should call code parser for every directory and merge the results", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := NewMockGoCodeParser(controller)

		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), "/etc").
			Return(&generator.Output{StepFunctions: []*generator.StepFunctionLocator{{
				StepName:        "^step 1$",
				FunctionLocator: &generator.FunctionLocator{FullPackageName: "example.com/shop/one", FunctionName: "Step1"},
			}}}, nil).
			Times(1)
		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), "/home").
			Return(&generator.Output{StepFunctions: []*generator.StepFunctionLocator{{
				StepName:        "^step 2$",
				FunctionLocator: &generator.FunctionLocator{FullPackageName: "example.com/shop/two", FunctionName: "Step2"},
			}}}, nil).
			Times(1)

		out := filepath.Join(moduleDir(t), generator.GeneratedFileName)
		cmd := New(testSteps, mockGoCodeParser).NewRootCmd()
		cmd.SetArgs([]string{"generate", "--code", "/etc,/home", "--out", out})
		require.NoError(t, cmd.Execute())

		content, err := os.ReadFile(out)
		require.NoError(t, err)
		require.Contains(t, string(content), `RegisterStep("^step 1$", one.Step1)`)
		require.Contains(t, string(content), `RegisterStep("^step 2$", two.Step2)`)
	})

	t.Run("should call code parser with the working directory", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := NewMockGoCodeParser(controller)

		dir, err := os.Getwd()
		require.NoError(t, err)
		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), dir).
			Return(&generator.Output{}, nil).
			Times(1)

		out := filepath.Join(moduleDir(t), generator.GeneratedFileName)
		cmd := New(testSteps, mockGoCodeParser).NewRootCmd()
		cmd.SetArgs([]string{"generate", "--out", out})
		require.NoError(t, cmd.Execute())
		require.FileExists(t, out)
	})

	t.Run("should return the parser error without writing", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := NewMockGoCodeParser(controller)
		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), "/etc").
			Return(nil, errors.New("unknown parameter type")).
			Times(1)

		out := filepath.Join(moduleDir(t), generator.GeneratedFileName)
		cmd := New(testSteps, mockGoCodeParser).NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"generate", "--code", "/etc", "--out", out})

		require.ErrorContains(t, cmd.Execute(), "could not parse /etc: unknown parameter type")
		require.NoFileExists(t, out)
	})
}
