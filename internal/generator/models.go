package generator

import (
	"io"

	"github.com/dave/jennifer/jen"
)

const (
	runnerPackage  = "github.com/denizgursoy/fake-cucumber/pkg/runner"
	supportPackage = "github.com/denizgursoy/fake-cucumber/pkg/support"

	// GeneratedFileName is the test file written by the generate command.
	GeneratedFileName = "fake_cucumber_test.go"
)

type (
	FunctionLocator struct {
		FullPackageName string
		FunctionName    string
	}

	StepFunctionLocator struct {
		StepName string
		*FunctionLocator
	}

	Output struct {
		ConfigFunctions    []*FunctionLocator // Functions returning *support.Config
		HooksFunctions     []*FunctionLocator // Functions returning *support.Hooks
		StepFunctions      []*StepFunctionLocator
		CurrentPackagePath string // Full import path of the package the test file is generated into
		PackageName        string // Short package name; if empty, defaults to "main"
	}
)

// isSamePackage returns true when the function is in the same package as the
// generated test file and therefore should be called without an import qualifier.
func (o *Output) isSamePackage(fullPkg string) bool {
	return o.CurrentPackagePath != "" && fullPkg == o.CurrentPackagePath
}

func (o *Output) qualOrLocal(fullPkg, funcName string) *jen.Statement {
	if o.isSamePackage(fullPkg) {
		return jen.Id(funcName)
	}
	return jen.Qual(fullPkg, funcName)
}

// Generate writes a Go test that registers every step function with a
// CucumberRunner, runs it and fails the test when the run is unsuccessful.
func (o *Output) Generate(writer io.Writer) error {
	pkgName := o.PackageName
	if pkgName == "" {
		pkgName = "main"
	}
	file := jen.NewFile(pkgName)
	file.HeaderComment("Code generated by fake-cucumber generate. DO NOT EDIT.")

	var statements []jen.Code

	if len(o.ConfigFunctions) > 0 {
		configCalls := make([]jen.Code, 0, len(o.ConfigFunctions))
		for _, cf := range o.ConfigFunctions {
			configCalls = append(configCalls, o.qualOrLocal(cf.FullPackageName, cf.FunctionName).Call())
		}
		statements = append(statements,
			jen.Id("config").Op(":=").Qual(supportPackage, "MergeConfigs").Call(configCalls...),
		)
	}

	if len(o.HooksFunctions) > 0 {
		hooksCalls := make([]jen.Code, 0, len(o.HooksFunctions))
		for _, hf := range o.HooksFunctions {
			hooksCalls = append(hooksCalls, o.qualOrLocal(hf.FullPackageName, hf.FunctionName).Call())
		}
		statements = append(statements,
			jen.Id("hooks").Op(":=").Index().Op("*").Qual(supportPackage, "Hooks").Values(hooksCalls...),
		)
	}

	runnerChain := jen.List(jen.Id("result"), jen.Id("err")).Op(":=").Qual(runnerPackage, "NewCucumberRunner").Call().Op(".").Line()

	if len(o.ConfigFunctions) > 0 {
		runnerChain.Id("WithConfig").Call(jen.Id("config")).Op(".").Line()
	}
	if len(o.HooksFunctions) > 0 {
		runnerChain.Id("WithHooks").Call(jen.Id("hooks").Op("...")).Op(".").Line()
	}
	for _, function := range o.StepFunctions {
		runnerChain.Id("RegisterStep").Call(
			jen.Lit(function.StepName),
			o.qualOrLocal(function.FullPackageName, function.FunctionName),
		).Op(".").Line()
	}
	runnerChain.Id("Run").Call(jen.Qual("context", "Background").Call())

	statements = append(statements,
		runnerChain,
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatal").Call(jen.Id("err")),
		),
		jen.If(jen.Op("!").Id("result").Dot("Success")).Block(
			jen.Id("t").Dot("Fail").Call(),
		),
	)

	file.Func().Id("TestFakeCucumber").Params(
		jen.Id("t").Op("*").Qual("testing", "T"),
	).Block(statements...)

	return file.Render(writer)
}
