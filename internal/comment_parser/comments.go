package comment_parser

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/denizgursoy/fake-cucumber/internal/generator"
)

const (
	StepPrefix   = "@step"
	SpaceAndTick = " `"
)

// builtInTypes maps placeholder names to the regular expression they expand to.
var builtInTypes = map[string]string{
	"int":    `(-?\d+)`,
	"float":  `(-?\d*\.?\d+)`,
	"word":   `(\w+)`,
	"string": `"([^"]*)"`,
	"":       `(.*)`,
	"any":    `(.*)`,
}

type GoSourceFileParser struct {
}

func NewGoSourceFileParser() *GoSourceFileParser {
	return &GoSourceFileParser{}
}

// ParseFunctionCommentsOfGoFilesInDirectoryRecursively collects annotated
// step functions together with config and hooks providers from every non-test
// Go file below parentDirectory.
func (g *GoSourceFileParser) ParseFunctionCommentsOfGoFilesInDirectoryRecursively(ctx context.Context, parentDirectory string) (
	*generator.Output, error) {
	output := &generator.Output{
		StepFunctions: make([]*generator.StepFunctionLocator, 0),
	}
	importPaths := make(map[string]string)

	err := filepath.WalkDir(parentDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != parentDirectory && (strings.HasPrefix(d.Name(), ".") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		node, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
		if err != nil {
			return err
		}

		dir := filepath.Dir(path)
		importPath, ok := importPaths[dir]
		if !ok {
			importPath, err = generator.DetectImportPath(dir)
			if err != nil {
				return err
			}
			importPaths[dir] = importPath
		}

		return collectFunctions(output, node, importPath)
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

func collectFunctions(output *generator.Output, node *ast.File, importPath string) error {
	for _, dec := range node.Decls {
		decl, ok := dec.(*ast.FuncDecl)
		if !ok || decl.Recv != nil || !decl.Name.IsExported() {
			continue
		}

		locator := &generator.FunctionLocator{
			FullPackageName: importPath,
			FunctionName:    decl.Name.Name,
		}

		if step, isStepFunction := IsStepFunction(decl); isStepFunction {
			transformedStep, err := transformStepPattern(*step)
			if err != nil {
				return fmt.Errorf("error in function %s: %w", decl.Name.Name, err)
			}
			output.StepFunctions = append(output.StepFunctions, &generator.StepFunctionLocator{
				StepName:        transformedStep,
				FunctionLocator: locator,
			})
			continue
		}

		switch providerType(decl) {
		case "Config":
			output.ConfigFunctions = append(output.ConfigFunctions, locator)
		case "Hooks":
			output.HooksFunctions = append(output.HooksFunctions, locator)
		}
	}

	return nil
}

// transformStepPattern replaces {typename} placeholders with regex patterns.
func transformStepPattern(pattern string) (string, error) {
	result := pattern
	start := 0

	for {
		openBrace := strings.Index(result[start:], "{")
		if openBrace == -1 {
			break
		}
		openBrace += start

		closeBrace := strings.Index(result[openBrace:], "}")
		if closeBrace == -1 {
			break
		}
		closeBrace += openBrace

		typeName := result[openBrace+1 : closeBrace]
		// regex quantifiers such as {2} or {1,3} stay untouched
		if isQuantifier(typeName) {
			start = closeBrace + 1
			continue
		}

		regexPattern, ok := builtInTypes[strings.ToLower(typeName)]
		if !ok {
			return "", fmt.Errorf("unknown parameter type {%s} in step pattern", typeName)
		}

		result = result[:openBrace] + regexPattern + result[closeBrace+1:]
		start = openBrace + len(regexPattern)
	}

	return result, nil
}

func isQuantifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' {
			return false
		}
	}
	return true
}

// providerType returns "Config" or "Hooks" for parameterless functions that
// return *support.Config or *support.Hooks, and "" for anything else.
func providerType(fnDecl *ast.FuncDecl) string {
	if fnDecl.Type.Params != nil && len(fnDecl.Type.Params.List) > 0 {
		return ""
	}
	if fnDecl.Type.Results == nil || len(fnDecl.Type.Results.List) != 1 {
		return ""
	}

	switch analyzeExpr(fnDecl.Type.Results.List[0].Type) {
	case "*support.Config":
		return "Config"
	case "*support.Hooks":
		return "Hooks"
	default:
		return ""
	}
}

func IsStepFunction(decl *ast.FuncDecl) (*string, bool) {
	with := GetCommentLineStartingWith(StepPrefix, decl)
	if with != nil {
		return with, true
	}
	return nil, false
}

// GetCommentLineStartingWith returns the back-quoted text of the first doc
// comment line of the form "// <keyword> `...`".
func GetCommentLineStartingWith(keyword string, fnDecl *ast.FuncDecl) *string {
	if fnDecl.Doc == nil {
		return nil
	}

	prefix := fmt.Sprintf("// %s%s", keyword, SpaceAndTick)
	for _, comment := range fnDecl.Doc.List {
		text := strings.TrimRight(comment.Text, " \t")
		if !strings.HasPrefix(text, prefix) || !strings.HasSuffix(text, "`") {
			continue
		}
		stepDefinition := text[len(prefix) : len(text)-1]
		if stepDefinition != "" {
			return &stepDefinition
		}
	}
	return nil
}

func analyzeExpr(expr ast.Expr) string {
	switch expr := expr.(type) {
	case *ast.Ident:
		return expr.Name
	case *ast.SelectorExpr:
		return fmt.Sprintf("%s.%s", analyzeExpr(expr.X), expr.Sel.Name)
	case *ast.StarExpr:
		return "*" + analyzeExpr(expr.X)
	case *ast.ParenExpr:
		return "(" + analyzeExpr(expr.X) + ")"
	case *ast.ArrayType:
		return "[]" + analyzeExpr(expr.Elt)
	case *ast.MapType:
		return "map[" + analyzeExpr(expr.Key) + "]" + analyzeExpr(expr.Value)
	default:
		return "unknown"
	}
}
