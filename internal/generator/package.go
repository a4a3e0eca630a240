package generator

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// DetectPackage returns the Go package name of dir and its full import path.
// The import path is empty when no go.mod is found above dir.
func DetectPackage(dir string) (pkgName string, pkgPath string, err error) {
	pkgName, err = detectPackageName(dir)
	if err != nil {
		return "", "", err
	}

	pkgPath, err = DetectImportPath(dir)
	if err != nil {
		return pkgName, "", err
	}

	return pkgName, pkgPath, nil
}

// detectPackageName reads the package clause of the Go files in dir. If there
// are none it derives the name from the module path or the directory name.
func detectPackageName(dir string) (string, error) {
	fset := token.NewFileSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || name == GeneratedFileName {
			continue
		}

		f, parseErr := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if parseErr != nil {
			continue
		}
		if f.Name != nil && f.Name.Name != "" {
			return strings.TrimSuffix(f.Name.Name, "_test"), nil
		}
	}

	return packageNameFromDir(dir)
}

func packageNameFromDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if modulePath, readErr := readModulePath(filepath.Join(absDir, "go.mod")); readErr == nil {
		if name := sanitizePackageName(filepath.Base(modulePath)); name != "" {
			return name, nil
		}
	}

	if name := sanitizePackageName(filepath.Base(absDir)); name != "" {
		return name, nil
	}

	return "", fmt.Errorf("cannot derive package name from directory %s", dir)
}

// sanitizePackageName lowercases raw and replaces characters that are not
// valid in a package name.
func sanitizePackageName(raw string) string {
	if raw == "" || raw == "." || raw == "/" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r == '-' || r == '.':
			if i == 0 {
				continue
			}
			b.WriteRune('_')
		}
	}

	name := b.String()
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// DetectImportPath walks up from dir to the nearest go.mod and joins its
// module path with the relative directory.
func DetectImportPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	current := absDir
	for {
		goModPath := filepath.Join(current, "go.mod")
		if _, statErr := os.Stat(goModPath); statErr == nil {
			modulePath, err := readModulePath(goModPath)
			if err != nil {
				return "", err
			}

			rel, err := filepath.Rel(current, absDir)
			if err != nil {
				return "", err
			}
			if rel == "." {
				return modulePath, nil
			}
			return modulePath + "/" + filepath.ToSlash(rel), nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		current = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", err
	}

	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return "", fmt.Errorf("cannot parse go.mod %s: missing module directive", goModPath)
	}
	return modulePath, nil
}
