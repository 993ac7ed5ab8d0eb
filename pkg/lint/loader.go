package lint

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// SnippetFilename is the file name diagnostics and positions refer to.
const SnippetFilename = "snippet.go"

const (
	parseMode = parser.ParseComments | parser.SkipObjectResolution

	// The //line directive maps the first snippet byte back to 1:1 so
	// reported positions are relative to the snippet, not the wrapper.
	lineDirective = "//line " + SnippetFilename + ":1:1\n"
	bodyPrefix    = "package snippet\n\nfunc _() {\n" + lineDirective
	bodySuffix    = "\n}\n"
	filePrefix    = "package snippet\n\n" + lineDirective
)

// parseSnippet parses src as a complete file when it starts with a package
// clause. Otherwise it tries src as a function body first, which covers
// expressions and statements, and then as top-level declarations.
func parseSnippet(fset *token.FileSet, src string) (*ast.File, error) {
	if hasPackageClause(src) {
		return parser.ParseFile(fset, SnippetFilename, src, parseMode)
	}

	file, err := parser.ParseFile(fset, SnippetFilename, bodyPrefix+src+bodySuffix, parseMode)
	if err == nil {
		return file, nil
	}
	if declFile, declErr := parser.ParseFile(fset, SnippetFilename, filePrefix+src, parseMode); declErr == nil {
		return declFile, nil
	}
	// Report the statement-level error; it is the more common intent.
	return nil, err
}

// hasPackageClause reports whether the first token of src is the package keyword.
func hasPackageClause(src string) bool {
	var s scanner.Scanner
	fset := token.NewFileSet()
	file := fset.AddFile("", -1, len(src))
	s.Init(file, []byte(src), nil, 0)
	_, tok, _ := s.Scan()
	return tok == token.PACKAGE
}

// fatalDiagnostic converts a parse error into the diagnostic reported in
// place of rule findings.
func fatalDiagnostic(err error) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "Parsing error: " + err.Error(),
		Fatal:    true,
	}
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		d.Message = "Parsing error: " + list[0].Msg
		d.Line = list[0].Pos.Line
		d.Column = list[0].Pos.Column
	}
	return d
}

// typeCheck type-checks the snippet together with a synthetic file that
// declares the configured globals. Type errors are tolerated: rules work on
// whatever information could be recorded.
func typeCheck(fset *token.FileSet, file *ast.File, globals map[string]bool) (*types.Package, *types.Info, map[types.Object]bool, error) {
	files := []*ast.File{file}
	if len(globals) > 0 {
		gf, err := parser.ParseFile(fset, "globals.go", globalsSource(file.Name.Name, globals), parseMode)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("declaring globals: %w", err)
		}
		files = append(files, gf)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
	var typeErrors int
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			typeErrors++
			slog.Debug("tolerating type error", "error", err)
		},
	}
	pkg, _ := conf.Check(file.Name.Name, fset, files, info)
	if typeErrors > 0 {
		slog.Debug("type checked snippet", "errors", typeErrors)
	}

	objs := make(map[types.Object]bool, len(globals))
	for name, writable := range globals {
		if obj := pkg.Scope().Lookup(name); obj != nil {
			objs[obj] = writable
		}
	}
	return pkg, info, objs, nil
}

// globalsSource renders the declarations of the configured globals.
func globalsSource(pkgName string, globals map[string]bool) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\nvar (\n", pkgName)
	for _, name := range slices.Sorted(maps.Keys(globals)) {
		fmt.Fprintf(&buf, "\t%s any\n", name)
	}
	buf.WriteString(")\n")
	return buf.String()
}

// validateGlobals rejects names that cannot be declared as Go identifiers.
func validateGlobals(globals map[string]bool) error {
	var invalid []string
	for name := range globals {
		if !token.IsIdentifier(name) {
			invalid = append(invalid, fmt.Sprintf("%q", name))
		}
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		return fmt.Errorf("%w: %s", ErrInvalidGlobal, strings.Join(invalid, ", "))
	}
	return nil
}
