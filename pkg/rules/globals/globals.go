// Package globals provides rules about identifiers that are neither declared
// by the snippet nor configured as globals.
package globals

import (
	"go/ast"
	"go/token"
	"slices"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/715d/rulecheck/pkg/lint"
)

const (
	// NoUndefID reports references to undeclared identifiers.
	NoUndefID = "no-undef"

	// NoGlobalAssignID reports writes to read-only globals.
	NoGlobalAssignID = "no-global-assign"
)

func init() {
	lint.Register(NoUndefID, lint.NodeRule(
		"Disallow the use of undeclared identifiers unless configured as globals",
		[]ast.Node{(*ast.Ident)(nil)},
		checkUndef,
	))
	lint.Register(NoGlobalAssignID, lint.SimpleRule(
		"Disallow assignments to read-only globals",
		checkGlobalAssign,
	))
}

func checkUndef(ctx *lint.Context, n ast.Node) {
	id := n.(*ast.Ident)
	if id.Name == "_" {
		return
	}
	if _, ok := ctx.Info.Defs[id]; ok {
		return
	}
	if _, ok := ctx.Info.Uses[id]; ok {
		return
	}
	if isFieldName(ctx.File, id) {
		return
	}
	ctx.Reportf(id, "'%s' is not defined.", id.Name)
}

// isFieldName reports whether id names a field or method rather than
// referring to a declaration: the selector of x.id, or the key of a composite
// literal element whose type could not be resolved.
func isFieldName(file *ast.File, id *ast.Ident) bool {
	path, _ := astutil.PathEnclosingInterval(file, id.Pos(), id.End())
	if len(path) < 2 || path[0] != id {
		return false
	}
	switch parent := path[1].(type) {
	case *ast.SelectorExpr:
		return parent.Sel == id
	case *ast.KeyValueExpr:
		if parent.Key != id || len(path) < 3 {
			return false
		}
		_, inLiteral := path[2].(*ast.CompositeLit)
		return inLiteral
	}
	return false
}

type assignOptions struct {
	// Exceptions lists read-only globals that may be assigned anyway.
	Exceptions []string `yaml:"exceptions"`
}

func checkGlobalAssign(ctx *lint.Context) error {
	var opts assignOptions
	if err := ctx.DecodeOptions(&opts); err != nil {
		return err
	}

	check := func(e ast.Expr) {
		id, ok := ast.Unparen(e).(*ast.Ident)
		if !ok || slices.Contains(opts.Exceptions, id.Name) {
			return
		}
		if writable, ok := ctx.Global(id); ok && !writable {
			ctx.Reportf(id, "Read-only global '%s' should not be modified.", id.Name)
		}
	}

	types := []ast.Node{(*ast.AssignStmt)(nil), (*ast.IncDecStmt)(nil), (*ast.RangeStmt)(nil)}
	ctx.Inspector.Preorder(types, func(n ast.Node) {
		switch s := n.(type) {
		case *ast.AssignStmt:
			if s.Tok == token.DEFINE {
				return
			}
			for _, lhs := range s.Lhs {
				check(lhs)
			}
		case *ast.IncDecStmt:
			check(s.X)
		case *ast.RangeStmt:
			if s.Tok != token.ASSIGN {
				return
			}
			if s.Key != nil {
				check(s.Key)
			}
			if s.Value != nil {
				check(s.Value)
			}
		}
	})
	return nil
}
