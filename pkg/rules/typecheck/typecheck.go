// Package typecheck provides rules that flag comparisons of type names as
// strings where a type assertion or type switch says the same thing.
//
// A comparison is flagged when one side is a string literal naming a type of
// the rule's family and the other side is a type probe, such as
// reflect.TypeOf(x).String() or fmt.Sprintf("%T", x), or when neither side is
// a probe but a literal still names the family.
package typecheck

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"github.com/715d/rulecheck/pkg/lint"
)

// family describes one rule of the package.
type family struct {
	id      string
	desc    string
	message string
	match   func(name string) bool
}

func oneOf(names ...string) func(string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

var families = []family{
	{
		id:      "typecheck-date",
		desc:    "Compare time values with a type assertion instead of their type name",
		message: "You should use a time.Time type assertion",
		match:   oneOf("time.Time", "*time.Time"),
	},
	{
		id:      "typecheck-string",
		desc:    "Compare strings with a type assertion instead of their type name",
		message: "You should use a string type assertion",
		match:   oneOf("string", "*string"),
	},
	{
		id:      "typecheck-number",
		desc:    "Detect numbers with a type switch instead of their type name",
		message: "You should use a numeric type switch",
		match: oneOf(
			"int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64",
			"float32", "float64",
		),
	},
	{
		id:      "typecheck-function",
		desc:    "Detect functions with a reflect.Func kind check instead of their type name",
		message: "You should use a reflect.Func kind check",
		match: func(name string) bool {
			return name == "func" || strings.HasPrefix(name, "func(")
		},
	},
	{
		id:      "typecheck-object",
		desc:    "Detect maps and structs with a type assertion instead of their type name",
		message: "You should use a map or struct type assertion",
		match:   oneOf("struct", "map[string]interface {}", "map[string]any"),
	},
}

func init() {
	for _, f := range families {
		lint.Register(f.id, f.rule())
	}
}

func (f family) rule() lint.Rule {
	return lint.NodeRule(f.desc, []ast.Node{(*ast.BinaryExpr)(nil)}, func(ctx *lint.Context, n ast.Node) {
		cmp := n.(*ast.BinaryExpr)
		if cmp.Op != token.EQL && cmp.Op != token.NEQ {
			return
		}
		if f.flags(cmp) {
			ctx.Report(cmp, f.message)
		}
	})
}

// flags reports whether cmp compares a type name of the family.
func (f family) flags(cmp *ast.BinaryExpr) bool {
	switch {
	case isTypeProbe(cmp.X):
		return f.namesFamily(cmp.Y)
	case isTypeProbe(cmp.Y):
		return f.namesFamily(cmp.X)
	}
	return f.namesFamily(cmp.X) || f.namesFamily(cmp.Y)
}

func (f family) namesFamily(e ast.Expr) bool {
	name, ok := stringLiteral(e)
	return ok && f.match(name)
}

func stringLiteral(e ast.Expr) (string, bool) {
	lit, ok := ast.Unparen(e).(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// isTypeProbe reports whether e renders the dynamic type of a value as a
// string: reflect.TypeOf(x).String(), reflect.ValueOf(x).Type().String() or
// fmt.Sprintf("%T", x).
func isTypeProbe(e ast.Expr) bool {
	call, ok := ast.Unparen(e).(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	if isPkgFunc(sel, "fmt", "Sprintf") {
		if len(call.Args) != 2 {
			return false
		}
		format, ok := stringLiteral(call.Args[0])
		return ok && format == "%T"
	}

	if sel.Sel.Name != "String" || len(call.Args) != 0 {
		return false
	}
	inner, ok := ast.Unparen(sel.X).(*ast.CallExpr)
	if !ok {
		return false
	}
	innerSel, ok := inner.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	if isPkgFunc(innerSel, "reflect", "TypeOf") {
		return true
	}
	// reflect.ValueOf(x).Type()
	if innerSel.Sel.Name == "Type" && len(inner.Args) == 0 {
		if valueOf, ok := ast.Unparen(innerSel.X).(*ast.CallExpr); ok {
			if vs, ok := valueOf.Fun.(*ast.SelectorExpr); ok {
				return isPkgFunc(vs, "reflect", "ValueOf")
			}
		}
	}
	return false
}

func isPkgFunc(sel *ast.SelectorExpr, pkg, name string) bool {
	id, ok := sel.X.(*ast.Ident)
	return ok && id.Name == pkg && sel.Sel.Name == name
}
