// Package service provides rules that steer code toward injected services
// instead of process-wide defaults.
package service

import (
	"go/ast"
	"go/types"
	"slices"

	"github.com/715d/rulecheck/pkg/lint"
)

// NoDefaultHTTPClientID reports uses of the default HTTP client.
const NoDefaultHTTPClientID = "no-default-http-client"

const (
	message = "You should use an injected *http.Client instead of the default client"

	// packageSetting overrides the identifier net/http is imported as.
	packageSetting = "httpPackage"
)

// defaultClientMembers are the net/http members backed by http.DefaultClient.
var defaultClientMembers = []string{"DefaultClient", "Get", "Head", "Post", "PostForm"}

type options struct {
	// Allow lists members that may be used anyway.
	Allow []string `yaml:"allow"`
}

func init() {
	lint.Register(NoDefaultHTTPClientID, lint.SimpleRule(
		"Disallow net/http helpers that use the default client",
		check,
	))
}

func check(ctx *lint.Context) error {
	var opts options
	if err := ctx.DecodeOptions(&opts); err != nil {
		return err
	}

	pkg := "http"
	if v, ok := ctx.Setting(packageSetting); ok {
		if s, ok := v.(string); ok && s != "" {
			pkg = s
		}
	}

	ctx.Inspector.Preorder([]ast.Node{(*ast.SelectorExpr)(nil)}, func(n ast.Node) {
		sel := n.(*ast.SelectorExpr)
		id, ok := sel.X.(*ast.Ident)
		if !ok || id.Name != pkg {
			return
		}
		name := sel.Sel.Name
		if !slices.Contains(defaultClientMembers, name) || slices.Contains(opts.Allow, name) {
			return
		}
		if shadowed(ctx, id) {
			return
		}
		ctx.Report(sel, message)
	})
	return nil
}

// shadowed reports whether id resolves to something other than an imported
// package or a configured global, such as a local variable named http.
// Unresolved identifiers are taken to be the package.
func shadowed(ctx *lint.Context, id *ast.Ident) bool {
	obj := ctx.Info.Uses[id]
	if obj == nil {
		return false
	}
	if _, ok := obj.(*types.PkgName); ok {
		return false
	}
	_, global := ctx.Global(id)
	return !global
}
