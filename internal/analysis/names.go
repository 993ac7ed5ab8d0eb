// Package analysis provides naming helpers shared by the linter and the rule tester.
package analysis

import (
	"go/ast"
	"path"
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// NameCache caches the kind names of go/ast node types so diagnostics can
// carry a stable node type without repeated reflection.
type NameCache struct {
	kindCache *xsync.Map[reflect.Type, string]
}

func NewNameCache() *NameCache {
	return &NameCache{
		kindCache: xsync.NewMap[reflect.Type, string](),
	}
}

var defaultNames = NewNameCache()

// NodeType returns the kind name of n using the shared cache.
func NodeType(n ast.Node) string {
	return defaultNames.NodeType(n)
}

// NodeType returns the kind name of an AST node: the go/ast type name
// without package qualifier or pointer, e.g. "BinaryExpr" or "Ident".
// A nil node yields the empty string.
func (c *NameCache) NodeType(n ast.Node) string {
	if n == nil {
		return ""
	}
	typ := reflect.TypeOf(n)
	if name, ok := c.kindCache.Load(typ); ok {
		return name
	}
	name := computeKindName(typ)
	c.kindCache.Store(typ, name)
	return name
}

func computeKindName(typ reflect.Type) string {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if name := typ.Name(); name != "" {
		return name
	}
	// Unnamed types fall back to their full string form.
	return strings.TrimPrefix(typ.String(), "ast.")
}

// RuleName derives a rule identifier from a rule path the way rule authors
// refer to rules: the base name without directory or extension.
// "rules/typecheck-date.go" and "typecheck-date" both yield "typecheck-date".
func RuleName(rulePath string) string {
	base := path.Base(strings.ReplaceAll(rulePath, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
