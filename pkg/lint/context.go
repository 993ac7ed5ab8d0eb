package lint

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/inspector"
	yaml "gopkg.in/yaml.v3"

	"github.com/715d/rulecheck/internal/analysis"
)

// Context provides a rule with the parsed snippet, its type information and
// the configuration the rule was enabled with.
type Context struct {
	// ID is the id the rule was enabled under.
	ID string

	// Options are the rule options from RuleConfig.
	Options []any

	// Settings are the settings shared by all rules.
	Settings map[string]any

	// Fset positions every node of File.
	Fset *token.FileSet

	// File is the parsed snippet.
	File *ast.File

	// Pkg and Info hold the type-checking results. Type errors do not stop
	// checking, so unresolved identifiers simply have no entry in Info.
	Pkg  *types.Package
	Info *types.Info

	// Inspector walks File.
	Inspector *inspector.Inspector

	severity Severity
	globals  map[types.Object]bool
	report   func(Diagnostic)
}

// Report records a finding at node.
func (ctx *Context) Report(node ast.Node, message string) {
	pos := ctx.Fset.Position(node.Pos())
	ctx.report(Diagnostic{
		RuleID:   ctx.ID,
		Severity: ctx.severity,
		Message:  message,
		NodeType: analysis.NodeType(node),
		Line:     pos.Line,
		Column:   pos.Column,
	})
}

// Reportf records a finding at node with a formatted message.
func (ctx *Context) Reportf(node ast.Node, format string, args ...any) {
	ctx.Report(node, fmt.Sprintf(format, args...))
}

// Severity returns the severity the rule was enabled with.
func (ctx *Context) Severity() Severity {
	return ctx.severity
}

// Setting returns the shared setting stored under key.
func (ctx *Context) Setting(key string) (any, bool) {
	v, ok := ctx.Settings[key]
	return v, ok
}

// Global reports whether id refers to a configured global and, if so,
// whether that global may be assigned.
func (ctx *Context) Global(id *ast.Ident) (writable, ok bool) {
	obj := ctx.Info.Uses[id]
	if obj == nil {
		return false, false
	}
	writable, ok = ctx.globals[obj]
	return writable, ok
}

// DecodeOptions decodes the first rule option into dst. Missing options leave
// dst untouched.
func (ctx *Context) DecodeOptions(dst any) error {
	if len(ctx.Options) == 0 {
		return nil
	}
	return DecodeOptions(ctx.Options[0], dst)
}

// DecodeOptions converts a loosely typed option value, as produced by YAML
// fixtures or Go literals, into dst by round-tripping it through YAML.
func DecodeOptions(opts, dst any) error {
	if opts == nil {
		return nil
	}
	data, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	return nil
}
