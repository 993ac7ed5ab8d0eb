package lint

import (
	"go/ast"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// Rule defines the interface that all linting rules must implement.
// A rule inspects the parsed snippet available on the Context and reports
// findings through Context.Report. The rule id is assigned when the rule is
// registered, so a single implementation may be defined under several ids.
type Rule interface {
	// Description returns a human-readable description of what the rule checks.
	Description() string

	// Check examines the snippet and reports findings on ctx. A returned
	// error aborts the run; findings are never errors.
	Check(ctx *Context) error
}

// CheckFunc performs rule checking on a context.
type CheckFunc func(ctx *Context) error

// NodeFunc checks a single node of one of the kinds a NodeRule subscribed to.
type NodeFunc func(ctx *Context, n ast.Node)

// SimpleRule creates a rule that uses a simple check function with full
// access to the context.
//
//nolint:ireturn // Builder functions should return interfaces
func SimpleRule(description string, check CheckFunc) Rule {
	return &simpleRule{description: description, check: check}
}

type simpleRule struct {
	description string
	check       CheckFunc
}

func (r *simpleRule) Description() string { return r.description }

func (r *simpleRule) Check(ctx *Context) error { return r.check(ctx) }

// NodeRule creates a rule that is invoked for every node whose dynamic type
// matches one of nodeTypes, in source order. nodeTypes uses the
// inspector.Preorder convention, e.g. []ast.Node{(*ast.CallExpr)(nil)}.
//
//nolint:ireturn // Builder functions should return interfaces
func NodeRule(description string, nodeTypes []ast.Node, fn NodeFunc) Rule {
	return &nodeRule{description: description, nodeTypes: nodeTypes, fn: fn}
}

type nodeRule struct {
	description string
	nodeTypes   []ast.Node
	fn          NodeFunc
}

func (r *nodeRule) Description() string { return r.description }

func (r *nodeRule) Check(ctx *Context) error {
	ctx.Inspector.Preorder(r.nodeTypes, func(n ast.Node) {
		r.fn(ctx, n)
	})
	return nil
}

// registry is the process-wide catalog of rules loadable by id.
var registry = xsync.NewMap[string, Rule]()

// Register makes a rule available by id to Lookup. Rule packages call it
// from init. Registering an id twice replaces the earlier rule.
func Register(id string, r Rule) {
	if r == nil {
		panic("lint: Register rule is nil")
	}
	if id == "" {
		panic("lint: Register rule id is empty")
	}
	registry.Store(id, r)
}

// Lookup returns the rule registered under id.
func Lookup(id string) (Rule, bool) {
	return registry.Load(id)
}

// Registered returns the ids of all registered rules in sorted order.
func Registered() []string {
	ids := make([]string, 0, registry.Size())
	registry.Range(func(id string, _ Rule) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}
