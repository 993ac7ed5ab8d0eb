package lint

import (
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"maps"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/715d/rulecheck/pkg/suppress"
)

// Linter verifies source snippets against a configuration of defined rules.
// It is safe for concurrent use; defining the same id twice keeps the last
// definition.
type Linter struct {
	rules *xsync.Map[string, Rule]
}

// New creates a linter with no rules defined.
func New() *Linter {
	return &Linter{
		rules: xsync.NewMap[string, Rule](),
	}
}

// DefineRule makes r available to configurations under id.
func (l *Linter) DefineRule(id string, r Rule) {
	if r == nil {
		panic("lint: DefineRule rule is nil")
	}
	l.rules.Store(id, r)
}

// Rule returns the rule defined under id.
func (l *Linter) Rule(id string) (Rule, bool) {
	return l.rules.Load(id)
}

type activeRule struct {
	id   string
	rule Rule
	cfg  RuleConfig
}

// Verify parses src, runs every enabled rule of cfg over it and returns the
// findings sorted by position. Findings are data: a snippet that does not
// parse yields a single fatal diagnostic and a nil error. Errors are reserved
// for configurations that cannot be executed.
func (l *Linter) Verify(src string, cfg Config) ([]Diagnostic, error) {
	active, err := l.activeRules(cfg)
	if err != nil {
		return nil, err
	}
	if err := validateGlobals(cfg.Globals); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parseSnippet(fset, src)
	if err != nil {
		slog.Debug("snippet failed to parse", "error", err)
		return []Diagnostic{fatalDiagnostic(err)}, nil
	}

	pkg, info, globals, err := typeCheck(fset, file, cfg.Globals)
	if err != nil {
		return nil, err
	}

	suppressions := suppress.NewChecker()
	if err := suppressions.Load(fset, []*ast.File{file}); err != nil {
		return nil, fmt.Errorf("loading suppressions: %w", err)
	}

	ins := inspector.New([]*ast.File{file})
	diags := []Diagnostic{}
	for _, ar := range active {
		ctx := &Context{
			ID:        ar.id,
			Options:   ar.cfg.Options,
			Settings:  cfg.Settings,
			Fset:      fset,
			File:      file,
			Pkg:       pkg,
			Info:      info,
			Inspector: ins,
			severity:  ar.cfg.Severity,
			globals:   globals,
		}
		ctx.report = func(d Diagnostic) {
			pos := token.Position{Filename: SnippetFilename, Line: d.Line}
			if ok, reason := suppressions.IsSuppressed(d.RuleID, pos); ok {
				slog.Debug("suppressed diagnostic", "rule", d.RuleID, "line", d.Line, "reason", reason)
				return
			}
			diags = append(diags, d)
		}
		if err := runRule(ar, ctx); err != nil {
			return nil, err
		}
	}

	sortDiagnostics(diags)
	return diags, nil
}

// activeRules resolves the enabled rules of cfg in id order.
func (l *Linter) activeRules(cfg Config) ([]activeRule, error) {
	active := make([]activeRule, 0, len(cfg.Rules))
	for _, id := range slices.Sorted(maps.Keys(cfg.Rules)) {
		rc := cfg.Rules[id]
		if !rc.Severity.Valid() {
			return nil, fmt.Errorf("rule %s: %w: %d", id, ErrInvalidSeverity, rc.Severity)
		}
		if rc.Severity == SeverityOff {
			continue
		}
		r, ok := l.rules.Load(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, id)
		}
		active = append(active, activeRule{id: id, rule: r, cfg: rc})
	}
	return active, nil
}

// runRule runs a single rule and converts a panic into an error.
func runRule(ar activeRule, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s: panic: %v", ar.id, r)
		}
	}()
	if err := ar.rule.Check(ctx); err != nil {
		return fmt.Errorf("rule %s: %w", ar.id, err)
	}
	return nil
}
