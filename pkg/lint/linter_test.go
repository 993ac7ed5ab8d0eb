package lint

import (
	"errors"
	"go/ast"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callRule reports every call expression.
func callRule() Rule {
	return NodeRule("reports calls", []ast.Node{(*ast.CallExpr)(nil)}, func(ctx *Context, n ast.Node) {
		call := n.(*ast.CallExpr)
		if id, ok := call.Fun.(*ast.Ident); ok {
			ctx.Reportf(n, "call to %s", id.Name)
			return
		}
		ctx.Report(n, "call")
	})
}

// identRule reports every identifier with the given name.
func identRule(name string) Rule {
	return NodeRule("reports an identifier", []ast.Node{(*ast.Ident)(nil)}, func(ctx *Context, n ast.Node) {
		if n.(*ast.Ident).Name == name {
			ctx.Reportf(n, "found %s", name)
		}
	})
}

func enabled(ids ...string) Config {
	cfg := Config{Rules: make(map[string]RuleConfig, len(ids))}
	for _, id := range ids {
		cfg.Rules[id] = DefaultRuleConfig()
	}
	return cfg
}

func TestVerify_Positions(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		line     int
		column   int
		nodeType string
	}{
		{
			name:     "expression on the first line",
			src:      "foo()",
			line:     1,
			column:   1,
			nodeType: "CallExpr",
		},
		{
			name:     "statement on a later line",
			src:      "x := 1\n  foo()",
			line:     2,
			column:   3,
			nodeType: "CallExpr",
		},
		{
			name:     "top-level declaration",
			src:      "var x = foo()",
			line:     1,
			column:   9,
			nodeType: "CallExpr",
		},
		{
			name:     "complete file",
			src:      "package main\n\nfunc main() { foo() }\n",
			line:     3,
			column:   15,
			nodeType: "CallExpr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			l.DefineRule("calls", callRule())

			diags, err := l.Verify(tt.src, enabled("calls"))
			require.NoError(t, err)
			require.Len(t, diags, 1)

			d := diags[0]
			assert.Equal(t, "calls", d.RuleID)
			assert.Equal(t, "call to foo", d.Message)
			assert.Equal(t, tt.nodeType, d.NodeType)
			assert.Equal(t, tt.line, d.Line, "line")
			assert.Equal(t, tt.column, d.Column, "column")
			assert.Equal(t, SeverityWarn, d.Severity)
			assert.False(t, d.Fatal)
		})
	}
}

func TestVerify_NoFindings(t *testing.T) {
	l := New()
	l.DefineRule("calls", callRule())

	diags, err := l.Verify("x := 1\n_ = x", enabled("calls"))
	require.NoError(t, err)
	require.NotNil(t, diags, "Expected an empty, non-nil result")
	require.Empty(t, diags)
}

func TestVerify_ParseError(t *testing.T) {
	l := New()
	l.DefineRule("calls", callRule())

	diags, err := l.Verify("foo(", enabled("calls"))
	require.NoError(t, err, "Parse failures are findings, not errors")
	require.Len(t, diags, 1)

	d := diags[0]
	assert.True(t, d.Fatal)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Empty(t, d.RuleID)
	assert.True(t, strings.HasPrefix(d.Message, "Parsing error: "), "message was %q", d.Message)
	assert.Positive(t, d.Line)
	assert.Positive(t, d.Column)
}

func TestVerify_Configuration(t *testing.T) {
	t.Run("unknown rule", func(t *testing.T) {
		_, err := New().Verify("foo()", enabled("missing"))
		require.ErrorIs(t, err, ErrUnknownRule)
		require.Contains(t, err.Error(), "missing")
	})

	t.Run("disabled unknown rule is ignored", func(t *testing.T) {
		cfg := Config{Rules: map[string]RuleConfig{"missing": {Severity: SeverityOff}}}
		diags, err := New().Verify("foo()", cfg)
		require.NoError(t, err)
		require.Empty(t, diags)
	})

	t.Run("disabled rule does not run", func(t *testing.T) {
		l := New()
		l.DefineRule("calls", callRule())
		cfg := Config{Rules: map[string]RuleConfig{"calls": {Severity: SeverityOff}}}

		diags, err := l.Verify("foo()", cfg)
		require.NoError(t, err)
		require.Empty(t, diags)
	})

	t.Run("invalid severity", func(t *testing.T) {
		l := New()
		l.DefineRule("calls", callRule())
		cfg := Config{Rules: map[string]RuleConfig{"calls": {Severity: Severity(7)}}}

		_, err := l.Verify("foo()", cfg)
		require.ErrorIs(t, err, ErrInvalidSeverity)
	})

	t.Run("invalid global", func(t *testing.T) {
		l := New()
		l.DefineRule("calls", callRule())
		cfg := enabled("calls")
		cfg.Globals = map[string]bool{"not-an-ident": false}

		_, err := l.Verify("foo()", cfg)
		require.ErrorIs(t, err, ErrInvalidGlobal)
		require.Contains(t, err.Error(), `"not-an-ident"`)
	})

	t.Run("error severity", func(t *testing.T) {
		l := New()
		l.DefineRule("calls", callRule())
		cfg := Config{Rules: map[string]RuleConfig{"calls": {Severity: SeverityError}}}

		diags, err := l.Verify("foo()", cfg)
		require.NoError(t, err)
		require.Len(t, diags, 1)
		require.Equal(t, SeverityError, diags[0].Severity)
	})
}

func TestVerify_Ordering(t *testing.T) {
	l := New()
	l.DefineRule("calls", callRule())
	l.DefineRule("foo-ident", identRule("foo"))

	diags, err := l.Verify("bar()\nfoo()", enabled("foo-ident", "calls"))
	require.NoError(t, err)

	var got []string
	for _, d := range diags {
		got = append(got, d.String())
	}
	require.Equal(t, []string{
		"1:1 [calls] call to bar",
		"2:1 [calls] call to foo",
		"2:1 [foo-ident] found foo",
	}, got)
}

func TestVerify_Suppression(t *testing.T) {
	l := New()
	l.DefineRule("calls", callRule())
	l.DefineRule("foo-ident", identRule("foo"))

	src := strings.Join([]string{
		"foo() //nolint:calls",
		"//lint:ignore foo-ident used by the fixture",
		"foo()",
		"bar() //nolint",
	}, "\n")

	diags, err := l.Verify(src, enabled("calls", "foo-ident"))
	require.NoError(t, err)

	var got []string
	for _, d := range diags {
		got = append(got, d.String())
	}
	require.Equal(t, []string{
		"1:1 [foo-ident] found foo",
		"3:1 [calls] call to foo",
	}, got)
}

func TestVerify_Globals(t *testing.T) {
	var seen map[string]bool
	rule := NodeRule("records globals", []ast.Node{(*ast.Ident)(nil)}, func(ctx *Context, n ast.Node) {
		if writable, ok := ctx.Global(n.(*ast.Ident)); ok {
			seen[n.(*ast.Ident).Name] = writable
		}
	})

	l := New()
	l.DefineRule("globals", rule)

	seen = map[string]bool{}
	cfg := enabled("globals")
	cfg.Globals = map[string]bool{"test": false, "counter": true}

	_, err := l.Verify("test = 1\ncounter = 2\nlocal := 3\n_ = local", cfg)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"test": false, "counter": true}, seen)

	seen = map[string]bool{}
	_, err = l.Verify("test = 1", enabled("globals"))
	require.NoError(t, err)
	require.Empty(t, seen, "Undeclared identifiers should not resolve to globals")
}

func TestVerify_RuleFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		sentinel := errors.New("boom")
		l := New()
		l.DefineRule("broken", SimpleRule("fails", func(*Context) error { return sentinel }))

		_, err := l.Verify("foo()", enabled("broken"))
		require.ErrorIs(t, err, sentinel)
		require.Contains(t, err.Error(), "rule broken")
	})

	t.Run("panic", func(t *testing.T) {
		l := New()
		l.DefineRule("broken", SimpleRule("panics", func(*Context) error { panic("bad rule") }))

		_, err := l.Verify("foo()", enabled("broken"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "panic: bad rule")
	})
}

func TestContext_Settings(t *testing.T) {
	var got any
	rule := SimpleRule("reads settings", func(ctx *Context) error {
		got, _ = ctx.Setting("test")
		return nil
	})

	l := New()
	l.DefineRule("settings", rule)
	cfg := enabled("settings")
	cfg.Settings = map[string]any{"test": true}

	_, err := l.Verify("foo()", cfg)
	require.NoError(t, err)
	require.Equal(t, true, got)
}

func TestDecodeOptions(t *testing.T) {
	type options struct {
		Allow []string `yaml:"allow"`
		Limit int      `yaml:"limit"`
	}

	t.Run("map option", func(t *testing.T) {
		var opts options
		err := DecodeOptions(map[string]any{"allow": []any{"a", "b"}, "limit": 3}, &opts)
		require.NoError(t, err)
		require.Equal(t, options{Allow: []string{"a", "b"}, Limit: 3}, opts)
	})

	t.Run("nil leaves defaults", func(t *testing.T) {
		opts := options{Limit: 9}
		require.NoError(t, DecodeOptions(nil, &opts))
		require.Equal(t, 9, opts.Limit)
	})

	t.Run("mismatched shape", func(t *testing.T) {
		var opts options
		err := DecodeOptions("just a string", &opts)
		require.Error(t, err)
	})

	t.Run("context uses the first option", func(t *testing.T) {
		ctx := &Context{Options: []any{map[string]any{"limit": 4}, "ignored"}}
		var opts options
		require.NoError(t, ctx.DecodeOptions(&opts))
		require.Equal(t, 4, opts.Limit)
	})
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"0", SeverityOff},
		{"off", SeverityOff},
		{"1", SeverityWarn},
		{"warn", SeverityWarn},
		{"Warning", SeverityWarn},
		{"2", SeverityError},
		{" error ", SeverityError},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSeverity("fatal")
	require.ErrorIs(t, err, ErrInvalidSeverity)

	require.Equal(t, "warn", SeverityWarn.String())
	require.Equal(t, "unknown", Severity(5).String())
	require.False(t, Severity(-1).Valid())
}

func TestRegistry(t *testing.T) {
	Register("lint-test-calls", callRule())

	r, ok := Lookup("lint-test-calls")
	require.True(t, ok)
	require.Equal(t, "reports calls", r.Description())
	require.Contains(t, Registered(), "lint-test-calls")

	_, ok = Lookup("lint-test-missing")
	require.False(t, ok)

	require.Panics(t, func() { Register("lint-test-nil", nil) })
	require.Panics(t, func() { Register("", callRule()) })
}
