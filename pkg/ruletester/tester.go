// Package ruletester checks lint rules against bundles of valid and invalid
// snippets. Each bundle becomes one group of named cases in a Suite; each
// case configures the linter with only the rule under test and compares the
// produced diagnostics with the case's expectations.
package ruletester

import (
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/715d/rulecheck/internal/analysis"
	"github.com/715d/rulecheck/pkg/lint"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Tester registers rule bundles with a Suite and runs them against a linter.
type Tester struct {
	linter *lint.Linter
}

// New creates a tester that verifies cases with l. A nil linter gets a fresh one.
func New(l *lint.Linter) *Tester {
	if l == nil {
		l = lint.New()
	}
	return &Tester{linter: l}
}

// Run tests the registered rule named after rulePath. The rule id is the base
// name of rulePath without its extension, so "rules/no-undef.go" tests the
// rule registered as "no-undef".
func (rt *Tester) Run(s Suite, rulePath string, b Bundle) {
	id := analysis.RuleName(rulePath)
	rule, ok := lint.Lookup(id)
	if !ok {
		s.Describe(id, func(s Suite) {
			s.It("should be registered", func(t TestingT) {
				assert.Fail(t, "Rule not found", "%s: %q from %s", lint.ErrUnknownRule, id, rulePath)
			})
		})
		return
	}
	rt.RunRule(s, id, rule, b)
}

// RunRule tests rule under id. One group named id is registered, holding one
// case per bundle entry named after its code.
func (rt *Tester) RunRule(s Suite, id string, rule lint.Rule, b Bundle) {
	slog.Debug("registering rule bundle", "rule", id, "valid", len(b.Valid), "invalid", len(b.Invalid))

	s.Describe(id, func(s Suite) {
		if len(b.Valid) == 0 {
			s.It("should have at least one valid test", func(t TestingT) {
				assert.Len(t, b.Valid, 1, "Each rule should have at least one valid test")
			})
		}
		for _, raw := range b.Valid {
			s.It(raw.Code, func(t TestingT) {
				rt.runCase(t, id, rule, raw, KindValid)
			})
		}

		if len(b.Invalid) == 0 {
			s.It("should have at least one invalid test", func(t TestingT) {
				assert.Len(t, b.Invalid, 1, "Each rule should have at least one invalid test")
			})
		}
		for _, raw := range b.Invalid {
			s.It(raw.Code, func(t TestingT) {
				rt.runCase(t, id, rule, raw, KindInvalid)
			})
		}
	})
}

func (rt *Tester) runCase(t TestingT, id string, rule lint.Rule, raw RawCase, kind Kind) {
	c, err := Normalize(raw, kind)
	if err != nil {
		assert.Fail(t, "Malformed test case", err.Error())
		return
	}

	rt.linter.DefineRule(id, rule)
	diags, err := rt.linter.Verify(c.Code, c.Config(id))
	require.NoError(t, err, "Linter could not run the case")

	if kind == KindValid {
		require.Emptyf(t, diags, "Should have no errors but had %d: %s", len(diags), dumpDiagnostics(diags))
		return
	}
	checkInvalid(t, id, c.Errors, diags)
}

func checkInvalid(t TestingT, id string, want Expectation, diags []lint.Diagnostic) {
	require.Lenf(t, diags, want.Len(), "Should have %d errors but had %d: %s", want.Len(), len(diags), dumpDiagnostics(diags))

	records, ok := want.Records()
	if !ok {
		for _, d := range diags {
			assert.Falsef(t, d.Fatal, "A fatal parsing error occurred: %s", d.Message)
		}
		return
	}

	for i, exp := range records {
		d := diags[i]
		if !assert.Falsef(t, d.Fatal, "A fatal parsing error occurred: %s", d.Message) {
			continue
		}
		assert.Equal(t, id, d.RuleID, "Error rule name should be the same as the name of the rule being tested")
		if exp.Message != "" {
			assert.Equal(t, exp.Message, d.Message, "Error message should be "+exp.Message)
		}
		if exp.Type != "" {
			assert.Equal(t, exp.Type, d.NodeType, "Error type should be "+exp.Type)
		}
		if exp.Line != 0 {
			assert.Equalf(t, exp.Line, d.Line, "Error line should be %d", exp.Line)
		}
		if exp.Column != 0 {
			assert.Equalf(t, exp.Column, d.Column, "Error column should be %d", exp.Column)
		}
	}
}

func dumpDiagnostics(diags []lint.Diagnostic) string {
	return dumper.Sdump(diags)
}
