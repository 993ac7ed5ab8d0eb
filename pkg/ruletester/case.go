package ruletester

import (
	"errors"
	"fmt"
	"maps"

	yaml "gopkg.in/yaml.v3"

	"github.com/715d/rulecheck/pkg/lint"
)

var (
	// ErrMissingErrors is returned for an invalid case that does not declare
	// its expected errors.
	ErrMissingErrors = errors.New("invalid case should declare its expected errors")

	// ErrInvalidArgs is returned when a case's args cannot be turned into a
	// rule configuration.
	ErrInvalidArgs = errors.New("invalid args")
)

// Kind tells the normalizer which list a case came from.
type Kind int

const (
	// KindValid cases must produce no diagnostics.
	KindValid Kind = iota
	// KindInvalid cases must produce exactly the expected diagnostics.
	KindInvalid
)

func (k Kind) String() string {
	if k == KindInvalid {
		return "invalid"
	}
	return "valid"
}

// RawCase is a test case as written by a rule author, either in Go or in a
// YAML fixture. A YAML scalar is shorthand for a case with only Code set.
type RawCase struct {
	// Code is the snippet handed to the linter.
	Code string `yaml:"code"`

	// Args configures the rule under test: a severity number, a list of
	// [severity, options...] or a lint.RuleConfig. Nil enables the rule as
	// a warning with default options.
	Args any `yaml:"args,omitempty"`

	// Globals declares identifiers available to the snippet; the value
	// reports whether the global may be assigned.
	Globals map[string]bool `yaml:"globals,omitempty"`

	// Global is the legacy spelling of Globals, used only when Globals is nil.
	Global map[string]bool `yaml:"global,omitempty"`

	// Settings are shared with the rule.
	Settings map[string]any `yaml:"settings,omitempty"`

	// Errors is the expectation of an invalid case.
	Errors Expectation `yaml:"errors,omitempty"`
}

// Code is shorthand for a case that only carries source.
func Code(src string) RawCase {
	return RawCase{Code: src}
}

// UnmarshalYAML accepts either a bare string or a mapping.
func (r *RawCase) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = RawCase{Code: node.Value}
		return nil
	}
	type plain RawCase
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RawCase(p)
	return nil
}

// ExpectedError describes one expected diagnostic. Zero-valued fields are
// not checked.
type ExpectedError struct {
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Line    int    `yaml:"line,omitempty" json:"line,omitempty"`
	Column  int    `yaml:"column,omitempty" json:"column,omitempty"`
}

type expectationMode int

const (
	modeUnset expectationMode = iota
	modeCount
	modeRecords
)

// Expectation is either an expected diagnostic count or an ordered list of
// expected diagnostics. The zero value declares nothing.
type Expectation struct {
	mode    expectationMode
	count   int
	records []ExpectedError
}

// Count expects exactly n diagnostics without checking their contents.
func Count(n int) Expectation {
	return Expectation{mode: modeCount, count: n}
}

// Records expects one diagnostic per record, in order.
func Records(records ...ExpectedError) Expectation {
	return Expectation{mode: modeRecords, records: records}
}

// IsSet reports whether the expectation was declared.
func (e Expectation) IsSet() bool { return e.mode != modeUnset }

// IsZero lets yaml omitempty skip undeclared expectations.
func (e Expectation) IsZero() bool { return !e.IsSet() }

// Len returns the number of expected diagnostics.
func (e Expectation) Len() int {
	if e.mode == modeRecords {
		return len(e.records)
	}
	return e.count
}

// Records returns the expected diagnostics and whether the expectation is
// record based.
func (e Expectation) Records() ([]ExpectedError, bool) {
	return e.records, e.mode == modeRecords
}

// UnmarshalYAML accepts an integer count or a sequence of records.
func (e *Expectation) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("errors should be a count or a list: %w", err)
		}
		*e = Count(n)
	case yaml.SequenceNode:
		var records []ExpectedError
		if err := node.Decode(&records); err != nil {
			return err
		}
		*e = Records(records...)
	default:
		return fmt.Errorf("line %d: errors should be a count or a list", node.Line)
	}
	return nil
}

// MarshalYAML writes the expectation back in the shape it was read in.
func (e Expectation) MarshalYAML() (any, error) {
	switch e.mode {
	case modeCount:
		return e.count, nil
	case modeRecords:
		return e.records, nil
	}
	return nil, nil
}

// Case is a normalized test case.
type Case struct {
	Kind     Kind
	Code     string
	Rule     lint.RuleConfig
	Globals  map[string]bool
	Settings map[string]any
	Errors   Expectation
}

// Normalize resolves the shorthands of raw into a Case.
func Normalize(raw RawCase, kind Kind) (Case, error) {
	rc, err := ruleConfig(raw.Args)
	if err != nil {
		return Case{}, err
	}
	if kind == KindInvalid && !raw.Errors.IsSet() {
		return Case{}, ErrMissingErrors
	}

	globals := raw.Globals
	if globals == nil {
		globals = raw.Global
	}

	return Case{
		Kind:     kind,
		Code:     raw.Code,
		Rule:     rc,
		Globals:  maps.Clone(globals),
		Settings: maps.Clone(raw.Settings),
		Errors:   raw.Errors,
	}, nil
}

// Config builds the linter configuration that enables only ruleID.
func (c Case) Config(ruleID string) lint.Config {
	return lint.Config{
		Rules:    map[string]lint.RuleConfig{ruleID: c.Rule},
		Globals:  c.Globals,
		Settings: c.Settings,
	}
}

func ruleConfig(args any) (lint.RuleConfig, error) {
	switch v := args.(type) {
	case nil:
		return lint.DefaultRuleConfig(), nil
	case lint.RuleConfig:
		return v, nil
	case lint.Severity:
		return lint.RuleConfig{Severity: v}, nil
	case int:
		return lint.RuleConfig{Severity: lint.Severity(v)}, nil
	case string:
		sev, err := lint.ParseSeverity(v)
		if err != nil {
			return lint.RuleConfig{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		return lint.RuleConfig{Severity: sev}, nil
	case []any:
		if len(v) == 0 {
			return lint.DefaultRuleConfig(), nil
		}
		rc, err := ruleConfig(v[0])
		if err != nil {
			return lint.RuleConfig{}, err
		}
		if len(v) > 1 {
			rc.Options = v[1:]
		}
		return rc, nil
	}
	return lint.RuleConfig{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidArgs, args)
}
