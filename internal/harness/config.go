// Package harness runs YAML rule fixtures through the rule tester and
// aggregates the outcome into a report.
package harness

import (
	"github.com/715d/rulecheck/pkg/ruletester"
)

// Fixture is one YAML file holding the test bundle of a rule.
type Fixture struct {
	// Path is the fixture file, relative to the discovery root when known.
	Path string `yaml:"-"`

	// Rule is the id of the rule under test. It defaults to the base name of
	// the fixture file without its extension.
	Rule string `yaml:"rule,omitempty"`

	// Skip marks the fixture as not runnable; Reason says why.
	Skip   bool   `yaml:"skip,omitempty"`
	Reason string `yaml:"reason,omitempty"`

	ruletester.Bundle `yaml:",inline"`
}

// RulePath returns the path the rule id is derived from.
func (f *Fixture) RulePath() string {
	if f.Rule != "" {
		return f.Rule
	}
	return f.Path
}

// Options configures a Runner.
type Options struct {
	// Parallel bounds the number of fixtures run at once. Zero or less uses
	// the number of CPUs.
	Parallel int
}
