// Package lint implements a pluggable, rule-based linter for Go source snippets.
package lint

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownRule is returned when a configuration enables a rule that was never defined.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrInvalidGlobal is returned when a configured global is not a valid Go identifier.
	ErrInvalidGlobal = errors.New("invalid global")

	// ErrInvalidSeverity is returned for severities outside off/warn/error.
	ErrInvalidSeverity = errors.New("invalid severity")
)

// Severity represents how a rule's findings are classified.
type Severity int

const (
	// SeverityOff disables a rule.
	SeverityOff Severity = iota
	// SeverityWarn reports findings as warnings.
	SeverityWarn
	// SeverityError reports findings as errors.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity accepts the numeric (0, 1, 2) and named (off, warn, error) forms.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "off":
		return SeverityOff, nil
	case "1", "warn", "warning":
		return SeverityWarn, nil
	case "2", "error":
		return SeverityError, nil
	}
	return SeverityOff, fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s >= SeverityOff && s <= SeverityError
}

// RuleConfig configures a single rule for one run.
type RuleConfig struct {
	// Severity of the rule; SeverityOff skips it entirely.
	Severity Severity
	// Options are passed to the rule verbatim.
	Options []any
}

// DefaultRuleConfig enables a rule as a warning with its default options.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{Severity: SeverityWarn}
}

// Config is the execution configuration for one Verify call.
type Config struct {
	// Rules maps rule ids to their configuration.
	Rules map[string]RuleConfig
	// Globals declares additional package-level identifiers. The value
	// reports whether the global may be assigned.
	Globals map[string]bool
	// Settings are shared with every rule.
	Settings map[string]any
}

// Diagnostic is a single finding produced by a rule, or a fatal parse error.
type Diagnostic struct {
	RuleID   string   `json:"ruleId,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	NodeType string   `json:"nodeType,omitempty"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Fatal    bool     `json:"fatal,omitempty"`
}

// String returns a formatted representation of the diagnostic.
func (d Diagnostic) String() string {
	if d.Fatal {
		return fmt.Sprintf("%d:%d fatal: %s", d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%d:%d [%s] %s", d.Line, d.Column, d.RuleID, d.Message)
}

func sortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Column, b.Column); c != 0 {
			return c
		}
		return strings.Compare(a.RuleID, b.RuleID)
	})
}
