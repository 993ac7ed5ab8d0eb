// Package suppress implements comment-based suppression of linter findings.
package suppress

import (
	"fmt"
	"go/ast"
	"go/token"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Checker handles nolint and lint:ignore comment suppression.
type Checker struct {
	// suppressions maps a source line to the directives found on it
	suppressions map[lineKey][]*Suppression

	// fset is the file set for position calculations
	fset *token.FileSet
}

type lineKey struct {
	file string
	line int
}

// Suppression represents a parsed suppression directive.
type Suppression struct {
	Position token.Pos
	Reason   string
	Type     SuppressionType
	// Rules lists the rule ids the directive applies to; empty means all rules.
	Rules []string
}

// Covers reports whether the directive applies to ruleID.
func (s *Suppression) Covers(ruleID string) bool {
	return len(s.Rules) == 0 || slices.Contains(s.Rules, ruleID)
}

// SuppressionType represents different types of suppression comments.
type SuppressionType int

const (
	// SuppressionNolint represents //nolint and //nolint:rule-a,rule-b comments.
	SuppressionNolint SuppressionType = iota

	// SuppressionLintIgnore represents //lint:ignore rule-a reason comments.
	SuppressionLintIgnore
)

// Suppression patterns for different comment styles.
var (
	// nolintPattern matches //nolint with an optional rule list and an optional trailing // reason
	nolintPattern = regexp.MustCompile(`^//\s*nolint(?::([\w\-/]+(?:\s*,\s*[\w\-/]+)*))?(?:\s*//\s*(.*))?\s*$`)

	// lintIgnorePattern matches //lint:ignore rule-a[,rule-b] reason
	lintIgnorePattern = regexp.MustCompile(`^//\s*lint:ignore\s+([\w\-/]+(?:,[\w\-/]+)*)(?:\s+(.+))?$`)
)

// NewChecker creates a new suppression checker.
func NewChecker() *Checker {
	return &Checker{
		suppressions: make(map[lineKey][]*Suppression),
	}
}

// Load parses suppression comments from AST files. Positions are resolved
// through line directives, so suppressions line up with reported findings.
func (sc *Checker) Load(fset *token.FileSet, files []*ast.File) error {
	if fset == nil {
		return fmt.Errorf("fset cannot be nil")
	}
	if files == nil {
		return fmt.Errorf("files cannot be nil")
	}
	sc.fset = fset

	for _, file := range files {
		for _, commentGroup := range file.Comments {
			for _, comment := range commentGroup.List {
				if suppression := sc.parseComment(comment); suppression != nil {
					pos := fset.Position(comment.Pos())
					key := lineKey{file: pos.Filename, line: pos.Line}
					sc.suppressions[key] = append(sc.suppressions[key], suppression)
				}
			}
		}
	}

	return nil
}

// parseComment parses a comment to check if it's a suppression directive.
func (sc *Checker) parseComment(comment *ast.Comment) *Suppression {
	text := strings.TrimSpace(comment.Text)

	if matches := nolintPattern.FindStringSubmatch(text); matches != nil {
		return &Suppression{
			Position: comment.Pos(),
			Reason:   strings.TrimSpace(matches[2]),
			Type:     SuppressionNolint,
			Rules:    splitRules(matches[1]),
		}
	}

	if matches := lintIgnorePattern.FindStringSubmatch(text); matches != nil {
		return &Suppression{
			Position: comment.Pos(),
			Reason:   strings.TrimSpace(matches[2]),
			Type:     SuppressionLintIgnore,
			Rules:    splitRules(matches[1]),
		}
	}

	return nil
}

func splitRules(list string) []string {
	var rules []string
	for rule := range strings.SplitSeq(list, ",") {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules = append(rules, rule)
		}
	}
	return rules
}

// IsSuppressed checks whether a finding of ruleID at pos is suppressed by a
// directive on the same line or on the line immediately before.
func (sc *Checker) IsSuppressed(ruleID string, pos token.Position) (bool, string) {
	if pos.Line <= 0 {
		return false, ""
	}
	for _, line := range []int{pos.Line, pos.Line - 1} {
		for _, s := range sc.suppressions[lineKey{file: pos.Filename, line: line}] {
			if s.Covers(ruleID) {
				if s.Reason == "" {
					return true, "suppressed"
				}
				return true, s.Reason
			}
		}
	}
	return false, ""
}

// Clear clears all suppressions.
func (sc *Checker) Clear() {
	sc.suppressions = make(map[lineKey][]*Suppression)
}

func (sc *Checker) getAllSuppressions() map[lineKey][]*Suppression {
	result := make(map[lineKey][]*Suppression)
	maps.Copy(result, sc.suppressions)
	return result
}
