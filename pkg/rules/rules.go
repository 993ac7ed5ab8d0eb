// Package rules links every rule package into a binary so their rules are
// registered with lint.Register.
package rules

import (
	_ "github.com/715d/rulecheck/pkg/rules/globals"
	_ "github.com/715d/rulecheck/pkg/rules/service"
	_ "github.com/715d/rulecheck/pkg/rules/typecheck"
)
