package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/715d/rulecheck/pkg/lint"
	"github.com/715d/rulecheck/pkg/ruletester"
)

// lintFlags holds the options of the lint subcommand.
type lintFlags struct {
	Rules    []string // id or id=args, args in the fixture args syntax
	Globals  []string // name or name=bool
	Settings []string // key=value, value decoded as YAML
}

func newLintCmd() *cobra.Command {
	var flags lintFlags
	cmd := &cobra.Command{
		Use:   "lint [file|-]",
		Short: "Lint a Go file or snippet",
		Long: `Lint runs the engine over a file, or standard input when the argument is
"-" or missing, and prints one line per diagnostic. Without --rule every
registered rule is enabled as a warning. The exit code is 1 when anything
is reported.`,
		Example: `  rulecheck lint --rule no-undef --global test=true snippet.go
  rulecheck lint --rule 'no-default-http-client=[2, {allow: [Get]}]' main.go
  echo 'x == "string"' | rulecheck lint --rule typecheck-string -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			return lintFile(cmd, name, flags)
		},
	}
	cmd.Flags().StringArrayVarP(&flags.Rules, "rule", "r", nil, "Enable a rule: id or id=args (e.g. no-undef=2)")
	cmd.Flags().StringArrayVarP(&flags.Globals, "global", "g", nil, "Declare a global: name or name=writable (e.g. test=true)")
	cmd.Flags().StringArrayVarP(&flags.Settings, "setting", "s", nil, "Set a shared setting: key=value")
	return cmd
}

func lintFile(cmd *cobra.Command, name string, flags lintFlags) error {
	src, err := readSource(cmd.InOrStdin(), name)
	if err != nil {
		return errWithCode(err, exitError)
	}
	lintCfg, err := buildLintConfig(flags)
	if err != nil {
		return errWithCode(err, exitError)
	}

	l := lint.New()
	for id := range lintCfg.Rules {
		rule, ok := lint.Lookup(id)
		if !ok {
			return errWithCode(fmt.Errorf("%w: %s", lint.ErrUnknownRule, id), exitError)
		}
		l.DefineRule(id, rule)
	}

	slog.Info("linting", "file", name, "rules", len(lintCfg.Rules))
	diags, err := l.Verify(src, lintCfg)
	if err != nil {
		return errWithCode(fmt.Errorf("lint %s: %w", name, err), exitError)
	}

	if err := writeDiagnostics(cmd.OutOrStdout(), name, diags); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}
	if len(diags) > 0 {
		return errWithCode(nil, exitFailures)
	}
	return nil
}

func readSource(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

// buildLintConfig turns the lint flags into an engine configuration.
func buildLintConfig(flags lintFlags) (lint.Config, error) {
	lintCfg := lint.Config{Rules: make(map[string]lint.RuleConfig)}

	if len(flags.Rules) == 0 {
		for _, id := range lint.Registered() {
			lintCfg.Rules[id] = lint.DefaultRuleConfig()
		}
	}
	for _, entry := range flags.Rules {
		id, rawArgs, hasArgs := strings.Cut(entry, "=")
		var args any
		if hasArgs {
			if err := yaml.Unmarshal([]byte(rawArgs), &args); err != nil {
				return lint.Config{}, fmt.Errorf("rule %s: parse args: %w", id, err)
			}
		}
		c, err := ruletester.Normalize(ruletester.RawCase{Args: args}, ruletester.KindValid)
		if err != nil {
			return lint.Config{}, fmt.Errorf("rule %s: %w", id, err)
		}
		lintCfg.Rules[id] = c.Rule
	}

	if len(flags.Globals) > 0 {
		lintCfg.Globals = make(map[string]bool, len(flags.Globals))
	}
	for _, entry := range flags.Globals {
		name, rawWritable, hasValue := strings.Cut(entry, "=")
		writable := false
		if hasValue {
			var err error
			if writable, err = strconv.ParseBool(rawWritable); err != nil {
				return lint.Config{}, fmt.Errorf("global %s: %w", name, err)
			}
		}
		lintCfg.Globals[name] = writable
	}

	if len(flags.Settings) > 0 {
		lintCfg.Settings = make(map[string]any, len(flags.Settings))
	}
	for _, entry := range flags.Settings {
		key, rawValue, ok := strings.Cut(entry, "=")
		if !ok {
			return lint.Config{}, fmt.Errorf("setting %q: expected key=value", entry)
		}
		var value any
		if err := yaml.Unmarshal([]byte(rawValue), &value); err != nil {
			return lint.Config{}, fmt.Errorf("setting %s: %w", key, err)
		}
		lintCfg.Settings[key] = value
	}

	return lintCfg, nil
}

type jDiagnostic struct {
	File string `json:"file"`
	lint.Diagnostic
}

func writeDiagnostics(w io.Writer, name string, diags []lint.Diagnostic) error {
	if name == "-" {
		name = "<stdin>"
	}

	if cfg.JSON {
		out := make([]jDiagnostic, 0, len(diags))
		for _, d := range diags {
			out = append(out, jDiagnostic{File: name, Diagnostic: d})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling json output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(diags) == 0 {
		slog.Info("no diagnostics found")
		return nil
	}
	var output strings.Builder
	for _, d := range diags {
		// Format: filename:line:column rule message
		if d.Fatal {
			output.WriteString(fmt.Sprintf("%s:%d:%d fatal %s\n", name, d.Line, d.Column, d.Message))
			continue
		}
		output.WriteString(fmt.Sprintf("%s:%d:%d %s %s (%s)\n", name, d.Line, d.Column, d.RuleID, d.Message, d.Severity))
	}
	_, err := io.WriteString(w, output.String())
	return err
}
