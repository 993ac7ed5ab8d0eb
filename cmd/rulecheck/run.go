package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/715d/rulecheck/internal/harness"
	_ "github.com/715d/rulecheck/pkg/rules"
)

const defaultFixtureDir = "testdata/rules"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run rule fixtures",
		Long: `Run executes YAML rule fixtures. Each path is a fixture file or a
directory searched for *.yaml and *.yml files. Without paths, ` + defaultFixtureDir + `
is used. The exit code is 1 when any case fails.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{defaultFixtureDir}
			}
			return runFixtures(cmd, args)
		},
	}
	cmd.Flags().IntVarP(&cfg.Parallel, "parallel", "p", 0, "Number of fixtures to run at once (0 uses one per CPU)")
	return cmd
}

func runFixtures(cmd *cobra.Command, paths []string) error {
	start := time.Now()
	slog.Info("loading fixtures", "paths", paths)

	var fixtures []*harness.Fixture
	for _, p := range paths {
		loaded, err := harness.LoadAll(p)
		if err != nil {
			return errWithCode(fmt.Errorf("load fixtures: %w", err), exitError)
		}
		fixtures = append(fixtures, loaded...)
	}
	slog.Info("loaded fixtures", "num", len(fixtures))

	report, err := harness.NewRunner(harness.Options{Parallel: cfg.Parallel}).Run(cmd.Context(), fixtures)
	if err != nil {
		return errWithCode(fmt.Errorf("run fixtures: %w", err), exitError)
	}
	slog.Info("run completed", "dur", time.Since(start))

	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}
	if !report.Success() {
		return errWithCode(nil, exitFailures)
	}
	return nil
}

func writeReport(w io.Writer, report *harness.Report) error {
	if cfg.JSON {
		return report.WriteJSON(w)
	}
	return report.WriteText(w)
}
