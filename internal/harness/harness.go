package harness

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/715d/rulecheck/internal/analysis"
	"github.com/715d/rulecheck/pkg/lint"
	"github.com/715d/rulecheck/pkg/ruletester"
)

// Runner executes fixtures through the rule tester.
type Runner struct {
	opts Options
}

// NewRunner creates a runner with the given options.
func NewRunner(opts Options) *Runner {
	if opts.Parallel <= 0 {
		opts.Parallel = runtime.NumCPU()
	}
	return &Runner{opts: opts}
}

// Run executes every fixture and returns the aggregated report. Fixtures run
// concurrently, each against its own linter; results keep the input order.
func (r *Runner) Run(ctx context.Context, fixtures []*Fixture) (*Report, error) {
	results := make([]FixtureResult, len(fixtures))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallel)
	for i, f := range fixtures {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run %s: %w", f.Path, err)
			}
			results[i] = r.runFixture(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Report{Fixtures: results}, nil
}

// runFixture executes a single fixture with a recorder.
func (r *Runner) runFixture(f *Fixture) FixtureResult {
	res := FixtureResult{
		Path: f.Path,
		Rule: analysis.RuleName(f.RulePath()),
	}
	if f.Skip {
		slog.Debug("skipping fixture", "path", f.Path, "reason", f.Reason)
		res.Skipped = true
		res.Reason = f.Reason
		return res
	}

	rec := ruletester.NewRecorder()
	ruletester.New(lint.New()).Run(rec, f.RulePath(), f.Bundle)
	res.Cases = rec.Results()

	slog.Debug("ran fixture", "path", f.Path, "rule", res.Rule, "cases", len(res.Cases), "failed", rec.Failed())
	return res
}
