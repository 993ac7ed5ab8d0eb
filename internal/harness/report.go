package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/715d/rulecheck/pkg/ruletester"
)

// FixtureResult is the outcome of one fixture.
type FixtureResult struct {
	Path    string              `json:"path"`
	Rule    string              `json:"rule"`
	Skipped bool                `json:"skipped,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	Cases   []ruletester.Result `json:"cases,omitempty"`
}

// Failed returns the cases of the fixture that reported a failure.
func (r FixtureResult) Failed() []ruletester.Result {
	var failed []ruletester.Result
	for _, c := range r.Cases {
		if !c.Passed() {
			failed = append(failed, c)
		}
	}
	return failed
}

// Report aggregates the results of a run.
type Report struct {
	Fixtures []FixtureResult `json:"fixtures"`
}

// Summary holds the totals of a report.
type Summary struct {
	Fixtures int `json:"fixtures"`
	Cases    int `json:"cases"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Summary counts fixtures, cases, failed cases and skipped fixtures.
func (r *Report) Summary() Summary {
	s := Summary{Fixtures: len(r.Fixtures)}
	for _, f := range r.Fixtures {
		if f.Skipped {
			s.Skipped++
			continue
		}
		s.Cases += len(f.Cases)
		s.Failed += len(f.Failed())
	}
	return s
}

// Success reports whether no case failed.
func (r *Report) Success() bool {
	return r.Summary().Failed == 0
}

// WriteText writes a human-readable report: one line per fixture followed by
// the failing cases and their first failure.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	for _, f := range r.Fixtures {
		switch failed := f.Failed(); {
		case f.Skipped:
			fmt.Fprintf(&b, "SKIP %s (%s): %s\n", f.Path, f.Rule, f.Reason)
		case len(failed) > 0:
			fmt.Fprintf(&b, "FAIL %s (%s): %d of %d cases failed\n", f.Path, f.Rule, len(failed), len(f.Cases))
			for _, c := range failed {
				fmt.Fprintf(&b, "    %q: %s\n", c.Name, c.Summary())
			}
		default:
			fmt.Fprintf(&b, "PASS %s (%s): %d cases\n", f.Path, f.Rule, len(f.Cases))
		}
	}
	s := r.Summary()
	fmt.Fprintf(&b, "%d fixtures, %d cases, %d failed, %d skipped\n", s.Fixtures, s.Cases, s.Failed, s.Skipped)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report and its summary as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*Report
		Summary Summary `json:"summary"`
	}{r, r.Summary()})
}
