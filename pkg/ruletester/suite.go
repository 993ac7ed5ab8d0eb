package ruletester

import (
	"fmt"
	"strings"
	"testing"
)

// TestingT is the part of a test handle the assertions need. It is satisfied
// by *testing.T and by the handles a Recorder passes to its cases.
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
}

// Suite is the test-reporting framework cases are registered with: one named
// group per rule and one named test per case.
type Suite interface {
	Describe(name string, fn func(s Suite))
	It(name string, fn func(t TestingT))
}

// ForTesting adapts a *testing.T so groups and cases become subtests.
//
//nolint:ireturn // Adapters return the interface they implement
func ForTesting(t *testing.T) Suite {
	return testingSuite{t: t}
}

type testingSuite struct {
	t *testing.T
}

func (s testingSuite) Describe(name string, fn func(s Suite)) {
	s.t.Helper()
	s.t.Run(name, func(t *testing.T) {
		fn(testingSuite{t: t})
	})
}

func (s testingSuite) It(name string, fn func(t TestingT)) {
	s.t.Helper()
	s.t.Run(name, func(t *testing.T) {
		fn(t)
	})
}

// Result is the outcome of one recorded case.
type Result struct {
	// Group is the path of Describe names the case was registered under.
	Group string `json:"group"`

	// Name is the case name.
	Name string `json:"name"`

	// Failures holds every failure reported by the case, in order.
	Failures []string `json:"failures,omitempty"`
}

// Passed reports whether the case reported no failures.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Summary returns the first line of the first failure's message, which is
// the message passed to the assertion when there is one.
func (r Result) Summary() string {
	if r.Passed() {
		return ""
	}
	return headline(r.Failures[0])
}

// headline extracts the most specific line of a testify failure.
func headline(failure string) string {
	var errLine string
	for line := range strings.SplitSeq(failure, "\n") {
		line = strings.TrimSpace(line)
		if msg, ok := strings.CutPrefix(line, "Messages:"); ok {
			return strings.TrimSpace(msg)
		}
		if msg, ok := strings.CutPrefix(line, "Error:"); ok && errLine == "" {
			errLine = strings.TrimSpace(msg)
		}
	}
	if errLine != "" {
		return errLine
	}
	for line := range strings.SplitSeq(failure, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return failure
}

// Recorder is a Suite that runs every case as soon as it is registered and
// keeps the outcome instead of reporting to a test binary. A Recorder is not
// safe for concurrent use.
type Recorder struct {
	path    []string
	results []Result
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Describe runs fn with the group name pushed onto the current path.
func (r *Recorder) Describe(name string, fn func(s Suite)) {
	r.path = append(r.path, name)
	defer func() { r.path = r.path[:len(r.path)-1] }()
	fn(r)
}

// It runs fn immediately and records its outcome.
func (r *Recorder) It(name string, fn func(t TestingT)) {
	ct := &caseT{}
	ct.run(fn)
	r.results = append(r.results, Result{
		Group:    strings.Join(r.path, " / "),
		Name:     name,
		Failures: ct.failures,
	})
}

// Results returns the recorded outcomes in registration order.
func (r *Recorder) Results() []Result {
	return r.results
}

// Failed returns the number of cases that reported a failure.
func (r *Recorder) Failed() int {
	var n int
	for _, res := range r.results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

// failNow unwinds a recorded case; it never escapes caseT.run.
type failNow struct{}

type caseT struct {
	failures []string
}

func (t *caseT) Errorf(format string, args ...any) {
	t.failures = append(t.failures, fmt.Sprintf(format, args...))
}

func (t *caseT) FailNow() {
	panic(failNow{})
}

func (t *caseT) run(fn func(t TestingT)) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(failNow); ok {
				return
			}
			t.failures = append(t.failures, fmt.Sprintf("panic: %v", r))
		}
	}()
	fn(t)
}
