// Package testing provides a fake Runner for testing code that shells out
// to rancher/kubectl without spawning real processes.
package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/kdlocpanda/vision/internal/runner"
)

// Call records one invocation received by the fake.
type Call struct {
	Bin  string
	Args []string
}

// String renders the call the same way runner.Invocation does.
func (c Call) String() string {
	return c.Bin + " " + strings.Join(c.Args, " ")
}

// Response is the canned outcome for a matched invocation.
type Response struct {
	Result runner.Result
	Err    error
}

// FakeRunner returns canned responses keyed by a substring of the rendered
// invocation. Safe for concurrent use.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]Response

	// Default is returned when no key matches. Zero value means success
	// with empty output.
	Default Response
}

// NewFakeRunner creates an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// Respond registers a canned response for invocations whose rendered form
// contains the given substring. Later registrations win on overlap.
func (f *FakeRunner) Respond(substring string, res runner.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[substring] = Response{Result: res, Err: err}
}

// RespondOutput is shorthand for a successful invocation producing stdout.
func (f *FakeRunner) RespondOutput(substring, stdout string) {
	f.Respond(substring, runner.Result{Stdout: stdout}, nil)
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(_ context.Context, inv runner.Invocation) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Bin: inv.Bin, Args: append([]string(nil), inv.Args...)})

	rendered := inv.String()
	var best string
	for key := range f.responses {
		if strings.Contains(rendered, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		resp := f.responses[best]
		return resp.Result, resp.Err
	}
	return f.Default.Result, f.Default.Err
}

// Calls returns a copy of all recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns rendered invocations of the given binary.
func (f *FakeRunner) CallsTo(bin string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Bin == bin {
			out = append(out, c.String())
		}
	}
	return out
}
