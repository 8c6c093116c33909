// Package testing provides fake SSH connections for tests that exercise
// remote command execution without a real host.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/kdlocpanda/vision/pkg/sshutil"
)

// FakeConn implements sshutil.Conn with canned responses.
type FakeConn struct {
	mu        sync.Mutex
	responses map[string]response
	def       response
	commands  []string
	closed    bool
}

type response struct {
	result sshutil.Result
	err    error
}

// NewFakeConn returns a fake that answers every command with an empty
// successful result until told otherwise.
func NewFakeConn() *FakeConn {
	return &FakeConn{responses: make(map[string]response)}
}

// Respond registers the result returned for an exact command string.
func (f *FakeConn) Respond(cmd string, result sshutil.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = response{result: result, err: err}
}

// RespondDefault sets the fallback for commands with no registered response.
func (f *FakeConn) RespondDefault(result sshutil.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.def = response{result: result, err: err}
}

// Exec records the command and returns the registered response.
func (f *FakeConn) Exec(_ context.Context, cmd string, _ time.Duration) (sshutil.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if r, ok := f.responses[cmd]; ok {
		return r.result, r.err
	}
	return f.def.result, f.def.err
}

// Close marks the connection closed.
func (f *FakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Commands returns every command executed so far.
func (f *FakeConn) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	copy(out, f.commands)
	return out
}

// Closed reports whether Close was called.
func (f *FakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
