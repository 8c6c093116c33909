// Package runner spawns the external CLI binaries the actions are built on.
// Arguments always travel as a discrete argv vector; nothing is ever routed
// through a shell, so caller-supplied strings cannot inject a second command.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/logger"
	"github.com/kdlocpanda/vision/internal/util"
)

// allowedBinaries is the closed set of binaries the runner will spawn.
var allowedBinaries = map[string]bool{
	"rancher": true,
	"kubectl": true,
}

// waitDelay is how long Wait blocks on I/O after the process is killed.
const waitDelay = 3 * time.Second

// Invocation describes a single external command. Immutable once constructed;
// created per call and discarded after execution.
type Invocation struct {
	// Bin is the binary name. Must be allow-listed.
	Bin string

	// Args is the ordered argument vector, passed literally.
	Args []string

	// Dir is an optional working directory.
	Dir string

	// Env holds optional KEY=VALUE overrides appended to the inherited
	// environment.
	Env []string
}

// String renders the invocation for logs. The value following a --token
// flag is masked so rancher login lines never leak the credential.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, inv.Bin)
	redactNext := false
	for _, a := range inv.Args {
		if redactNext {
			parts = append(parts, "********")
			redactNext = false
			continue
		}
		if a == "--token" {
			redactNext = true
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result is the captured outcome of a completed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an Invocation and returns its Result. Both the real
// CommandRunner and test fakes satisfy this interface.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// CommandRunner runs allow-listed binaries with a bounded wait.
type CommandRunner struct {
	timeout time.Duration
	log     logger.Logger
}

// New creates a CommandRunner. Each invocation is bounded by the given
// timeout; an exceeded deadline force-kills the child.
func New(timeout time.Duration) *CommandRunner {
	return &CommandRunner{
		timeout: timeout,
		log:     logger.NewEnvLogger("[runner]"),
	}
}

// SetLogger replaces the runner's logger. Useful for tests.
func (r *CommandRunner) SetLogger(l logger.Logger) {
	r.log = l
}

// Run spawns the binary, waits for completion, and returns the captured
// output. Non-zero exit returns the populated Result together with an EXEC
// error carrying the exit code and stderr. A deadline hit returns a TIMEOUT
// error after the child is killed. There are no retries: CLI state may have
// changed, so surfacing the failure is safer than running it again.
func (r *CommandRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if !allowedBinaries[inv.Bin] {
		return Result{ExitCode: -1}, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not an allowed binary", inv.Bin),
			"Only rancher and kubectl invocations are supported")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("running: %s", inv)
	runErr := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	if runErr == nil {
		r.log.Debug("command ok: %s -> %s", inv, util.Truncate(res.Stdout, 200))
		return res, nil
	}

	// Deadline and cancellation take precedence: the child was killed, the
	// exit status is meaningless.
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if ctxErr == context.DeadlineExceeded {
			return res, errors.WrapWithCode(ctxErr, errors.ErrTimeout,
				fmt.Sprintf("'%s' did not finish within %s", inv.Bin, r.timeout),
				"The child process was killed. Raise timeouts.command if the cluster is just slow.")
		}
		return res, errors.WrapWithCode(ctxErr, errors.ErrTimeout,
			fmt.Sprintf("'%s' was cancelled", inv.Bin), "")
	}

	if exitErr, ok := runErr.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		r.log.Debug("command failed: %s (exit %d)", inv, res.ExitCode)
		return res, errors.NewExec(inv.Bin, res.ExitCode, res.Stderr)
	}

	// The process never started (binary missing, permission denied).
	res.ExitCode = -1
	return res, errors.WrapWithCode(runErr, errors.ErrExec,
		fmt.Sprintf("Couldn't start '%s'", inv.Bin),
		fmt.Sprintf("Check that %s is installed and on PATH", inv.Bin))
}
