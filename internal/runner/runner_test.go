package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdlocpanda/vision/internal/errors"
)

// writeStub installs a fake allow-listed binary into its own directory and
// points PATH at it.
func writeStub(t *testing.T, name, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries use /bin/sh")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir)
}

func TestRun_CapturesStdout(t *testing.T) {
	writeStub(t, "kubectl", `printf 'pod-a Running\n'`)

	res, err := New(5*time.Second).Run(context.Background(), Invocation{
		Bin:  "kubectl",
		Args: []string{"get", "pods"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "pod-a Running", res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestRun_ArgumentsAreNotShellInterpreted(t *testing.T) {
	// Each argument is echoed on its own line; an injection attempt must
	// arrive as one literal argument, not execute as a second command.
	writeStub(t, "kubectl", `for a in "$@"; do printf '%s\n' "$a"; done`)

	canary := filepath.Join(t.TempDir(), "canary")
	require.NoError(t, os.WriteFile(canary, []byte("x"), 0o644))

	hostile := `"; rm -rf ` + canary + ` #`
	res, err := New(5*time.Second).Run(context.Background(), Invocation{
		Bin:  "kubectl",
		Args: []string{"get", hostile, "$(touch /tmp/pwned)"},
	})
	require.NoError(t, err)

	lines := strings.Split(res.Stdout, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "get", lines[0])
	assert.Equal(t, hostile, lines[1])
	assert.Equal(t, "$(touch /tmp/pwned)", lines[2])

	_, statErr := os.Stat(canary)
	assert.NoError(t, statErr, "canary file must survive the hostile argument")
}

func TestRun_NonZeroExit(t *testing.T) {
	writeStub(t, "rancher", `echo "context not found" >&2; exit 3`)

	res, err := New(5*time.Second).Run(context.Background(), Invocation{
		Bin:  "rancher",
		Args: []string{"context", "switch"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "context not found", res.Stderr)

	var execErr *errors.Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Message, "context not found")
}

func TestRun_TimeoutKillsChild(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	writeStub(t, "kubectl", `echo $$ > `+pidFile+`; exec /bin/sleep 30`)

	start := time.Now()
	_, err := New(150*time.Millisecond).Run(context.Background(), Invocation{
		Bin:  "kubectl",
		Args: []string{"get", "pods", "--watch"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	assert.Less(t, time.Since(start), 10*time.Second, "timeout must not wait for the sleep")

	raw, readErr := os.ReadFile(pidFile)
	require.NoError(t, readErr)
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, convErr)

	// The child must be gone: signal 0 probes existence without killing.
	sigErr := syscall.Kill(pid, syscall.Signal(0))
	assert.ErrorIs(t, sigErr, syscall.ESRCH, "child process %d should not survive the timeout", pid)
}

func TestRun_ContextCancellation(t *testing.T) {
	writeStub(t, "kubectl", `exec /bin/sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := New(time.Minute).Run(ctx, Invocation{Bin: "kubectl", Args: []string{"get", "pods"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
}

func TestRun_DisallowedBinary(t *testing.T) {
	res, err := New(time.Second).Run(context.Background(), Invocation{
		Bin:  "bash",
		Args: []string{"-c", "true"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, -1, res.ExitCode)
}

func TestRun_BinaryNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := New(time.Second).Run(context.Background(), Invocation{
		Bin:  "rancher",
		Args: []string{"login"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "rancher")
}

func TestInvocation_String(t *testing.T) {
	inv := Invocation{Bin: "kubectl", Args: []string{"-n", "default", "get", "pods"}}
	assert.Equal(t, "kubectl -n default get pods", inv.String())
}

func TestInvocation_String_RedactsToken(t *testing.T) {
	inv := Invocation{Bin: "rancher", Args: []string{"login", "https://r.example", "--token", "token-abc:secret"}}
	rendered := inv.String()
	assert.NotContains(t, rendered, "token-abc:secret")
	assert.Contains(t, rendered, "--token ********")
}
