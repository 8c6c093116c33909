package sshutil

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kdlocpanda/vision/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Result holds the output of one remote command.
// A non-zero ExitCode is a command outcome, not a transport failure.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec runs a command on the remote host, bounded by ctx and timeout.
// The command string is handed to the remote shell as-is, with whatever
// privileges the authenticated user holds; nothing is filtered here.
// When the deadline fires the underlying connection is force-closed so the
// remote side tears down the session.
func (c *Client) Exec(ctx context.Context, cmd string, timeout time.Duration) (Result, error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		// Close the whole connection. Closing just the session doesn't
		// reliably interrupt a running remote process.
		c.Close()
		<-done
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, errors.WrapWithCode(ctx.Err(), errors.ErrTimeout,
				fmt.Sprintf("Command on '%s' timed out, the connection was closed", c.Host),
				"Raise timeouts.ssh_command or run something quicker.")
		}
		return Result{}, errors.WrapWithCode(ctx.Err(), errors.ErrTimeout,
			fmt.Sprintf("Command on '%s' was canceled", c.Host),
			"")
	case err = <-done:
	}

	result := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return Result{}, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Command on '%s' failed before it could finish", c.Host),
			"The connection may have dropped mid-command. Try again.")
	}
	return result, nil
}
