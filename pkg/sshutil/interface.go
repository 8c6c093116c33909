package sshutil

import (
	"context"
	"time"
)

// Conn is the subset of Client that command execution needs.
// Callers depend on this so tests can substitute a fake connection.
type Conn interface {
	Exec(ctx context.Context, cmd string, timeout time.Duration) (Result, error)
	Close() error
}

// Dialer opens a connection to a target. The default is Dial.
type Dialer func(target Target, timeout time.Duration) (Conn, error)

// DefaultDialer adapts Dial to the Dialer signature.
func DefaultDialer(target Target, timeout time.Duration) (Conn, error) {
	return Dial(target, timeout)
}
