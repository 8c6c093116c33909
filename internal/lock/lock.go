// Package lock serializes access to shared mutable state on disk across
// processes. The rancher CLI keeps its login and current project in a
// per-user config directory, so two concurrent action requests logging
// into different contexts would silently run against the wrong cluster.
// A lock directory created with mkdir (atomic on every filesystem that
// matters) is the primitive; an info file inside it names the holder.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kdlocpanda/vision/internal/errors"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultTimeout = 30 * time.Second
	DefaultStale   = 10 * time.Minute

	retryInterval = 100 * time.Millisecond
)

// Options tunes lock acquisition.
type Options struct {
	// Timeout bounds how long Acquire waits for a held lock.
	Timeout time.Duration

	// Stale is the age past which a lock is presumed abandoned and
	// removed. Locks whose holding process is gone are removed sooner.
	Stale time.Duration

	// Command is recorded in the holder info for error messages.
	Command string
}

// Lock is an acquired lock. Release it when the guarded work is done.
type Lock struct {
	Dir  string
	Info *Info
}

// Acquire takes the lock at dir, waiting for a holder to release it. Stale
// locks and locks held by dead processes are broken. Acquisition gives up
// with a TIMEOUT error when Options.Timeout or ctx expires first.
func Acquire(ctx context.Context, dir string, opts Options) (*Lock, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Stale <= 0 {
		opts.Stale = DefaultStale
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create the lock parent directory",
			"Check permissions on "+filepath.Dir(dir))
	}

	info := NewInfo(opts.Command)
	infoFile := filepath.Join(dir, "info.json")
	deadline := time.Now().Add(opts.Timeout)

	for {
		if err := os.Mkdir(dir, 0o755); err == nil {
			data, merr := info.Marshal()
			if merr != nil {
				os.RemoveAll(dir)
				return nil, merr
			}
			if werr := os.WriteFile(infoFile, data, 0o644); werr != nil {
				os.RemoveAll(dir)
				return nil, errors.WrapWithCode(werr, errors.ErrConfig,
					"Couldn't write the lock info file",
					"Check disk space and permissions on "+dir)
			}
			return &Lock{Dir: dir, Info: info}, nil
		} else if !os.IsExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create the lock directory",
				"Check permissions on "+filepath.Dir(dir))
		}

		if shouldBreak(infoFile, opts.Stale) {
			if err := os.RemoveAll(dir); err == nil {
				continue
			}
		}

		if time.Now().After(deadline) {
			return nil, errors.New(errors.ErrTimeout,
				fmt.Sprintf("timed out waiting for lock after %s", opts.Timeout),
				"Lock held by: "+Holder(dir))
		}

		select {
		case <-ctx.Done():
			return nil, errors.WrapWithCode(ctx.Err(), errors.ErrTimeout,
				"gave up waiting for lock",
				"Lock held by: "+Holder(dir))
		case <-time.After(retryInterval):
		}
	}
}

// Release removes the lock, allowing others to acquire it.
func (l *Lock) Release() error {
	if l == nil || l.Dir == "" {
		return nil
	}
	return os.RemoveAll(l.Dir)
}

// Holder describes who holds the lock at dir, for error messages.
func Holder(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "info.json"))
	if err != nil {
		return "unknown"
	}
	info, err := ParseInfo(data)
	if err != nil {
		return strings.TrimSpace(string(data))
	}
	return info.String()
}

// shouldBreak reports whether the lock at infoFile is safe to remove: its
// holder is dead, it outlived the stale threshold, or its info never got
// written (a crash between mkdir and write leaves exactly that).
func shouldBreak(infoFile string, stale time.Duration) bool {
	data, err := os.ReadFile(infoFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Grace period covers the holder still writing the file.
			if fi, serr := os.Stat(filepath.Dir(infoFile)); serr == nil {
				return time.Since(fi.ModTime()) > 5*time.Second
			}
		}
		return false
	}

	info, err := ParseInfo(data)
	if err != nil {
		return true
	}
	if !info.Alive() {
		return true
	}
	return info.Age() > stale
}
