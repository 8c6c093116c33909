// Package rancher wraps the Rancher CLI: context selection, VM power
// control, and kubeconfig retrieval. Every invocation authenticates fresh
// with credentials from the environment, which keeps the wrapper stateless
// across container restarts.
package rancher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kdlocpanda/vision/internal/errors"
)

// ErrNoContext is returned by Store.Get when no context has ever been set.
// It is a distinct sentinel so callers never conflate "unset" with an empty
// string.
var ErrNoContext = errors.New(errors.ErrConfig,
	"no rancher context set",
	"Set one with the set-context action, e.g. 'c-abc123:p-def456' or a context name")

// Store persists the single current Rancher project context to a file in
// the data directory. Writes are atomic (temp file + rename), so a
// concurrent reader sees either the old or the new value in full, never a
// torn one. The value model is last-writer-wins; no lock is held.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get reads the current context. A missing or empty file yields ErrNoContext.
func (s *Store) Get() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoContext
		}
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read the rancher context file",
			"Check permissions on "+s.path)
	}

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", ErrNoContext
	}
	return value, nil
}

// Set writes a new context value atomically. Empty values are rejected;
// use the file's absence to represent "unset".
func (s *Store) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New(errors.ErrConfig,
			"context value is empty",
			"Pass a project id like 'c-abc123:p-def456'")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create the context directory",
			"Check permissions on "+dir)
	}

	// Write-to-temp-then-rename so no reader ever observes a partial value.
	tmp, err := os.CreateTemp(dir, ".selected_context-*")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't stage the context file",
			"Check permissions on "+dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write the context file", "")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write the context file", "")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't replace the context file", "")
	}
	return nil
}
