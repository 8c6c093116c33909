// Package vision runs commands on the Vision host over SSH.
package vision

import (
	"context"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/logger"
	"github.com/kdlocpanda/vision/pkg/sshutil"
)

// Executor opens a fresh SSH connection per command against the configured
// Vision host. Connections are not pooled; each call is independent so a
// wedged session never poisons the next one.
//
// Commands run with the full privileges of the authenticated SSH user.
// There is no allow-listing or sandboxing on this path; access control is
// whatever the remote account permits.
type Executor struct {
	cfg      config.VisionConfig
	timeouts config.TimeoutConfig
	dial     sshutil.Dialer
	log      logger.Logger
}

// NewExecutor builds an executor from the loaded configuration.
func NewExecutor(cfg config.VisionConfig, timeouts config.TimeoutConfig) *Executor {
	return &Executor{
		cfg:      cfg,
		timeouts: timeouts,
		dial:     sshutil.DefaultDialer,
		log:      logger.NewEnvLogger("[ssh]"),
	}
}

// SetDialer replaces the connection factory. Tests use this to avoid
// touching the network.
func (e *Executor) SetDialer(d sshutil.Dialer) {
	e.dial = d
}

// SetPassword supplies a password collected at runtime, for when the
// configuration carries no credential.
func (e *Executor) SetPassword(password string) {
	e.cfg.Password = password
}

// HasCredential reports whether the configuration carries a password or key.
func (e *Executor) HasCredential() bool {
	return e.cfg.Password != "" || e.cfg.KeyPEM() != ""
}

// Target returns the SSH target assembled from the configuration.
func (e *Executor) Target() sshutil.Target {
	user := e.cfg.User
	if user == "" {
		user = config.DefaultUser
	}
	return sshutil.Target{
		Host:          e.cfg.Host,
		Port:          e.cfg.Port,
		User:          user,
		Password:      e.cfg.Password,
		KeyPEM:        e.cfg.KeyPEM(),
		StrictHostKey: e.cfg.StrictHostKey,
	}
}

// Execute runs one command on the Vision host and returns its output.
// A non-zero remote exit code is reported in the result, not as an error.
func (e *Executor) Execute(ctx context.Context, command string) (api.CommandResult, error) {
	target := e.Target()
	if err := target.Validate(); err != nil {
		return api.CommandResult{}, err
	}

	e.log.Debug("ssh: connecting to %s", target.Host)
	conn, err := e.dial(target, e.timeouts.SSHConnect)
	if err != nil {
		return api.CommandResult{}, err
	}
	defer conn.Close()

	e.log.Debug("ssh: running command on %s", target.Host)
	res, err := conn.Exec(ctx, command, e.timeouts.SSHCommand)
	if err != nil {
		return api.CommandResult{}, err
	}
	return api.CommandResult{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
	}, nil
}
