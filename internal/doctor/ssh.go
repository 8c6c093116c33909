package doctor

import (
	"fmt"
	"time"

	"github.com/kdlocpanda/vision/pkg/sshutil"
)

// SSHCheck validates the Vision SSH credential and, when asked, tries to
// reach the host.
type SSHCheck struct {
	Target  sshutil.Target
	Timeout time.Duration

	// Reach controls whether the check actually dials the host. Credential
	// validation alone never touches the network.
	Reach bool

	// Dial is swappable for tests; nil means sshutil.DefaultDialer.
	Dial sshutil.Dialer
}

func (c *SSHCheck) Name() string     { return "vision_ssh" }
func (c *SSHCheck) Category() string { return "SSH" }

func (c *SSHCheck) Run() CheckResult {
	if err := c.Target.Validate(); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Vision SSH target is misconfigured",
			Suggestion: err.Error(),
		}
	}

	if !c.Reach {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("SSH credential configured for %s@%s", c.Target.User, c.Target.Host),
		}
	}

	dial := c.Dial
	if dial == nil {
		dial = sshutil.DefaultDialer
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	conn, err := dial(c.Target, timeout)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("can't reach %s over SSH", c.Target.Host),
			Suggestion: err.Error(),
		}
	}
	conn.Close()

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("SSH connection to %s works", c.Target.Host),
	}
}
