package doctor

import (
	"fmt"
	"os/exec"
	"strings"
)

// BinaryCheck verifies an external CLI is on PATH.
type BinaryCheck struct {
	Binary     string
	InstallHint string
}

func (c *BinaryCheck) Name() string     { return "binary_" + c.Binary }
func (c *BinaryCheck) Category() string { return "DEPENDENCIES" }

func (c *BinaryCheck) Run() CheckResult {
	path, err := exec.LookPath(c.Binary)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s not found on PATH", c.Binary),
			Suggestion: c.InstallHint,
		}
	}

	version := binaryVersion(path, c.Binary)
	if version == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("%s found (version unknown)", c.Binary),
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s %s", c.Binary, version),
	}
}

// binaryVersion asks the CLI for its version. Both rancher and kubectl
// answer `--version` with a single line.
func binaryVersion(path, binary string) string {
	args := []string{"--version"}
	if binary == "kubectl" {
		args = []string{"version", "--client", "--short"}
	}
	out, err := exec.Command(path, args...).Output()
	if err != nil {
		return ""
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	return strings.TrimSpace(strings.TrimPrefix(line, binary+" version"))
}
