package config

import (
	"fmt"
	"strings"

	"github.com/kdlocpanda/vision/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
// Credential presence is deliberately not checked here: the Rancher and SSH
// layers validate their own requirements at call time, so a config with no
// credentials still loads (the kubectl-only actions keep working without them).
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Listen) == "" {
		return errors.New(errors.ErrConfig,
			"listen address is empty",
			"Set 'listen' in vision.yaml or leave it unset for the default "+DefaultListen)
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New(errors.ErrConfig,
			"data_dir is empty",
			"Set 'data_dir' to a writable directory or leave it unset for the default")
	}

	if cfg.Vision.Port < 1 || cfg.Vision.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("vision.port %d is out of range", cfg.Vision.Port),
			"Use a port between 1 and 65535 (22 is the default)")
	}

	for name, d := range map[string]interface{ Seconds() float64 }{
		"timeouts.command":     cfg.Timeouts.Command,
		"timeouts.ssh_connect": cfg.Timeouts.SSHConnect,
		"timeouts.ssh_command": cfg.Timeouts.SSHCommand,
	} {
		if d.Seconds() <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s must be positive", name),
				"Use a Go duration string like '30s' or remove the key for the default")
		}
	}

	return nil
}
