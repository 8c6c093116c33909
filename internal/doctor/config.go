package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdlocpanda/vision/internal/config"
)

// RancherCredsCheck verifies the Rancher URL and token are configured.
type RancherCredsCheck struct {
	Cfg config.RancherConfig
}

func (c *RancherCredsCheck) Name() string     { return "rancher_credentials" }
func (c *RancherCredsCheck) Category() string { return "CONFIG" }

func (c *RancherCredsCheck) Run() CheckResult {
	switch {
	case c.Cfg.URL == "" && c.Cfg.Token == "":
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Rancher URL and token are not configured",
			Suggestion: "Export RANCHER_URL and RANCHER_TOKEN, or set rancher.url and rancher.token in vision.yaml",
		}
	case c.Cfg.URL == "":
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Rancher token is set but the URL is missing",
			Suggestion: "Export RANCHER_URL or set rancher.url in vision.yaml",
		}
	case c.Cfg.Token == "":
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Rancher URL is set but the token is missing",
			Suggestion: "Export RANCHER_TOKEN or set rancher.token in vision.yaml",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Rancher credentials configured for " + c.Cfg.URL,
	}
}

// DataDirCheck verifies the data directory exists and is writable.
type DataDirCheck struct {
	Dir string
}

func (c *DataDirCheck) Name() string     { return "data_dir" }
func (c *DataDirCheck) Category() string { return "CONFIG" }

func (c *DataDirCheck) Run() CheckResult {
	if c.Dir == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "data_dir is not configured",
			Suggestion: "Set data_dir in vision.yaml or export VISION_DATA_DIR",
		}
	}

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("can't create data dir %s", c.Dir),
			Suggestion: fmt.Sprintf("Error: %v", err),
		}
	}

	probe := filepath.Join(c.Dir, ".doctor-write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("data dir %s is not writable", c.Dir),
			Suggestion: "Check directory ownership and permissions",
		}
	}
	os.Remove(probe)

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "data dir writable: " + c.Dir,
	}
}

// ContextCheck reports whether a Rancher context has been selected.
type ContextCheck struct {
	// Get reads the persisted context; typically Store.Get.
	Get func() (string, error)
}

func (c *ContextCheck) Name() string     { return "rancher_context" }
func (c *ContextCheck) Category() string { return "CONFIG" }

func (c *ContextCheck) Run() CheckResult {
	value, err := c.Get()
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "no Rancher context selected",
			Suggestion: "Pick one with: vision context set <name-or-id>",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "context: " + value,
	}
}
