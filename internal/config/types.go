package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete vision.yaml configuration file.
// Every field can also be supplied through environment variables; see
// the bindings in loader.go.
type Config struct {
	// Listen is the address the action server binds to.
	Listen string `yaml:"listen" mapstructure:"listen"`

	// DataDir is the writable directory owned by this process. The
	// persisted Rancher context lives under it.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Rancher  RancherConfig `yaml:"rancher" mapstructure:"rancher"`
	Vision   VisionConfig  `yaml:"vision" mapstructure:"vision"`
	Timeouts TimeoutConfig `yaml:"timeouts" mapstructure:"timeouts"`
}

// RancherConfig holds Rancher CLI authentication settings.
type RancherConfig struct {
	// URL is the Rancher server URL (env: RANCHER_URL).
	URL string `yaml:"url" mapstructure:"url"`

	// Token is the Rancher API token (env: RANCHER_TOKEN). Never logged.
	Token string `yaml:"token" mapstructure:"token"`

	// Insecure skips TLS verification on rancher login (env: RANCHER_INSECURE).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`

	// CACerts is a path to CA certificates passed to rancher login
	// (env: RANCHER_CACERTS).
	CACerts string `yaml:"cacerts" mapstructure:"cacerts"`
}

// VisionConfig holds the SSH target settings for the Vision host.
// Exactly one of Password or SSHKey must be set for remote execution.
type VisionConfig struct {
	// Host is the address or ~/.ssh/config alias of the Vision machine
	// (env: VISION_IP).
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the SSH port (env: VISION_PORT).
	Port int `yaml:"port" mapstructure:"port"`

	// User is the SSH username (env: VISION_USERNAME).
	User string `yaml:"user" mapstructure:"user"`

	// Password authenticates with a password (env: PASSWORD). Never logged.
	Password string `yaml:"password" mapstructure:"password"`

	// SSHKey is private key material (env: SSH_KEY). Literal "\n" sequences
	// are accepted in place of newlines so the key survives .env files.
	SSHKey string `yaml:"ssh_key" mapstructure:"ssh_key"`

	// StrictHostKey verifies the host key against ~/.ssh/known_hosts.
	// Off by default to match unattended deployments.
	StrictHostKey bool `yaml:"strict_host_key" mapstructure:"strict_host_key"`
}

// KeyPEM returns the private key material with escaped newlines restored.
func (v VisionConfig) KeyPEM() string {
	return strings.ReplaceAll(v.SSHKey, `\n`, "\n")
}

// TimeoutConfig bounds every blocking operation in the core.
type TimeoutConfig struct {
	// Command bounds a single rancher/kubectl invocation.
	Command time.Duration `yaml:"command" mapstructure:"command"`

	// SSHConnect bounds the SSH dial + handshake.
	SSHConnect time.Duration `yaml:"ssh_connect" mapstructure:"ssh_connect"`

	// SSHCommand bounds a single remote command execution.
	SSHCommand time.Duration `yaml:"ssh_command" mapstructure:"ssh_command"`
}

// Default timeout values, overridable in vision.yaml.
const (
	DefaultCommandTimeout    = 30 * time.Second
	DefaultSSHConnectTimeout = 10 * time.Second
	DefaultSSHCommandTimeout = 60 * time.Second
)

// DefaultListen is the address the action server binds to when unconfigured.
// nginx terminates TLS in front of it, so localhost-only is the safe default.
const DefaultListen = "127.0.0.1:8084"

// DefaultUser is the SSH username used when VISION_USERNAME is not set.
const DefaultUser = "kdlocpanda"

// ContextFile returns the path of the persisted Rancher context file.
func (c *Config) ContextFile() string {
	return filepath.Join(c.DataDir, "rancher", "selected_context")
}

// CLILockDir returns the lock directory serializing rancher CLI calls.
func (c *Config) CLILockDir() string {
	return filepath.Join(c.DataDir, "rancher", "cli.lock")
}
