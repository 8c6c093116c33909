package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kdlocpanda/vision/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "vision.yaml"
	// GlobalConfigDir is the directory for global config, under $HOME.
	GlobalConfigDir = ".config/vision"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// envBindings maps config keys to the environment variables the original
// deployment used. RANCHER_* and VISION_*/PASSWORD/SSH_KEY take precedence
// over file values.
var envBindings = map[string]string{
	"listen":               "VISION_LISTEN",
	"data_dir":             "VISION_DATA_DIR",
	"rancher.url":          "RANCHER_URL",
	"rancher.token":        "RANCHER_TOKEN",
	"rancher.insecure":     "RANCHER_INSECURE",
	"rancher.cacerts":      "RANCHER_CACERTS",
	"vision.host":          "VISION_IP",
	"vision.port":          "VISION_PORT",
	"vision.user":          "VISION_USERNAME",
	"vision.password":      "PASSWORD",
	"vision.ssh_key":       "SSH_KEY",
	"timeouts.command":     "VISION_COMMAND_TIMEOUT",
	"timeouts.ssh_connect": "VISION_SSH_CONNECT_TIMEOUT",
	"timeouts.ssh_command": "VISION_SSH_COMMAND_TIMEOUT",
}

// Load reads config from the specified path, applying environment bindings
// and defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Run 'vision init' to create one, or specify another with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parse(v)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. vision.yaml in the current directory
// 3. ~/.config/vision/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns an
// environment-and-defaults-only config when no file exists. The original
// deployment ran on environment variables alone, so a missing file is not
// an error.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return parse(newViper())
	}
	return Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, env := range envBindings {
		// BindEnv only fails on an empty key
		_ = v.BindEnv(key, env)
	}

	v.SetDefault("listen", DefaultListen)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("vision.port", 22)
	v.SetDefault("vision.user", DefaultUser)
	v.SetDefault("timeouts.command", DefaultCommandTimeout)
	v.SetDefault("timeouts.ssh_connect", DefaultSSHConnectTimeout)
	v.SetDefault("timeouts.ssh_command", DefaultSSHCommandTimeout)

	return v
}

func parse(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Config file has invalid values",
			"Check field types match the documented schema")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vision")
	}
	return filepath.Join(home, ".local", "share", "vision")
}
