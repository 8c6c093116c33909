package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/ui"
)

var initForceFlag bool

// initFile is the vision.yaml shape the init command writes.
type initFile struct {
	Listen  string `yaml:"listen"`
	Rancher struct {
		URL string `yaml:"url"`
	} `yaml:"rancher"`
	Vision struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		User string `yaml:"user,omitempty"`
	} `yaml:"vision"`
	Timeouts struct {
		Command    string `yaml:"command"`
		SSHConnect string `yaml:"ssh_connect"`
		SSHCommand string `yaml:"ssh_command"`
	} `yaml:"timeouts"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a vision.yaml configuration file",
	Long: `Interactively create vision.yaml in the current directory. Secrets
go in the environment (RANCHER_TOKEN, PASSWORD, SSH_KEY); the file holds
the non-secret settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(initForceFlag)
	},
}

func runInit(force bool) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	var rancherURL, visionHost, visionUser, visionPort string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rancher server URL").
				Description("The Rancher API endpoint (token comes from RANCHER_TOKEN)").
				Placeholder("https://rancher.example.com").
				Value(&rancherURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("Rancher URL is required")
					}
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("URL must start with http:// or https://")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Vision host").
				Description("Address or ~/.ssh/config alias of the SSH target").
				Placeholder("192.168.1.50 or vision").
				Value(&visionHost).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("host is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSH user").
				Placeholder(config.DefaultUser).
				Value(&visionUser),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSH port").
				Placeholder("22").
				Value(&visionPort).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					p, err := strconv.Atoi(s)
					if err != nil || p < 1 || p > 65535 {
						return fmt.Errorf("port must be a number between 1 and 65535")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}

	out := initFile{Listen: config.DefaultListen}
	out.Rancher.URL = strings.TrimSpace(rancherURL)
	out.Vision.Host = strings.TrimSpace(visionHost)
	out.Vision.User = strings.TrimSpace(visionUser)
	out.Vision.Port = 22
	if p := strings.TrimSpace(visionPort); p != "" {
		out.Vision.Port, _ = strconv.Atoi(p)
	}

	content, err := renderInitConfig(out)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Println("Next steps:")
	fmt.Println("  export RANCHER_TOKEN=...     - Rancher API token")
	fmt.Println("  vision doctor                - Check the setup")
	fmt.Println("  vision context set <name>    - Pick a cluster context")
	fmt.Println("  vision serve                 - Start the action server")

	return nil
}

// renderInitConfig produces the vision.yaml payload. Durations go out as
// strings and the token stays out of the file entirely, so the written
// YAML round-trips through the loader.
func renderInitConfig(out initFile) ([]byte, error) {
	out.Timeouts.Command = config.DefaultCommandTimeout.String()
	out.Timeouts.SSHConnect = config.DefaultSSHConnectTimeout.String()
	out.Timeouts.SSHCommand = config.DefaultSSHCommandTimeout.String()

	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, err
	}

	header := `# vision configuration
# Secrets stay in the environment: RANCHER_TOKEN, PASSWORD, SSH_KEY.
# Run 'vision doctor' to verify the setup.

`
	return []byte(header + string(data)), nil
}

func init() {
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
