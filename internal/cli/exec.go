package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kdlocpanda/vision/internal/errors"
)

var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run a command on the Vision host over SSH",
	Long: `Run a command on the Vision host. With no password or key in the
configuration, an interactive password prompt is shown.

Examples:
  vision exec "uptime"
  vision exec systemctl status docker`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		if !app.vision.HasCredential() {
			password, err := promptPassword(app.cfg.Vision.Host)
			if err != nil {
				return err
			}
			app.vision.SetPassword(password)
		}

		result, err := app.vision.Execute(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return emit(result, func() string {
			out := result.Stdout
			if result.Stderr != "" {
				out += result.Stderr
			}
			if out != "" && !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			return out
		})
	},
}

func promptPassword(host string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) || MachineMode() {
		return "", errors.New(errors.ErrConfig,
			"no SSH credential configured",
			"Set vision.password or vision.ssh_key in the config, or run interactively")
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", host)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"could not read password",
			"Set vision.password in the config to skip the prompt")
	}
	return string(raw), nil
}

func init() {
	rootCmd.AddCommand(execCmd)
}
