package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/doctor"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/ui"
)

var reachFlag bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment and configuration",
	Long: `Check external binaries, configuration, and the SSH credential.
With --reach the SSH check actually dials the Vision host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		checks := []doctor.Check{
			&doctor.BinaryCheck{Binary: "rancher", InstallHint: "Install the Rancher CLI: https://github.com/rancher/cli/releases"},
			&doctor.BinaryCheck{Binary: "kubectl", InstallHint: "Install kubectl: https://kubernetes.io/docs/tasks/tools/"},
			&doctor.RancherCredsCheck{Cfg: app.cfg.Rancher},
			&doctor.DataDirCheck{Dir: app.cfg.DataDir},
			&doctor.ContextCheck{Get: app.rancher.Store().Get},
			&doctor.SSHCheck{
				Target:  app.vision.Target(),
				Timeout: app.cfg.Timeouts.SSHConnect,
				Reach:   reachFlag,
			},
		}

		results := doctor.RunAllParallel(checks)

		if MachineMode() {
			// Statuses travel in the envelope data; a second error
			// envelope would corrupt the stream.
			return WriteJSONSuccess(os.Stdout, results)
		}

		fmt.Print(ui.RenderChecks(results))
		if doctor.HasFailures(results) {
			return errors.New(errors.ErrConfig,
				"environment checks failed",
				"Fix the failing checks above and rerun vision doctor")
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&reachFlag, "reach", false, "dial the Vision host during the SSH check")
	rootCmd.AddCommand(doctorCmd)
}
