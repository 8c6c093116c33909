package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/ui"
)

var (
	vmsNamespaceFlag string
	vmNamespaceFlag  string
)

var vmsCmd = &cobra.Command{
	Use:   "vms",
	Short: "List Harvester virtual machines",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		list, err := app.rancher.ListVMs(cmd.Context(), vmsNamespaceFlag)
		if err != nil {
			return err
		}
		return emit(list, func() string { return renderVMs(list) })
	},
}

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Control Harvester virtual machines",
}

var vmStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a virtual machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return powerVM(cmd, args[0], true)
	},
}

var vmStopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a virtual machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return powerVM(cmd, args[0], false)
	},
}

func powerVM(cmd *cobra.Command, name string, running bool) error {
	app, err := newApp()
	if err != nil {
		return err
	}

	power, err := app.rancher.PowerVM(cmd.Context(), name, vmNamespaceFlag, running)
	if err != nil {
		return err
	}
	return emit(power, func() string {
		return ui.Success(power.Message) + "\n"
	})
}

func renderVMs(list api.VMList) string {
	if len(list.VMs) == 0 {
		return fmt.Sprintf("No virtual machines in %s\n", list.Namespace)
	}

	var b strings.Builder
	b.WriteString(ui.Header(fmt.Sprintf("Virtual machines in %s", list.Namespace)) + "\n")
	for _, vm := range list.VMs {
		line := fmt.Sprintf("%-24s %s", vm.Name, vm.Status)
		if vm.Ready {
			b.WriteString("  " + ui.Success(line) + "\n")
		} else {
			b.WriteString("  " + ui.Muted(line) + "\n")
		}
	}
	return b.String()
}

func init() {
	vmsCmd.Flags().StringVarP(&vmsNamespaceFlag, "namespace", "n", "", "namespace (default: default)")
	vmCmd.PersistentFlags().StringVarP(&vmNamespaceFlag, "namespace", "n", "", "namespace (default: default)")

	vmCmd.AddCommand(vmStartCmd)
	vmCmd.AddCommand(vmStopCmd)
	rootCmd.AddCommand(vmsCmd)
	rootCmd.AddCommand(vmCmd)
}
