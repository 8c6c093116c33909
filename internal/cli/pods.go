package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/ui"
)

var (
	podsNamespaceFlag   string
	logsNamespaceFlag   string
	logsTailFlag        int
	deleteNamespaceFlag string
)

var podsCmd = &cobra.Command{
	Use:   "pods",
	Short: "List pods in a namespace",
	Long: `List pods in a namespace with status, readiness, and restart counts.

Examples:
  vision pods
  vision pods -n kube-system
  vision pods --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		list, err := app.kube.ListPods(cmd.Context(), podsNamespaceFlag)
		if err != nil {
			return err
		}
		return emit(list, func() string { return renderPodList(list) })
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <pod>",
	Short: "Show the tail of a pod's logs",
	Long: `Fetch the last lines of a pod's logs.

Examples:
  vision logs web-0
  vision logs web-0 -n apps --tail 200`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		logs, err := app.kube.PodLogs(cmd.Context(), args[0], logsNamespaceFlag, logsTailFlag)
		if err != nil {
			return err
		}
		return emit(logs, func() string { return logs.Logs + "\n" })
	},
}

var deletePodCmd = &cobra.Command{
	Use:   "delete-pod <pod>",
	Short: "Delete a pod",
	Long: `Delete one pod by name. The controller will replace pods owned by a
deployment or statefulset.

Examples:
  vision delete-pod web-0 -n apps`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		out, err := app.kube.DeletePod(cmd.Context(), args[0], deleteNamespaceFlag)
		if err != nil {
			return err
		}
		return emit(out, func() string {
			return ui.Success(fmt.Sprintf("deleted pod %s in %s", out.Pod, out.Namespace)) + "\n"
		})
	},
}

func renderPodList(list api.PodList) string {
	if len(list.Pods) == 0 {
		return fmt.Sprintf("No pods in %s\n", list.Namespace)
	}

	var b strings.Builder
	b.WriteString(ui.Header(fmt.Sprintf("Pods in %s (%d)", list.Namespace, list.Count)) + "\n")
	for _, p := range list.Pods {
		line := fmt.Sprintf("%-40s %-12s %-8s restarts=%d", p.Name, p.Status, p.Ready, p.Restarts)
		if p.Status == "Running" {
			b.WriteString("  " + ui.Success(line) + "\n")
		} else {
			b.WriteString("  " + ui.Warning(line) + "\n")
		}
	}
	return b.String()
}

func init() {
	podsCmd.Flags().StringVarP(&podsNamespaceFlag, "namespace", "n", "", "namespace (default: default)")
	logsCmd.Flags().StringVarP(&logsNamespaceFlag, "namespace", "n", "", "namespace (default: default)")
	logsCmd.Flags().IntVar(&logsTailFlag, "tail", 0, "lines to show (default: 50)")
	deletePodCmd.Flags().StringVarP(&deleteNamespaceFlag, "namespace", "n", "", "namespace (default: default)")

	rootCmd.AddCommand(podsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(deletePodCmd)
}
