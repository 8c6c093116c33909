package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/ui"
)

var (
	deploymentsNamespaceFlag string
	kubectlNamespaceFlag     string
)

var namespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List cluster namespaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		list, err := app.kube.ListNamespaces(cmd.Context())
		if err != nil {
			return err
		}
		return emit(list, func() string {
			return strings.Join(list.Namespaces, "\n") + "\n"
		})
	},
}

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List deployments with replica health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		list, err := app.kube.ListDeployments(cmd.Context(), deploymentsNamespaceFlag)
		if err != nil {
			return err
		}
		return emit(list, func() string { return renderDeployments(list) })
	},
}

var clusterInfoCmd = &cobra.Command{
	Use:   "cluster-info",
	Short: "Show cluster version, nodes, and health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		info, err := app.kube.ClusterInfo(cmd.Context())
		if err != nil {
			return err
		}
		return emit(info, func() string { return renderClusterInfo(info) })
	},
}

var kubectlCmd = &cobra.Command{
	Use:   "kubectl <command...>",
	Short: "Run a raw kubectl command through the Rancher proxy",
	Long: `Run an arbitrary kubectl command. Namespace flags inside the command
are stripped; use -n on this command instead.

Examples:
  vision kubectl get pods
  vision kubectl -n apps describe deployment web`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		result, err := app.kube.RawKubectl(cmd.Context(), strings.Join(args, " "), kubectlNamespaceFlag)
		if err != nil {
			return err
		}
		return emit(result, func() string {
			out := result.Stdout
			if out != "" && !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			return out
		})
	},
}

func renderDeployments(list api.DeploymentList) string {
	if len(list.Deployments) == 0 {
		return fmt.Sprintf("No deployments in %s\n", list.Namespace)
	}

	var b strings.Builder
	b.WriteString(ui.Header(fmt.Sprintf("Deployments in %s (%d)", list.Namespace, list.Count)) + "\n")
	for _, d := range list.Deployments {
		line := fmt.Sprintf("%-40s %d/%d %s", d.Name, d.AvailableReplicas, d.DesiredReplicas, d.Health)
		switch d.Health {
		case "Healthy":
			b.WriteString("  " + ui.Success(line) + "\n")
		case "Degraded":
			b.WriteString("  " + ui.Warning(line) + "\n")
		default:
			b.WriteString("  " + ui.Failure(line) + "\n")
		}
	}
	return b.String()
}

func renderClusterInfo(info api.ClusterInfo) string {
	pairs := [][2]string{
		{"Kubernetes", info.KubernetesVersion},
		{"Platform", info.Platform},
		{"Nodes", strconv.Itoa(info.NodeCount)},
		{"Control plane", info.ControlPlaneEndpoint},
		{"Status", info.ClusterStatus},
	}
	out := ui.KeyValue(pairs)
	if len(info.CoreServices) > 0 {
		out += "\n" + ui.Header("Core services") + "\n"
		for name, endpoint := range info.CoreServices {
			out += fmt.Sprintf("  %s  %s\n", name, ui.Muted(endpoint))
		}
	}
	return out
}

func init() {
	deploymentsCmd.Flags().StringVarP(&deploymentsNamespaceFlag, "namespace", "n", "", "namespace (default: default)")
	kubectlCmd.Flags().StringVarP(&kubectlNamespaceFlag, "namespace", "n", "", "namespace (default: default)")

	rootCmd.AddCommand(namespacesCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(clusterInfoCmd)
	rootCmd.AddCommand(kubectlCmd)
}
