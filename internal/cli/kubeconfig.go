package cli

import (
	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/ui"
)

var kubeconfigPathFlag string

var kubeconfigCmd = &cobra.Command{
	Use:   "kubeconfig <cluster>",
	Short: "Download a cluster kubeconfig from Rancher",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		kc, err := app.rancher.DownloadKubeconfig(cmd.Context(), args[0], kubeconfigPathFlag)
		if err != nil {
			return err
		}
		return emit(kc, func() string {
			return ui.Success("Kubeconfig for "+kc.Cluster+" written to "+kc.Path) + "\n"
		})
	},
}

func init() {
	kubeconfigCmd.Flags().StringVarP(&kubeconfigPathFlag, "output", "o", "", "destination path (default: ~/.kube/config)")
	rootCmd.AddCommand(kubeconfigCmd)
}
