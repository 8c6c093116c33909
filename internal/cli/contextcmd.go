package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/ui"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the active Rancher context",
}

var contextGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the active Rancher context",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		current, err := app.rancher.CurrentContext()
		if err != nil {
			return err
		}
		return emit(current, func() string {
			return current.Context + "\n"
		})
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set <name-or-id>",
	Short: "Switch the active Rancher context",
	Long: `Switch the active context by project ID (c-xxxxx:p-xxxxx) or by
cluster name. Names are resolved against the Rancher server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		current, err := app.rancher.SetContext(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(current, func() string {
			return ui.Success("Context set to "+current.Context) + "\n"
		})
	},
}

var contextLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List contexts known to the Rancher server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		list, err := app.rancher.ListContexts(cmd.Context())
		if err != nil {
			return err
		}
		return emit(list, func() string { return renderContexts(list) })
	},
}

func renderContexts(list api.ContextList) string {
	if len(list.Contexts) == 0 {
		return "No contexts available\n"
	}

	var b strings.Builder
	for _, c := range list.Contexts {
		line := fmt.Sprintf("%-24s %s", c.Name, c.ProjectID)
		if c.Current {
			b.WriteString(ui.Success(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func init() {
	contextCmd.AddCommand(contextGetCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextLsCmd)
	rootCmd.AddCommand(contextCmd)
}
