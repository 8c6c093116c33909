package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/server"
	"github.com/kdlocpanda/vision/internal/ui"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP action server",
	Long: `Run the HTTP action server. Binds to localhost by default; put a
TLS-terminating proxy in front for remote access.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		listen := listenFlag
		if listen == "" {
			listen = app.cfg.Listen
		}
		if listen == "" {
			listen = config.DefaultListen
		}

		srv, err := server.New(listen, server.Services{
			Kube:    app.kube,
			Rancher: app.rancher,
			Vision:  app.vision,
		})
		if err != nil {
			return err
		}

		srv.Start()
		fmt.Println(ui.Success("Listening on " + srv.Addr()))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		fmt.Println(ui.Muted("Shutting down"))
		return srv.Stop()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenFlag, "listen", "l", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
