package cmd

import (
	"net"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/pulldown/internal/config"
	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/server"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve [--listen ADDR]",
		Short: "Control downloads over an HTTP JSON API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			output.PrintInfo("Control API listening on http://" + ln.Addr().String())
			ctrl := controller.New(cmd.Context(), cfg.TransferConfig())
			urls, err := config.BootstrapURLs(cfg.EnvFile)
			if err != nil {
				output.PrintWarning(err.Error())
			}
			for _, u := range urls {
				if _, err := ctrl.Request(u); err != nil {
					output.PrintWarning(err.Error())
				}
			}
			if err := server.Serve(cmd.Context(), ln, ctrl); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			output.PrintSuccess("Stopped")
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:8080", "Address the API listens on")
	return cmd
}
