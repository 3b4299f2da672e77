package cmd

import (
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get URL [URL...]",
		Short: "Download one or more URLs and exit when they finish",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSession(cmd.Context(), args, false, true)
		},
	}
}
