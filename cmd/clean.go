package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [dir]",
		Short: "Clean up temporary files left by failed downloads",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := cfg.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			removed, err := utils.CleanTemp(dir)
			for _, name := range removed {
				output.PrintDetail("removed " + name)
			}
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning up temporary files: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Cleaned up %d temporary file(s)", len(removed)))
		},
	}
}
