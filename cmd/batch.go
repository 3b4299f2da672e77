package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/utils"
	"github.com/tanq16/pulldown/internal/validation"
)

func newBatchCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download every link listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			links, err := utils.ReadBatchFile(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			var valid []string
			for _, link := range links {
				if err := validation.ValidateURL(link); err != nil {
					output.PrintWarning(fmt.Sprintf("Skipping %s: %v", link, err))
					continue
				}
				valid = append(valid, link)
			}
			if len(valid) == 0 {
				output.PrintError("No valid links found in the batch file")
				os.Exit(1)
			}
			runSession(cmd.Context(), valid, interactive, true)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Accept commands on stdin while downloading")
	return cmd
}
