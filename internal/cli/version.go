// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "minindk version %s\n", Version)
			fmt.Fprintln(out, "Minimal Android NDK builder")
			fmt.Fprintln(out, "https://github.com/arc-language/minindk")
		},
	}
}
