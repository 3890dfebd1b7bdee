// internal/cli/list.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/minindk/pkg/ndk"
)

func newListCmd(g *globals) *cobra.Command {
	var ndkRoot string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List toolchains, STLs, API levels and architectures in an NDK tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(g, ndkRoot)
			if err != nil {
				return err
			}
			layout, err := ndk.NewLayout(root)
			if err != nil {
				return err
			}

			inv := layout.Inventory()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "NDK: %s\n\n", layout.Root)
			printList(out, "Toolchains (--toolchain)", inv.Toolchains)
			printList(out, "STL directories (--stl)", inv.STLs)
			fmt.Fprintf(out, "Platforms (--api-level / --arch-name):\n")
			if len(inv.APILevels) == 0 {
				fmt.Fprintln(out, "  (none)")
			}
			for _, api := range inv.APILevels {
				fmt.Fprintf(out, "  %s: %v\n", api, inv.Arches[api])
			}
			fmt.Fprintf(out, "\nAccepted --stl values: %v\n", ndk.KnownSTLs())
			return nil
		},
	}

	cmd.Flags().StringVar(&ndkRoot, "ndk-root", "", "extracted NDK directory")
	return cmd
}
