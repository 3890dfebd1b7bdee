// internal/cli/plan.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/minindk"
	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/ndk"
	"github.com/arc-language/minindk/pkg/size"
)

func newPlanCmd(g *globals) *cobra.Command {
	sel := &selection{}
	var (
		ndkRoot  string
		showKept bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which paths a configuration keeps and prunes",
		Long: `Walk an extracted NDK tree without copying anything and print the
selection rules, the pruned subtrees and the resulting output name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(g, ndkRoot)
			if err != nil {
				return err
			}
			comp, err := compressionFor(g)
			if err != nil {
				return err
			}

			plan, rules, err := minindk.PlanTree(cmd.Context(), root, sel.cfg, core.NewLogger(g.config.Debug))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rules:\n")
			for _, r := range rules {
				fmt.Fprintf(out, "  %s\n", r)
			}
			fmt.Fprintln(out)

			printList(out, "Pruned", plan.Pruned)
			if showKept {
				fmt.Fprintln(out)
				printList(out, "Kept", plan.Kept)
			}

			name, err := ndk.ArchiveName("", sel.cfg, ndk.HostOS(), comp.Ext())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nKept %d entries (%s), pruned %d subtrees (%s)\n",
				len(plan.Kept), size.Human(plan.KeptSize), len(plan.Pruned), size.Human(plan.PrunedSize))
			fmt.Fprintf(out, "Output name: %s\n", name)
			return nil
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&ndkRoot, "ndk-root", "", "extracted NDK directory")
	cmd.Flags().BoolVar(&showKept, "show-kept", false, "also list every kept path")
	return cmd
}
