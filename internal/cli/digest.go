// internal/cli/digest.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/minindk/pkg/digest"
)

func newDigestCmd() *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "digest [dir]",
		Short: "Print or verify the content digest of a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if expect == "" {
				d, err := digest.Tree(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, d)
				return nil
			}

			ok, actual, err := digest.Verify(args[0], expect)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("digest mismatch for %s: expected %s, got %s", args[0], expect, actual)
			}
			fmt.Fprintf(out, "✓ %s matches %s\n", args[0], expect)
			return nil
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "expected digest (sha256:...)")
	return cmd
}
