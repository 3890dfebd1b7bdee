// internal/cli/config.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/minindk/pkg/core"
)

func newConfigCmd(g *globals) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and the config file are applied.
With --save, write it back to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(g.config)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))

			if !save {
				return nil
			}
			path := g.cfgFile
			if path == "" {
				path = core.DefaultConfigPath()
			}
			if err := core.SaveConfig(g.config, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the effective configuration to the config file")
	return cmd
}
