// internal/cli/fetch.go
package cli

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/fetch"
	"github.com/arc-language/minindk/pkg/registry"
)

func newFetchCmd(g *globals) *cobra.Command {
	var (
		registryDir  string
		downloadsDir string
		hostOS       string
	)

	cmd := &cobra.Command{
		Use:   "fetch [release]",
		Short: "Download and verify an NDK release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			art, err := registry.Open(registryDir).Resolve(args[0], hostOS)
			if err != nil {
				return err
			}

			dir := downloadsDir
			if dir == "" {
				dir = g.config.DownloadsDir
			}
			if dir == "" {
				dir = filepath.Join(g.config.WorkDir, "_downloads")
			}

			d := fetch.NewDownloader(core.NewLogger(g.config.Debug))
			local, err := d.Fetch(cmd.Context(), art, dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Release %s ready: %s (sha1 %s)\n", art.Version, local, art.SHA1)
			return nil
		},
	}

	cmd.Flags().StringVar(&registryDir, "registry", "", "directory of <release>.toml entries (default: built-in)")
	cmd.Flags().StringVar(&downloadsDir, "downloads-dir", "", "download cache directory")
	cmd.Flags().StringVar(&hostOS, "host", runtime.GOOS, "host OS of the release (linux, darwin)")
	return cmd
}

func newReleasesCmd(g *globals) *cobra.Command {
	var registryDir string

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "List known NDK releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Open(registryDir)
			versions, err := reg.Versions()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range versions {
				entry, err := reg.Load(v)
				if err != nil {
					return err
				}
				hosts := make([]string, 0, len(entry.Hosts))
				for _, h := range []string{"darwin", "linux"} {
					if _, ok := entry.Hosts[h]; ok {
						hosts = append(hosts, h)
					}
				}
				fmt.Fprintf(out, "  %-6s %-4s %v\n", entry.Name, entry.Archive, hosts)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&registryDir, "registry", "", "directory of <release>.toml entries (default: built-in)")
	return cmd
}
