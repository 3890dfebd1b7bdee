// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arc-language/minindk"
	"github.com/arc-language/minindk/pkg/archive"
	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/ndk"
)

// Version is the minindk release
const Version = "0.1.0"

// globals holds persistent flags and the config they resolve to
type globals struct {
	cfgFile string
	debug   bool
	config  *core.Config
}

// selection holds the six configuration flags shared by prune and plan
type selection struct {
	cfg ndk.Configuration
}

func (s *selection) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.cfg.Toolchain, "toolchain", "", "toolchain name (e.g. arm-linux-androideabi-4.9)")
	f.StringVar(&s.cfg.STL, "stl", "", "STL name (e.g. gnustl_static, c++_static)")
	f.StringVar(&s.cfg.CompilerVersion, "compiler-version", "", "compiler version (e.g. 4.9 or clang)")
	f.StringVar(&s.cfg.ABIName, "abi-name", "", "ABI name (e.g. armeabi-v7a)")
	f.StringVar(&s.cfg.APILevel, "api-level", "", "Android API level (e.g. 19)")
	f.StringVar(&s.cfg.ArchName, "arch-name", "", "architecture name (e.g. arm)")
	for _, name := range []string{"toolchain", "stl", "api-level", "arch-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// pruneFlags are the source/output flags of the root command
type pruneFlags struct {
	ndkRoot     string
	ndkArchive  string
	ndkVersion  string
	workDir     string
	outputDir   string
	compression string
	keepStaging bool
}

// NewRootCommand builds the minindk command tree
func NewRootCommand() *cobra.Command {
	g := &globals{}
	sel := &selection{}
	pf := &pruneFlags{}

	rootCmd := &cobra.Command{
		Use:   "minindk",
		Short: "Create a minimal Android NDK for one toolchain configuration",
		Long: `minindk - minimal Android NDK builder

Copies the toolchain, STL, API level and architecture selected by the flags
out of a full NDK tree, drops every other toolchain/ABI/STL variant and packs
the result into a single small archive for CI.

Examples:
  minindk --ndk-root ./android-ndk-r16b --toolchain arm-linux-androideabi-4.9 \
    --stl gnustl_static --compiler-version 4.9 --abi-name armeabi-v7a \
    --api-level 19 --arch-name arm
  minindk --ndk-version r16b --toolchain arm-linux-androideabi-clang \
    --stl c++_static --compiler-version clang --api-level 21 --arch-name arm`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd, g, sel, pf)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.cfgFile, "config", "", "config file (default is $HOME/.config/minindk/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	sel.register(rootCmd)
	f := rootCmd.Flags()
	f.StringVar(&pf.ndkRoot, "ndk-root", "", "extracted NDK directory")
	f.StringVar(&pf.ndkArchive, "ndk-archive", "", "NDK archive to unpack (.zip, .tar.gz, .tar.xz, .tar.zst, .bin)")
	f.StringVar(&pf.ndkVersion, "ndk-version", "", "NDK release to download (see 'minindk releases')")
	f.StringVar(&pf.workDir, "work-dir", "", "directory for _unpacked and staging (default: current directory)")
	f.StringVar(&pf.outputDir, "output-dir", "", "directory for the pruned archive (default: <work-dir>/_pruned)")
	f.StringVar(&pf.compression, "compression", "", "output compression: gzip, xz or zstd (default gzip)")
	f.BoolVar(&pf.keepStaging, "keep-staging", false, "keep the staging directory after archiving")

	rootCmd.AddCommand(newPlanCmd(g))
	rootCmd.AddCommand(newListCmd(g))
	rootCmd.AddCommand(newFetchCmd(g))
	rootCmd.AddCommand(newReleasesCmd(g))
	rootCmd.AddCommand(newDigestCmd())
	rootCmd.AddCommand(newConfigCmd(g))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command and prints any error
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func (g *globals) load() error {
	config, err := core.LoadConfig(g.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if g.debug {
		config.Debug = true
	}
	g.config = config
	return nil
}

func runPrune(cmd *cobra.Command, g *globals, sel *selection, pf *pruneFlags) error {
	cfg := *g.config
	flags := cmd.Flags()

	// Any source flag replaces every source from the config file.
	if flags.Changed("ndk-root") || flags.Changed("ndk-archive") || flags.Changed("ndk-version") {
		cfg.NDKRoot, cfg.NDKArchive, cfg.NDKVersion = pf.ndkRoot, pf.ndkArchive, pf.ndkVersion
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = pf.workDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = pf.outputDir
	}
	if flags.Changed("compression") {
		cfg.Compression = pf.compression
	}
	if flags.Changed("keep-staging") {
		cfg.KeepStaging = pf.keepStaging
	}

	opts, err := minindk.OptionsFromConfig(&cfg)
	if err != nil {
		return err
	}
	opts.Config = sel.cfg

	result, err := minindk.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.StagingDir != "" {
		fmt.Fprintf(out, "Staging directory kept: %s\n", result.StagingDir)
	}
	result.Report(out)
	return nil
}

// resolveRoot picks the tree for commands that only read one.
func resolveRoot(g *globals, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if g.config != nil && g.config.NDKRoot != "" {
		return g.config.NDKRoot, nil
	}
	return "", fmt.Errorf("%w: --ndk-root is required", core.ErrInvalidConfig)
}

func compressionFor(g *globals) (archive.Compression, error) {
	return archive.ParseCompression(g.config.Compression)
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}
