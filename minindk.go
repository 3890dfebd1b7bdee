// minindk.go
package minindk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/arc-language/minindk/pkg/archive"
	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/digest"
	"github.com/arc-language/minindk/pkg/fetch"
	"github.com/arc-language/minindk/pkg/ndk"
	"github.com/arc-language/minindk/pkg/registry"
	"github.com/arc-language/minindk/pkg/selector"
	"github.com/arc-language/minindk/pkg/size"
)

// Re-export types for convenience
type (
	Configuration = ndk.Configuration
	Compression   = archive.Compression
	Plan          = selector.Plan
	Rule          = selector.Rule
)

// Re-export compression constants
const (
	Gzip = archive.Gzip
	XZ   = archive.XZ
	Zstd = archive.Zstd
)

// UnknownSize marks a size that could not be measured, such as the
// archive size of a kit given as an extracted tree.
const UnknownSize int64 = -1

// Options configures a single prune run
type Options struct {
	Config Configuration

	// Exactly one source: an extracted tree, a local archive, or a
	// release name resolved through Registry.
	NDKRoot    string
	NDKArchive string
	NDKVersion string

	WorkDir      string // Holds _unpacked and the staging directory
	DownloadsDir string // Cache for fetched releases
	OutputDir    string // Where the pruned archive is written
	Compression  Compression
	KeepStaging  bool

	Registry   *registry.Registry
	Downloader *fetch.Downloader
	Logger     *zap.SugaredLogger
}

// OptionsFromConfig builds run options from a loaded config file
func OptionsFromConfig(cfg *core.Config) (*Options, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	comp, err := archive.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return &Options{
		NDKRoot:      cfg.NDKRoot,
		NDKArchive:   cfg.NDKArchive,
		NDKVersion:   cfg.NDKVersion,
		WorkDir:      cfg.WorkDir,
		DownloadsDir: cfg.DownloadsDir,
		OutputDir:    cfg.OutputDir,
		Compression:  comp,
		KeepStaging:  cfg.KeepStaging,
		Logger:       core.NewLogger(cfg.Debug),
	}, nil
}

// Sizes holds an archive size and an unpacked tree size in bytes
type Sizes struct {
	Archive  int64
	Unpacked int64
}

// Result describes a finished run
type Result struct {
	ArchivePath string
	StagingDir  string // Empty unless KeepStaging was set
	Original    Sizes
	Pruned      Sizes
	Digest      string
	Plan        *Plan
}

// Report prints the size comparison and the output path
func (r *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "Original sizes: archive %s, unpacked %s\n",
		printableSize(r.Original.Archive), printableSize(r.Original.Unpacked))
	fmt.Fprintf(w, "Pruned sizes: archive %s, unpacked %s\n",
		printableSize(r.Pruned.Archive), printableSize(r.Pruned.Unpacked))
	if r.Digest != "" {
		fmt.Fprintf(w, "Pruned tree digest: %s\n", r.Digest)
	}
	fmt.Fprintf(w, "Pruned archive ready: %s\n", r.ArchivePath)
}

func printableSize(n int64) string {
	if n < 0 {
		return "n/a"
	}
	return size.Human(n)
}

func (o *Options) fillDefaults() error {
	if o.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining work directory: %w", err)
		}
		o.WorkDir = wd
	}
	if o.DownloadsDir == "" {
		o.DownloadsDir = filepath.Join(o.WorkDir, "_downloads")
	}
	if o.OutputDir == "" {
		o.OutputDir = filepath.Join(o.WorkDir, "_pruned")
	}
	if o.Compression == "" {
		o.Compression = Gzip
	}
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	o.Logger = core.OrNop(o.Logger)
	if o.Downloader == nil {
		o.Downloader = fetch.NewDownloader(o.Logger)
	}
	return nil
}

// Run selects the configured subset of the kit, archives it and reports
// sizes. Nothing is written to OutputDir unless every step succeeds.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: options cannot be nil", ErrInvalidConfig)
	}
	o := *opts
	if err := o.fillDefaults(); err != nil {
		return nil, err
	}
	if err := o.Config.Validate(); err != nil {
		return nil, err
	}
	logger := o.Logger
	logger.Debugf("Configuration: %s", o.Config)

	src, err := acquire(ctx, &o)
	if err != nil {
		return nil, err
	}

	layout, err := ndk.NewLayout(src.root)
	if err != nil {
		return nil, err
	}

	sel, err := selector.New(layout, o.Config, logger)
	if err != nil {
		return nil, err
	}
	if err := sel.Check(); err != nil {
		return nil, err
	}

	name, err := ndk.ArchiveName(src.prefix, o.Config, ndk.HostOS(), o.Compression.Ext())
	if err != nil {
		return nil, err
	}
	outPath := filepath.Join(o.OutputDir, name)

	result := &Result{
		ArchivePath: outPath,
		Original:    Sizes{Archive: UnknownSize},
	}
	if src.archive != "" {
		if result.Original.Archive, err = size.Object(src.archive); err != nil {
			return nil, fmt.Errorf("measuring %s: %w", src.archive, err)
		}
	}

	if err := os.MkdirAll(o.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(o.WorkDir, selector.StagingPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	if o.KeepStaging {
		result.StagingDir = stagingDir
	} else {
		defer os.RemoveAll(stagingDir)
	}

	// The work directories may sit inside the kit, e.g. with --ndk-root .
	sel.Exclude(o.OutputDir, o.DownloadsDir, unpackDirOf(&o))

	logger.Infof("Staging %s into %s", layout.Root, stagingDir)
	plan, err := sel.Stage(ctx, stagingDir)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	result.Original.Unpacked = plan.KeptSize + plan.PrunedSize
	result.Pruned.Unpacked = plan.KeptSize

	if result.Digest, err = digest.Tree(plan.Root); err != nil {
		return nil, err
	}

	logger.Infof("Creating archive %s", outPath)
	w := archive.NewWriter(o.Compression, logger)
	if result.Pruned.Archive, err = w.Write(stagingDir, outPath); err != nil {
		return nil, err
	}

	return result, nil
}

// source is the extracted tree a run works on
type source struct {
	root    string // Extracted tree
	archive string // Archive it came from, if any
	prefix  string // Release name prepended to the output name
}

func acquire(ctx context.Context, o *Options) (*source, error) {
	switch {
	case o.NDKRoot != "":
		return &source{root: o.NDKRoot}, nil

	case o.NDKArchive != "":
		root, err := unpack(ctx, o, o.NDKArchive)
		if err != nil {
			return nil, err
		}
		return &source{root: root, archive: o.NDKArchive}, nil

	case o.NDKVersion != "":
		art, err := o.Registry.Resolve(o.NDKVersion, runtime.GOOS)
		if err != nil {
			return nil, err
		}
		local, err := o.Downloader.Fetch(ctx, art, o.DownloadsDir)
		if err != nil {
			return nil, err
		}
		root, err := unpack(ctx, o, local)
		if err != nil {
			return nil, err
		}
		candidate := filepath.Join(unpackDirOf(o), art.UnpackedName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			root = candidate
		}
		return &source{root: root, archive: local, prefix: art.UnpackedName}, nil
	}

	return nil, fmt.Errorf("%w: one of --ndk-root, --ndk-archive or --ndk-version is required", ErrInvalidConfig)
}

// unpack extracts src into a fresh <work>/_unpacked and returns the kit root.
func unpack(ctx context.Context, o *Options, src string) (string, error) {
	unpackDir := unpackDirOf(o)
	if _, err := os.Stat(unpackDir); err == nil {
		o.Logger.Infof("Cleanup directory: %s", unpackDir)
		if err := os.RemoveAll(unpackDir); err != nil {
			return "", fmt.Errorf("cleaning %s: %w", unpackDir, err)
		}
	}

	o.Logger.Infof("Unpacking %s", src)
	if err := archive.NewExtractor(o.Logger).Extract(ctx, src, unpackDir); err != nil {
		return "", &Error{Op: "unpack", Subject: src, Err: err}
	}
	return archive.Root(unpackDir), nil
}

func unpackDirOf(o *Options) string {
	return filepath.Join(o.WorkDir, "_unpacked")
}

// PlanTree performs a dry run over an extracted tree.
func PlanTree(ctx context.Context, root string, cfg Configuration, logger *zap.SugaredLogger) (*Plan, []Rule, error) {
	layout, err := ndk.NewLayout(root)
	if err != nil {
		return nil, nil, err
	}
	sel, err := selector.New(layout, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	plan, err := sel.Plan(ctx)
	if err != nil {
		return nil, sel.Rules(), err
	}
	return plan, sel.Rules(), nil
}
