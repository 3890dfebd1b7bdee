// pkg/selector/selector.go
package selector

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/ndk"
	"github.com/arc-language/minindk/pkg/size"
)

// StagingPrefix starts the name of every staging directory made by a run.
const StagingPrefix = ".minindk-staging-"

// Selector decides which paths of an NDK tree belong to one configuration
// and copies them into a staging directory.
type Selector struct {
	layout *ndk.Layout
	rules  []Rule
	scopes  map[string]Rule
	exclude map[string]bool
	logger  *zap.SugaredLogger
}

// Plan is the outcome of a selection walk.
type Plan struct {
	Root       string   // Staged tree root; empty for a dry run
	Kept       []string // Kept paths relative to the NDK root, slash-separated
	Pruned     []string // Pruned paths (whole subtrees) relative to the NDK root
	KeptSize   int64    // Bytes of regular files kept
	PrunedSize int64    // Bytes of regular files pruned
}

// New builds a selector for cfg over layout.
func New(layout *ndk.Layout, cfg ndk.Configuration, logger *zap.SugaredLogger) (*Selector, error) {
	rules, err := Rules(cfg)
	if err != nil {
		return nil, err
	}

	scopes := make(map[string]Rule, len(rules))
	for _, r := range rules {
		scopes[r.Scope] = r
	}

	return &Selector{
		layout:  layout,
		rules:   rules,
		scopes:  scopes,
		exclude: make(map[string]bool),
		logger:  core.OrNop(logger),
	}, nil
}

// Exclude makes the walk skip dirs, such as output or download
// directories that live inside the tree. Skipped directories are neither
// kept nor pruned.
func (s *Selector) Exclude(dirs ...string) {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			s.exclude[abs] = true
		}
	}
}

// Rules returns the rule set in check order.
func (s *Selector) Rules() []Rule {
	return s.rules
}

// Check verifies that every required path exists.
func (s *Selector) Check() error {
	for _, r := range s.rules {
		target := s.layout.Path(r.Required)
		if _, err := os.Lstat(target); err != nil {
			return &core.MissingPathError{
				Flag:      r.Flag,
				Path:      target,
				Available: s.layout.Entries(r.Scope),
			}
		}
		s.logger.Debugf("Found %s (%s)", r.Required, r.Flag)
	}
	return nil
}

// Plan walks the tree without copying anything.
func (s *Selector) Plan(ctx context.Context) (*Plan, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s.walk(ctx, "")
}

// Stage copies the selected subset into stagingDir/<layout name> and
// returns the plan with Root set to the staged tree.
func (s *Selector) Stage(ctx context.Context, stagingDir string) (*Plan, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s.walk(ctx, filepath.Join(stagingDir, s.layout.Name))
}

func (s *Selector) walk(ctx context.Context, dstRoot string) (*Plan, error) {
	plan := &Plan{Root: dstRoot}

	err := filepath.WalkDir(s.layout.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() && p != s.layout.Root && s.skipped(p, d.Name(), dstRoot) {
			s.logger.Debugf("Skipping work directory %s", p)
			return filepath.SkipDir
		}

		relOS, err := filepath.Rel(s.layout.Root, p)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(relOS)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if rel != "." && s.pruned(rel, d) {
			plan.Pruned = append(plan.Pruned, rel)
			if d.IsDir() {
				n, err := size.Dir(p)
				if err != nil {
					return err
				}
				plan.PrunedSize += n
				s.logger.Debugf("  - %s", rel)
				return filepath.SkipDir
			}
			if info.Mode().IsRegular() {
				plan.PrunedSize += info.Size()
			}
			s.logger.Debugf("  - %s", rel)
			return nil
		}

		if rel != "." {
			plan.Kept = append(plan.Kept, rel)
		}
		if info.Mode().IsRegular() {
			plan.KeptSize += info.Size()
		}

		if dstRoot == "" {
			return nil
		}
		return s.copyEntry(p, filepath.Join(dstRoot, relOS), info)
	})
	if err != nil {
		return nil, fmt.Errorf("selecting from %s: %w", s.layout.Root, err)
	}

	s.logger.Debugf("Kept %d entries, pruned %d subtrees", len(plan.Kept), len(plan.Pruned))
	return plan, nil
}

// skipped reports whether a directory belongs to minindk itself rather
// than to the kit.
func (s *Selector) skipped(p, name, dstRoot string) bool {
	if dstRoot != "" && p == filepath.Dir(dstRoot) {
		return true
	}
	return s.exclude[p] || strings.HasPrefix(name, StagingPrefix)
}

// pruned reports whether rel is dropped by the rule scoped at its parent.
func (s *Selector) pruned(rel string, d fs.DirEntry) bool {
	r, ok := s.scopes[path.Dir(rel)]
	if !ok {
		return false
	}
	if r.DirsOnly && !d.IsDir() {
		return false
	}
	return !r.Keeps(rel)
}

func (s *Selector) copyEntry(src, dst string, info fs.FileInfo) error {
	mode := info.Mode()
	switch {
	case mode.IsDir():
		perm := mode.Perm() | 0700
		if err := os.MkdirAll(dst, perm); err != nil {
			return fmt.Errorf("creating directory %s: %w", dst, err)
		}
		// MkdirAll applies the umask.
		if err := os.Chmod(dst, perm); err != nil {
			return fmt.Errorf("setting mode of %s: %w", dst, err)
		}
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("reading symlink %s: %w", src, err)
		}
		if err := os.Symlink(target, dst); err != nil {
			return fmt.Errorf("creating symlink %s -> %s: %w", dst, target, err)
		}
	case mode.IsRegular():
		if err := copyFile(src, dst, mode.Perm()); err != nil {
			return fmt.Errorf("copying %s: %w", src, err)
		}
	default:
		s.logger.Debugf("Skipping unsupported file type %v for %s", mode.Type(), src)
	}
	return nil
}
