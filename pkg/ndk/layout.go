// pkg/ndk/layout.go
package ndk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arc-language/minindk/pkg/core"
)

// Directory names inside an NDK root
const (
	ToolchainsDir = "toolchains"
	SourcesDir    = "sources"
	CxxSTLDir     = "sources/cxx-stl"
	PlatformsDir  = "platforms"
	LibsDir       = "libs"
)

// Layout is the expected directory layout of an extracted NDK tree.
type Layout struct {
	Root       string // Absolute path of the extracted tree
	Name       string // Base name of Root; top-level directory in the archive
	Toolchains string
	CxxSTL     string
	Platforms  string
}

// NewLayout computes the layout for root. The root itself must exist.
func NewLayout(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving NDK root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, &core.MissingPathError{Flag: "--ndk-root", Path: abs}
	}

	return &Layout{
		Root:       abs,
		Name:       filepath.Base(abs),
		Toolchains: filepath.Join(abs, ToolchainsDir),
		CxxSTL:     filepath.Join(abs, filepath.FromSlash(CxxSTLDir)),
		Platforms:  filepath.Join(abs, PlatformsDir),
	}, nil
}

// Path joins a slash-separated path relative to the root.
func (l *Layout) Path(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// Entries lists the names directly under a slash-separated relative
// directory, sorted. A missing directory yields an empty list.
func (l *Layout) Entries(rel string) []string {
	entries, err := os.ReadDir(l.Path(rel))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Inventory describes what a tree offers for each configuration field.
type Inventory struct {
	Toolchains []string
	STLs       []string
	APILevels  []string
	Arches     map[string][]string // API dir -> arch dirs
}

// Inventory scans the tree for available toolchains, STLs, API levels and
// architectures.
func (l *Layout) Inventory() *Inventory {
	inv := &Inventory{
		Toolchains: l.Entries(ToolchainsDir),
		STLs:       l.Entries(CxxSTLDir),
		Arches:     make(map[string][]string),
	}
	for _, api := range l.Entries(PlatformsDir) {
		if !strings.HasPrefix(api, "android-") {
			continue
		}
		inv.APILevels = append(inv.APILevels, api)
		inv.Arches[api] = l.Entries(PlatformsDir + "/" + api)
	}
	return inv
}

// ArchiveName builds the deterministic output name:
//
//	[<prefix>-]<toolchain>-<stl>[-<compiler>-<abi>]-android-<api>-arch-<arch>-<host><ext>
//
// The compiler and ABI segment is only present for gnu-libstdc++.
func ArchiveName(prefix string, cfg Configuration, host, ext string) (string, error) {
	suffix, err := cfg.STLSuffix()
	if err != nil {
		return "", err
	}

	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, cfg.ToolchainDir(), suffix)
	if suffix == STLGnu {
		parts = append(parts, cfg.CompilerVersion, cfg.ABIName)
	}
	parts = append(parts, cfg.APIDir(), cfg.ArchDir(), host)

	return strings.Join(parts, "-") + ext, nil
}
