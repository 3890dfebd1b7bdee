// pkg/selector/rules.go
package selector

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arc-language/minindk/pkg/core"
	"github.com/arc-language/minindk/pkg/ndk"
)

// Rule prunes the direct children of Scope that match none of the Keep
// patterns. Paths outside every scope are shared and always kept.
type Rule struct {
	Scope    string   // Slash-separated directory relative to the NDK root
	Keep     []string // doublestar patterns relative to the NDK root
	DirsOnly bool     // Only directories under Scope are pruned
	Flag     string   // Flag responsible for Required
	Required string   // Path that must exist for the configuration to be valid
}

// Keeps reports whether rel, a direct child of the scope, is kept.
func (r Rule) Keeps(rel string) bool {
	for _, pattern := range r.Keep {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	kind := "entries"
	if r.DirsOnly {
		kind = "dirs"
	}
	return fmt.Sprintf("%s/* (%s): keep %s [%s]", r.Scope, kind, strings.Join(r.Keep, ", "), r.Flag)
}

// Rules builds the ordered rule set for cfg. The order is the order in
// which required paths are checked.
func Rules(cfg ndk.Configuration) ([]Rule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stl, err := cfg.STLSuffix()
	if err != nil {
		return nil, err
	}

	toolchain := path.Join(ndk.ToolchainsDir, cfg.ToolchainDir())
	toolchains := Rule{
		Scope:    ndk.ToolchainsDir,
		Keep:     []string{toolchain},
		Flag:     "--toolchain",
		Required: toolchain,
	}
	if cfg.IsClang() {
		toolchains.Keep = append(toolchains.Keep, path.Join(ndk.ToolchainsDir, "llvm"))
	}

	stlDir := path.Join(ndk.CxxSTLDir, stl)
	stls := Rule{
		Scope:    ndk.CxxSTLDir,
		Keep:     []string{stlDir},
		Flag:     "--stl",
		Required: stlDir,
	}
	if stl == ndk.STLLLVM {
		stls.Keep = append(stls.Keep, path.Join(ndk.CxxSTLDir, ndk.STLLLVMABI))
	}

	rules := []Rule{toolchains, stls}

	if stl == ndk.STLGnu {
		versionDir := path.Join(stlDir, cfg.CompilerVersion)
		libsDir := path.Join(versionDir, ndk.LibsDir)
		abiDir := path.Join(libsDir, cfg.ABIName)
		rules = append(rules,
			Rule{
				Scope:    stlDir,
				Keep:     []string{versionDir},
				DirsOnly: true,
				Flag:     "--compiler-version",
				Required: versionDir,
			},
			Rule{
				Scope:    libsDir,
				Keep:     []string{abiDir},
				Flag:     "--abi-name",
				Required: abiDir,
			},
		)
	}

	apiDir := path.Join(ndk.PlatformsDir, cfg.APIDir())
	archDir := path.Join(apiDir, cfg.ArchDir())
	rules = append(rules,
		Rule{
			Scope:    ndk.PlatformsDir,
			Keep:     []string{apiDir},
			DirsOnly: true,
			Flag:     "--api-level",
			Required: apiDir,
		},
		Rule{
			Scope:    apiDir,
			Keep:     []string{archDir},
			Flag:     "--arch-name",
			Required: archDir,
		},
	)

	for _, r := range rules {
		for _, pattern := range r.Keep {
			if !doublestar.ValidatePattern(pattern) {
				return nil, &core.MissingPathError{Flag: r.Flag, Path: pattern}
			}
		}
	}

	return rules, nil
}
