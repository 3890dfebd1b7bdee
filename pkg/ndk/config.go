// pkg/ndk/config.go
package ndk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arc-language/minindk/pkg/core"
)

// Configuration selects one toolchain/STL/ABI/API/arch combination.
// It is a plain value; copies are safe to share.
type Configuration struct {
	Toolchain       string // e.g. "arm-linux-androideabi-4.9"
	STL             string // e.g. "gnustl_static"
	CompilerVersion string // e.g. "4.9" or "clang"
	ABIName         string // e.g. "armeabi-v7a"
	APILevel        string // e.g. "19"
	ArchName        string // e.g. "arm"
}

// STL directory names under sources/cxx-stl
const (
	STLSystem      = "system"
	STLGabi        = "gabi++"
	STLPort        = "stlport"
	STLGnu         = "gnu-libstdc++"
	STLLLVM        = "llvm-libc++"
	STLLLVMABI     = "llvm-libc++abi"
	CompilerClang  = "clang"
	clangSuffix    = "-clang"
	clangGCCSuffix = "-4.9"
)

var stlSuffixes = map[string]string{
	"system":         STLSystem,
	"system_re":      STLSystem,
	"gabi++_shared":  STLGabi,
	"gabi++_static":  STLGabi,
	"stlport_shared": STLPort,
	"stlport_static": STLPort,
	"gnustl_shared":  STLGnu,
	"gnustl_static":  STLGnu,
	"c++_static":     STLLLVM,
	"c++_shared":     STLLLVM,
}

// KnownSTLs returns the accepted --stl values, sorted.
func KnownSTLs() []string {
	names := make([]string, 0, len(stlSuffixes))
	for name := range stlSuffixes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every field the configuration needs is set.
func (c Configuration) Validate() error {
	missing := []string{}
	if c.Toolchain == "" {
		missing = append(missing, "--toolchain")
	}
	if c.STL == "" {
		missing = append(missing, "--stl")
	}
	if c.APILevel == "" {
		missing = append(missing, "--api-level")
	}
	if c.ArchName == "" {
		missing = append(missing, "--arch-name")
	}
	if suffix, ok := stlSuffixes[c.STL]; ok && suffix == STLGnu {
		if c.CompilerVersion == "" {
			missing = append(missing, "--compiler-version")
		}
		if c.ABIName == "" {
			missing = append(missing, "--abi-name")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", core.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	// Each value names one directory entry below its parent.
	for _, f := range []struct{ flag, value string }{
		{"--toolchain", c.Toolchain},
		{"--stl", c.STL},
		{"--compiler-version", c.CompilerVersion},
		{"--abi-name", c.ABIName},
		{"--api-level", c.APILevel},
		{"--arch-name", c.ArchName},
	} {
		if !isPathElement(f.value) {
			return fmt.Errorf("%w: %s %q must be a single path element", core.ErrInvalidConfig, f.flag, f.value)
		}
	}
	return nil
}

func isPathElement(v string) bool {
	if v == "" {
		return true
	}
	return v != "." && !strings.Contains(v, "..") && !strings.ContainsAny(v, `/\`)
}

// STLSuffix maps the STL name to its directory under sources/cxx-stl.
func (c Configuration) STLSuffix() (string, error) {
	suffix, ok := stlSuffixes[c.STL]
	if !ok {
		return "", &core.MissingPathError{
			Flag:      "--stl",
			Path:      c.STL,
			Available: KnownSTLs(),
		}
	}
	return suffix, nil
}

// IsClang reports whether the compiler version selects clang.
func (c Configuration) IsClang() bool {
	return c.CompilerVersion == CompilerClang
}

// ToolchainDir returns the directory name under toolchains/. Clang
// toolchains ship inside the GCC 4.9 toolchain directory.
func (c Configuration) ToolchainDir() string {
	if c.IsClang() {
		return strings.Replace(c.Toolchain, clangSuffix, clangGCCSuffix, 1)
	}
	return c.Toolchain
}

// APIDir returns "android-<api-level>".
func (c Configuration) APIDir() string {
	return "android-" + c.APILevel
}

// ArchDir returns "arch-<arch-name>".
func (c Configuration) ArchDir() string {
	return "arch-" + c.ArchName
}

func (c Configuration) String() string {
	return fmt.Sprintf("toolchain=%s stl=%s compiler=%s abi=%s api=%s arch=%s",
		c.Toolchain, c.STL, c.CompilerVersion, c.ABIName, c.APILevel, c.ArchName)
}
