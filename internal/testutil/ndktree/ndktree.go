// Package ndktree builds small NDK-shaped directory trees for tests.
package ndktree

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arc-language/minindk/pkg/ndk"
)

// Name is the top-level directory of the fixture tree.
const Name = "android-ndk-r16b"

// Files maps fixture paths to their sizes. Content is pseudo-random so
// compression cannot hide pruned bytes.
var Files = map[string]int{
	"ndk-build":                      64,
	"source.properties":              32,
	"build/core/main.mk":             512,
	"prebuilt/linux-x86_64/bin/make": 2048,
	"toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-gcc": 4096,
	"toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-ld":  2048,
	"toolchains/mipsel-linux-android-4.9/prebuilt/linux-x86_64/bin/mipsel-linux-android-gcc":   4096,
	"toolchains/x86-4.9/prebuilt/linux-x86_64/bin/i686-linux-android-gcc":                      4096,
	"toolchains/llvm/prebuilt/linux-x86_64/bin/clang":                                          8192,
	"sources/android/cpufeatures/cpu-features.c":                                               256,
	"sources/cxx-stl/gnu-libstdc++/Android.mk":                                                 128,
	"sources/cxx-stl/gnu-libstdc++/4.9/include/vector":                                         1024,
	"sources/cxx-stl/gnu-libstdc++/4.9/libs/armeabi-v7a/libgnustl_static.a":                    4096,
	"sources/cxx-stl/gnu-libstdc++/4.9/libs/mips/libgnustl_static.a":                           4096,
	"sources/cxx-stl/gnu-libstdc++/4.8/include/vector":                                         1024,
	"sources/cxx-stl/llvm-libc++/libs/armeabi-v7a/libc++_static.a":                             4096,
	"sources/cxx-stl/llvm-libc++abi/include/cxxabi.h":                                          256,
	"sources/cxx-stl/stlport/stlport/vector":                                                   1024,
	"sources/cxx-stl/system/include/new":                                                       128,
	"platforms/README":                                                                         64,
	"platforms/android-19/arch-arm/usr/lib/libc.so":                                            2048,
	"platforms/android-19/arch-mips/usr/lib/libc.so":                                           2048,
	"platforms/android-21/arch-arm/usr/lib/libc.so":                                            2048,
	"platforms/android-21/arch-arm64/usr/lib/libc.so":                                          2048,
}

// Symlinks maps fixture symlinks to their targets.
var Symlinks = map[string]string{
	"toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-c++": "arm-linux-androideabi-gcc",
}

// Executables lists fixture files created with mode 0755.
var Executables = []string{
	"ndk-build",
	"prebuilt/linux-x86_64/bin/make",
	"toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-gcc",
	"toolchains/llvm/prebuilt/linux-x86_64/bin/clang",
}

// Build writes the fixture under dir and returns the tree root.
func Build(t testing.TB, dir string) string {
	t.Helper()

	root := filepath.Join(dir, Name)
	exec := make(map[string]bool, len(Executables))
	for _, p := range Executables {
		exec[p] = true
	}

	paths := make([]string, 0, len(Files))
	for p := range Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rng := rand.New(rand.NewSource(42))
	for _, p := range paths {
		target := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))

		data := make([]byte, Files[p])
		rng.Read(data)

		perm := os.FileMode(0644)
		if exec[p] {
			perm = 0755
		}
		require.NoError(t, os.WriteFile(target, data, perm))
		require.NoError(t, os.Chmod(target, perm))
	}

	for link, target := range Symlinks {
		require.NoError(t, os.Symlink(target, filepath.Join(root, filepath.FromSlash(link))))
	}

	return root
}

// GnuSTL is the arm / gnustl / API 19 configuration.
func GnuSTL() ndk.Configuration {
	return ndk.Configuration{
		Toolchain:       "arm-linux-androideabi-4.9",
		STL:             "gnustl_static",
		CompilerVersion: "4.9",
		ABIName:         "armeabi-v7a",
		APILevel:        "19",
		ArchName:        "arm",
	}
}

// Clang is the arm / libc++ / API 21 configuration.
func Clang() ndk.Configuration {
	return ndk.Configuration{
		Toolchain:       "arm-linux-androideabi-clang",
		STL:             "c++_static",
		CompilerVersion: "clang",
		ABIName:         "armeabi-v7a",
		APILevel:        "21",
		ArchName:        "arm",
	}
}
