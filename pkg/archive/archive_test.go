package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/minindk/pkg/core"
)

func buildTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	root := filepath.Join(src, "kit")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "empty"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "tool"), []byte("#!/bin/sh\necho hi\n"), 0755))
	require.NoError(t, os.Chmod(filepath.Join(root, "bin", "tool"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "libc.a"), bytes.Repeat([]byte("x"), 4096), 0644))
	require.NoError(t, os.Symlink("tool", filepath.Join(root, "bin", "alias")))
	return src
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": Gzip, "gz": Gzip, "GZIP": Gzip, "xz": XZ, "zst": Zstd, "zstd": Zstd} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("bzip2")
	assert.Error(t, err)

	assert.Equal(t, ".tar.gz", Gzip.Ext())
	assert.Equal(t, ".tar.xz", XZ.Ext())
	assert.Equal(t, ".tar.zst", Zstd.Ext())
}

func TestWriter_Deterministic(t *testing.T) {
	for _, c := range []Compression{Gzip, XZ, Zstd} {
		t.Run(string(c), func(t *testing.T) {
			src := buildTree(t)
			out := t.TempDir()

			first := filepath.Join(out, "first"+c.Ext())
			n, err := NewWriter(c, nil).Write(src, first)
			require.NoError(t, err)
			assert.Positive(t, n)

			// Touching the tree must not change the bytes.
			later := time.Now().Add(time.Hour)
			require.NoError(t, os.Chtimes(filepath.Join(src, "kit", "lib", "libc.a"), later, later))

			second := filepath.Join(out, "second"+c.Ext())
			_, err = NewWriter(c, nil).Write(src, second)
			require.NoError(t, err)

			a, err := os.ReadFile(first)
			require.NoError(t, err)
			b, err := os.ReadFile(second)
			require.NoError(t, err)
			assert.Equal(t, a, b)

			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Len(t, entries, 2, "no temporary files left behind")
		})
	}
}

func TestWriter_Headers(t *testing.T) {
	src := buildTree(t)
	out := filepath.Join(t.TempDir(), "kit.tar.gz")
	_, err := NewWriter(Gzip, nil).Write(src, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	modes := map[string]int64{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		modes[hdr.Name] = hdr.Mode
		assert.True(t, hdr.ModTime.Equal(ModTime), hdr.Name)
		assert.Zero(t, hdr.Uid)
		assert.Zero(t, hdr.Gid)
		if hdr.Name == "kit/bin/alias" {
			assert.Equal(t, byte(tar.TypeSymlink), hdr.Typeflag)
			assert.Equal(t, "tool", hdr.Linkname)
		}
	}

	assert.True(t, sort.StringsAreSorted(names), "entries are sorted: %v", names)
	assert.Equal(t, []string{
		"kit/",
		"kit/bin/",
		"kit/bin/alias",
		"kit/bin/tool",
		"kit/lib/",
		"kit/lib/empty/",
		"kit/lib/libc.a",
	}, names)
	assert.Equal(t, int64(0755), modes["kit/bin/tool"])
	assert.Equal(t, int64(0644), modes["kit/lib/libc.a"])
}

func TestWriter_RoundTrip(t *testing.T) {
	for _, c := range []Compression{Gzip, XZ, Zstd} {
		t.Run(string(c), func(t *testing.T) {
			src := buildTree(t)
			out := filepath.Join(t.TempDir(), "kit"+c.Ext())
			_, err := NewWriter(c, nil).Write(src, out)
			require.NoError(t, err)

			dest := t.TempDir()
			require.NoError(t, NewExtractor(nil).Extract(context.Background(), out, dest))

			root := Root(dest)
			assert.Equal(t, filepath.Join(dest, "kit"), root)

			data, err := os.ReadFile(filepath.Join(root, "lib", "libc.a"))
			require.NoError(t, err)
			assert.Len(t, data, 4096)

			info, err := os.Stat(filepath.Join(root, "bin", "tool"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

			target, err := os.Readlink(filepath.Join(root, "bin", "alias"))
			require.NoError(t, err)
			assert.Equal(t, "tool", target)

			assert.DirExists(t, filepath.Join(root, "lib", "empty"))
		})
	}
}

func TestWriter_Failure(t *testing.T) {
	src := buildTree(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	out := filepath.Join(blocker, "kit.tar.gz")
	_, err := NewWriter(Gzip, nil).Write(src, out)

	var werr *core.ArchiveWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, out, werr.Path)
	assert.NoFileExists(t, out)
}

func TestWriter_MissingSource(t *testing.T) {
	outDir := t.TempDir()
	out := filepath.Join(outDir, "kit.tar.gz")
	_, err := NewWriter(Gzip, nil).Write(filepath.Join(t.TempDir(), "missing"), out)

	var werr *core.ArchiveWriteError
	require.ErrorAs(t, err, &werr)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary archive is removed")
}

func TestExtract_Unsupported(t *testing.T) {
	src := filepath.Join(t.TempDir(), "kit.rar")
	require.NoError(t, os.WriteFile(src, []byte("rar"), 0644))

	err := NewExtractor(nil).Extract(context.Background(), src, t.TempDir())
	assert.ErrorIs(t, err, core.ErrUnsupportedArchive)
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtract_Zip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "android-ndk-r11c-linux-x86_64.zip")
	writeZip(t, src, map[string]string{
		"android-ndk-r11c/ndk-build":              "#!/bin/sh\n",
		"android-ndk-r11c/platforms/android-19/x": "data",
	})

	dest := t.TempDir()
	require.NoError(t, NewExtractor(nil).Extract(context.Background(), src, dest))

	root := Root(dest)
	assert.Equal(t, filepath.Join(dest, "android-ndk-r11c"), root)
	data, err := os.ReadFile(filepath.Join(root, "platforms", "android-19", "x"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestExtract_ZipTraversal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.zip")
	writeZip(t, src, map[string]string{"../escape": "nope"})

	dest := filepath.Join(t.TempDir(), "dest")
	err := NewExtractor(nil).Extract(context.Background(), src, dest)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape"))
}

type tarEntry struct {
	name     string
	linkname string
	body     string
}

func writeTarGz(t *testing.T, path string, entries []tarEntry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, ModTime: ModTime}
		if e.linkname != "" {
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.linkname
			hdr.Mode = 0777
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if e.linkname == "" {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestExtract_TarSymlinkEscape(t *testing.T) {
	outside := t.TempDir()

	tests := map[string][]tarEntry{
		"absolute target": {
			{name: "ndk/link", linkname: outside},
			{name: "ndk/link/escaped.txt", body: "nope"},
		},
		"relative target": {
			{name: "ndk/link", linkname: "../../../../../../../../" + outside},
			{name: "ndk/link/escaped.txt", body: "nope"},
		},
		"write below in-tree link": {
			{name: "ndk/real/keep.txt", body: "ok"},
			{name: "ndk/link", linkname: "real"},
			{name: "ndk/link/escaped.txt", body: "nope"},
		},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "evil.tar.gz")
			writeTarGz(t, src, entries)

			dest := filepath.Join(t.TempDir(), "dest")
			err := NewExtractor(nil).Extract(context.Background(), src, dest)
			require.Error(t, err)
			assert.NoFileExists(t, filepath.Join(outside, "escaped.txt"))
			assert.NoFileExists(t, filepath.Join(dest, "ndk", "real", "escaped.txt"))
		})
	}
}

func TestExtract_TarInTreeSymlink(t *testing.T) {
	src := filepath.Join(t.TempDir(), "ok.tar.gz")
	writeTarGz(t, src, []tarEntry{
		{name: "ndk/bin/gcc", body: "gcc"},
		{name: "ndk/bin/cc", linkname: "gcc"},
		{name: "ndk/lib/gcc", linkname: "../bin/gcc"},
	})

	dest := t.TempDir()
	require.NoError(t, NewExtractor(nil).Extract(context.Background(), src, dest))
	target, err := os.Readlink(filepath.Join(dest, "ndk", "lib", "gcc"))
	require.NoError(t, err)
	assert.Equal(t, "../bin/gcc", target)
}

func TestExtract_ZipSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	src := filepath.Join(t.TempDir(), "evil.zip")

	f, err := os.Create(src)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "ndk/link"}
	hdr.SetMode(os.ModeSymlink | 0777)
	w, err := zw.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = w.Write([]byte(outside))
	require.NoError(t, err)
	w, err = zw.Create("ndk/link/escaped.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	err = NewExtractor(nil).Extract(context.Background(), src, t.TempDir())
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(outside, "escaped.txt"))
}

func TestRoot(t *testing.T) {
	dest := t.TempDir()
	assert.Equal(t, dest, Root(dest))

	require.NoError(t, os.Mkdir(filepath.Join(dest, "a"), 0755))
	assert.Equal(t, filepath.Join(dest, "a"), Root(dest))

	require.NoError(t, os.Mkdir(filepath.Join(dest, "b"), 0755))
	assert.Equal(t, dest, Root(dest))
}
