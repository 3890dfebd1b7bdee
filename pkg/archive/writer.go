// pkg/archive/writer.go
package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/arc-language/minindk/pkg/core"
)

// ModTime is the timestamp stamped on every archive entry.
var ModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Writer packs a staging directory into a single compressed tarball.
type Writer struct {
	Compression Compression
	Logger      *zap.SugaredLogger
}

// NewWriter creates a writer for the given compression
func NewWriter(c Compression, logger *zap.SugaredLogger) *Writer {
	return &Writer{Compression: c, Logger: core.OrNop(logger)}
}

// Write archives every entry below srcDir (srcDir itself excluded) into
// outPath and returns the archive size. The archive is built next to
// outPath and renamed into place, so a failed write leaves nothing behind.
func (w *Writer) Write(srcDir, outPath string) (int64, error) {
	logger := core.OrNop(w.Logger)
	fail := func(op string, err error) (int64, error) {
		return 0, &core.ArchiveWriteError{Path: outPath, Op: op, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail("creating output directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), "."+filepath.Base(outPath)+".tmp-*")
	if err != nil {
		return fail("creating temporary file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	logger.Debugf("Creating archive %s (%s)", outPath, w.Compression)

	buf := bufio.NewWriterSize(tmp, 1<<20)
	zw, err := w.Compression.newWriter(buf)
	if err != nil {
		return fail("creating compressor", err)
	}

	entries, err := writeTar(zw, srcDir)
	if err != nil {
		return fail("writing tar stream", err)
	}
	if err := zw.Close(); err != nil {
		return fail("closing compressor", err)
	}
	if err := buf.Flush(); err != nil {
		return fail("flushing", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("closing", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fail("setting permissions", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fail("renaming into place", err)
	}
	committed = true

	info, err := os.Stat(outPath)
	if err != nil {
		return fail("stat", err)
	}

	logger.Debugf("  Wrote %d entries, %d bytes", entries, info.Size())
	return info.Size(), nil
}

// writeTar streams srcDir as a tar archive. WalkDir visits entries in
// lexical order and every header field that depends on the host is fixed.
func writeTar(w io.Writer, srcDir string) (int, error) {
	tw := tar.NewWriter(w)
	count := 0

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    filepath.ToSlash(rel),
			Mode:    int64(info.Mode().Perm()),
			ModTime: ModTime,
			Format:  tar.FormatPAX,
		}

		mode := info.Mode()
		switch {
		case mode.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
		case mode&os.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", p, err)
			}
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = filepath.ToSlash(target)
		case mode.IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = info.Size()
		default:
			return nil
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing header for %s: %w", rel, err)
		}
		count++

		if hdr.Typeflag != tar.TypeReg {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		written, err := io.Copy(tw, f)
		if err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		if written != hdr.Size {
			return fmt.Errorf("file size mismatch for %s: expected %d, got %d", rel, hdr.Size, written)
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, tw.Close()
}
