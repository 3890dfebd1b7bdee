// pkg/archive/extract.go
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"github.com/arc-language/minindk/pkg/core"
)

// Extractor unpacks development-kit archives.
type Extractor struct {
	Logger *zap.SugaredLogger
}

// NewExtractor creates an extractor
func NewExtractor(logger *zap.SugaredLogger) *Extractor {
	return &Extractor{Logger: core.OrNop(logger)}
}

// Extract unpacks src into dest based on the file extension.
func (e *Extractor) Extract(ctx context.Context, src, dest string) error {
	logger := core.OrNop(e.Logger)
	logger.Debugf("Unpacking %s -> %s", src, dest)

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dest, err)
	}

	name := strings.ToLower(filepath.Base(src))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return e.extractZip(src, dest)
	case strings.HasSuffix(name, ".bin"):
		return e.runSelfExtractor(ctx, src, dest)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"),
		strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".tar.zst"),
		strings.HasSuffix(name, ".tar"):
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer f.Close()
		return e.extractTarStream(f, name, dest)
	}

	return fmt.Errorf("%w: %s", core.ErrUnsupportedArchive, src)
}

func (e *Extractor) extractTarStream(r io.Reader, name, dest string) error {
	logger := core.OrNop(e.Logger)
	var tarReader *tar.Reader

	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".tgz"):
		logger.Debugf("  Using gzip decompression")
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzReader.Close()
		tarReader = tar.NewReader(gzReader)
	case strings.HasSuffix(name, ".xz"):
		logger.Debugf("  Using xz decompression")
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		tarReader = tar.NewReader(xzReader)
	case strings.HasSuffix(name, ".zst"):
		logger.Debugf("  Using zstd decompression")
		zstdReader, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating zstd reader: %w", err)
		}
		defer zstdReader.Close()
		tarReader = tar.NewReader(zstdReader)
	default:
		logger.Debugf("  Using uncompressed tar")
		tarReader = tar.NewReader(r)
	}

	fileCount := 0
	dirCount := 0
	linkCount := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		cleanPath := strings.TrimPrefix(header.Name, "./")
		if cleanPath == "" || cleanPath == "." {
			continue
		}

		targetPath, err := secureJoin(dest, cleanPath)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
			dirCount++

		case tar.TypeSymlink:
			if err := writeSymlink(dest, header.Linkname, targetPath); err != nil {
				return err
			}
			linkCount++

		case tar.TypeLink:
			source, err := secureJoin(dest, strings.TrimPrefix(header.Linkname, "./"))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			os.Remove(targetPath)
			if err := os.Link(source, targetPath); err != nil {
				return fmt.Errorf("creating hard link %s -> %s: %w", targetPath, source, err)
			}
			linkCount++

		case tar.TypeReg:
			if err := writeFile(targetPath, tarReader, os.FileMode(header.Mode).Perm(), header.Size); err != nil {
				return err
			}
			fileCount++

		default:
			logger.Debugf("  Skipping unsupported file type %v for %s", header.Typeflag, cleanPath)
		}
	}

	logger.Debugf("  Extraction complete: %d files, %d directories, %d links", fileCount, dirCount, linkCount)
	return nil
}

func (e *Extractor) extractZip(src, dest string) error {
	logger := core.OrNop(e.Logger)

	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer zr.Close()

	fileCount := 0
	for _, f := range zr.File {
		targetPath, err := secureJoin(dest, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}

		case mode&os.ModeSymlink != 0:
			// The link target is stored as the entry content.
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("opening %s: %w", f.Name, err)
			}
			target, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", f.Name, err)
			}
			if err := writeSymlink(dest, string(target), targetPath); err != nil {
				return err
			}

		default:
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("opening %s: %w", f.Name, err)
			}
			perm := mode.Perm()
			if perm == 0 {
				perm = 0644
			}
			err = writeFile(targetPath, rc, perm, int64(f.UncompressedSize64))
			rc.Close()
			if err != nil {
				return err
			}
			fileCount++
		}
	}

	logger.Debugf("  Extraction complete: %d files", fileCount)
	return nil
}

// runSelfExtractor runs an NDK .bin release, which unpacks itself into
// the working directory.
func (e *Extractor) runSelfExtractor(ctx context.Context, src, dest string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat %s: %w", abs, err)
	}
	if err := os.Chmod(abs, info.Mode()|0111); err != nil {
		return fmt.Errorf("making %s executable: %w", abs, err)
	}

	cmd := exec.CommandContext(ctx, abs)
	cmd.Dir = dest
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", abs, err)
	}
	return nil
}

// Root returns the single top-level directory below dest, or dest itself
// when the archive did not have exactly one.
func Root(dest string) string {
	entries, err := os.ReadDir(dest)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dest
	}
	return filepath.Join(dest, entries[0].Name())
}

// secureJoin joins name below dest and rejects names that leave dest,
// either lexically or through a symlink already extracted below dest.
func secureJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || escapes(rel) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, dest)
	}

	parts := strings.Split(rel, string(filepath.Separator))
	cur := dest
	for _, part := range parts[:len(parts)-1] {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", cur, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("archive entry %q is below symlink %s", name, cur)
		}
	}
	return target, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// writeSymlink creates targetPath -> linkname. Absolute targets and
// targets resolving outside dest are rejected.
func writeSymlink(dest, linkname, targetPath string) error {
	if filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return fmt.Errorf("symlink %s has absolute target %q", targetPath, linkname)
	}
	resolved := filepath.Join(filepath.Dir(targetPath), filepath.FromSlash(linkname))
	if rel, err := filepath.Rel(dest, resolved); err != nil || escapes(rel) {
		return fmt.Errorf("symlink %s -> %s escapes %s", targetPath, linkname, dest)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating parent directory for symlink: %w", err)
	}
	os.Remove(targetPath)
	if err := os.Symlink(linkname, targetPath); err != nil {
		return fmt.Errorf("creating symlink %s -> %s: %w", targetPath, linkname, err)
	}
	return nil
}

func writeFile(targetPath string, r io.Reader, perm os.FileMode, size int64) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	// Never write through a symlink left by an earlier entry.
	if info, err := os.Lstat(targetPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(targetPath); err != nil {
			return fmt.Errorf("replacing symlink %s: %w", targetPath, err)
		}
	}

	outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", targetPath, err)
	}

	written, err := io.Copy(outFile, r)
	outFile.Close()
	if err != nil {
		return fmt.Errorf("writing file %s: %w", targetPath, err)
	}
	if written != size {
		return fmt.Errorf("file size mismatch for %s: expected %d, got %d", targetPath, size, written)
	}
	return nil
}
