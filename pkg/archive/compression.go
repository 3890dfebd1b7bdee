// pkg/archive/compression.go
package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression selects the output archive compression
type Compression string

const (
	// Gzip produces .tar.gz archives
	Gzip Compression = "gzip"
	// XZ produces .tar.xz archives
	XZ Compression = "xz"
	// Zstd produces .tar.zst archives
	Zstd Compression = "zstd"
)

// ParseCompression parses a compression name; empty means gzip.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "gzip", "gz":
		return Gzip, nil
	case "xz":
		return XZ, nil
	case "zstd", "zst":
		return Zstd, nil
	}
	return "", fmt.Errorf("unknown compression %q (want gzip, xz or zstd)", s)
}

// Ext returns the archive file extension, including the tar part.
func (c Compression) Ext() string {
	switch c {
	case XZ:
		return ".tar.xz"
	case Zstd:
		return ".tar.zst"
	default:
		return ".tar.gz"
	}
}

// newWriter wraps w in a compressor. None of the encoders embed
// timestamps or names, so equal input yields equal output.
func (c Compression) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case XZ:
		return xz.NewWriter(w)
	case Zstd:
		return zstd.NewWriter(w,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		)
	case Gzip, "":
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}
	return nil, fmt.Errorf("unknown compression %q", string(c))
}
