// errors.go
package minindk

import (
	"github.com/arc-language/minindk/pkg/core"
)

// Re-export error types so callers can use errors.As without importing pkg/core
type (
	// MissingPathError reports a configuration value with no matching path in the tree
	MissingPathError = core.MissingPathError
	// ArchiveWriteError reports an I/O failure while writing the output archive
	ArchiveWriteError = core.ArchiveWriteError
	// Error wraps an error with additional context
	Error = core.Error
)

var (
	// ErrInvalidConfig indicates a required configuration value is empty
	ErrInvalidConfig = core.ErrInvalidConfig

	// ErrHashMismatch indicates a downloaded kit failed checksum verification
	ErrHashMismatch = core.ErrHashMismatch

	// ErrUnsupportedArchive indicates an input archive format we cannot unpack
	ErrUnsupportedArchive = core.ErrUnsupportedArchive

	// ErrPlatformNotSupported indicates the host has no pinned release
	ErrPlatformNotSupported = core.ErrPlatformNotSupported
)
