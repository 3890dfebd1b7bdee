// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig indicates a required configuration value is empty
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrHashMismatch indicates a downloaded file failed checksum verification
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrUnsupportedArchive indicates an input archive format we cannot unpack
	ErrUnsupportedArchive = errors.New("unsupported archive format")

	// ErrPlatformNotSupported indicates the host has no pinned release
	ErrPlatformNotSupported = errors.New("platform not supported")
)

// MissingPathError is returned when a path required by the configuration
// does not exist in the development kit tree.
type MissingPathError struct {
	Flag      string   // Flag that selected the path (e.g. "--toolchain")
	Path      string   // Path that was expected
	Available []string // Entries that do exist at that level
}

func (e *MissingPathError) Error() string {
	msg := fmt.Sprintf("%s: path not found: %s", e.Flag, e.Path)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

// ArchiveWriteError is returned when the output archive cannot be written.
type ArchiveWriteError struct {
	Path string // Output archive path
	Op   string // Step that failed
	Err  error
}

func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("writing archive %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error {
	return e.Err
}

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Subject string // Release, file or directory if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
