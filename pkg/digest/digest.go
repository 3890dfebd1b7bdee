// Package digest computes a content digest of a directory tree from its
// NAR serialization, so two pruned trees can be compared without
// unpacking their archives.
package digest

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"
)

const prefix = "sha256:"

// Tree returns "sha256:<nix-base32>" of the NAR serialization of path.
// NAR ignores timestamps and ownership, so only names, contents,
// executable bits and symlink targets contribute.
func Tree(path string) (string, error) {
	h := sha256.New()
	if err := nar.DumpPath(h, path); err != nil {
		return "", fmt.Errorf("serializing %s: %w", path, err)
	}
	return Format(h.Sum(nil)), nil
}

// Format renders a raw SHA-256 sum.
func Format(sum []byte) string {
	return prefix + nixbase32.EncodeToString(sum)
}

// Parse decodes a digest produced by Format.
func Parse(s string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return nil, fmt.Errorf("digest %q: missing %q prefix", s, prefix)
	}
	sum, err := nixbase32.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("digest %q: %w", s, err)
	}
	if len(sum) != sha256.Size {
		return nil, fmt.Errorf("digest %q: expected %d bytes, got %d", s, sha256.Size, len(sum))
	}
	return sum, nil
}

// Verify reports whether the tree at path matches expected.
func Verify(path, expected string) (bool, string, error) {
	want, err := Parse(expected)
	if err != nil {
		return false, "", err
	}
	actual, err := Tree(path)
	if err != nil {
		return false, "", err
	}
	got, err := Parse(actual)
	if err != nil {
		return false, "", err
	}
	return bytes.Equal(want, got), actual, nil
}
