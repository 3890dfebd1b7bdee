package digest

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/nix/nixbase32"
)

func TestFormat(t *testing.T) {
	sum := sha256.Sum256([]byte("android-ndk"))
	d := Format(sum[:])
	assert.Regexp(t, `^sha256:[0-9a-df-np-sv-z]{52}$`, d)

	decoded, err := Parse(d)
	require.NoError(t, err)
	assert.Equal(t, sum[:], decoded)

	_, err = Parse("sha256:eeee")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	sum := sha256.Sum256(nil)
	got, err := Parse(Format(sum[:]))
	require.NoError(t, err)
	assert.Equal(t, sum[:], got)

	_, err = Parse(nixbase32.EncodeToString(sum[:]))
	assert.ErrorContains(t, err, "prefix")

	_, err = Parse("sha256:" + nixbase32.EncodeToString(sum[:16]))
	assert.ErrorContains(t, err, "expected 32 bytes")
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "tool"), []byte("tool"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("readme"), 0644))
	require.NoError(t, os.Symlink("tool", filepath.Join(root, "bin", "alias")))
	return root
}

func TestTree(t *testing.T) {
	a := writeTree(t)
	b := writeTree(t)

	da, err := Tree(a)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(da, "sha256:"))

	// Timestamps do not contribute.
	later := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(b, "README"), later, later))
	db, err := Tree(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)

	require.NoError(t, os.WriteFile(filepath.Join(b, "README"), []byte("changed"), 0644))
	db, err = Tree(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)

	_, err = Tree(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	root := writeTree(t)
	want, err := Tree(root)
	require.NoError(t, err)

	ok, actual, err := Verify(root, want)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, actual)

	other := sha256.Sum256([]byte("other"))
	ok, actual, err = Verify(root, Format(other[:]))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, want, actual)

	_, _, err = Verify(root, "md5:abc")
	assert.Error(t, err)
}
