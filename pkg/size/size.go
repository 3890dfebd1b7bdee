// pkg/size/size.go
package size

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
)

var binaryAbbrs = []string{"B", "KB", "MB", "GB", "TB"}

// Dir sums the sizes of regular files below root. Symlinks are not
// followed and do not count.
func Dir(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Object returns the size of a file, or of a directory tree.
func Object(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return Dir(path)
	}
	return info.Size(), nil
}

// Human formats n bytes with two decimals in 1024 steps, e.g. "1.50 MB".
func Human(n int64) string {
	return units.CustomSize("%.2f %s", float64(n), 1024.0, binaryAbbrs)
}
