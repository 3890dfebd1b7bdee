// pkg/registry/registry.go
package registry

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/minindk/pkg/core"
)

//go:embed releases/*.toml
var embedded embed.FS

// Entry represents a single releases/<version>.toml file
type Entry struct {
	Name    string          `toml:"name"`
	Archive string          `toml:"archive"`
	Hosts   map[string]Host `toml:"hosts"`
}

// Host is the download for one host OS
type Host struct {
	URL  string `toml:"url"`
	SHA1 string `toml:"sha1"`
}

// Artifact is a resolved download
type Artifact struct {
	Version      string
	URL          string
	SHA1         string
	FileName     string // e.g. android-ndk-r16b.zip
	UnpackedName string // top-level directory of the unpacked kit
}

// Registry provides lookup into a directory of release entries
type Registry struct {
	fsys fs.FS
}

// New creates a Registry over fsys, which holds <version>.toml files
func New(fsys fs.FS) *Registry {
	return &Registry{fsys: fsys}
}

// Default returns the registry of pinned releases built into the binary
func Default() *Registry {
	sub, err := fs.Sub(embedded, "releases")
	if err != nil {
		panic(err)
	}
	return New(sub)
}

// Open returns a registry over dir, or the built-in one when dir is empty
func Open(dir string) *Registry {
	if dir == "" {
		return Default()
	}
	return New(os.DirFS(dir))
}

// Versions lists the known release names, sorted.
func (r *Registry) Versions() ([]string, error) {
	matches, err := fs.Glob(r.fsys, "*.toml")
	if err != nil {
		return nil, fmt.Errorf("registry: listing releases: %w", err)
	}
	versions := make([]string, 0, len(matches))
	for _, m := range matches {
		versions = append(versions, strings.TrimSuffix(m, ".toml"))
	}
	sort.Strings(versions)
	return versions, nil
}

// Load reads and parses <version>.toml.
func (r *Registry) Load(version string) (*Entry, error) {
	if version == "" || strings.ContainsAny(version, `/\`) {
		return nil, fmt.Errorf("registry: invalid release name %q", version)
	}

	data, err := fs.ReadFile(r.fsys, version+".toml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			known, _ := r.Versions()
			return nil, fmt.Errorf("registry: release '%s' not found (known: %s)", version, strings.Join(known, ", "))
		}
		return nil, fmt.Errorf("registry: reading '%s': %w", version, err)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", version, err)
	}
	if entry.Name == "" {
		entry.Name = version
	}

	return &entry, nil
}

// Resolve returns the download of version for the host OS goos.
func (r *Registry) Resolve(version, goos string) (*Artifact, error) {
	entry, err := r.Load(version)
	if err != nil {
		return nil, err
	}

	host, ok := entry.Hosts[goos]
	if !ok {
		return nil, fmt.Errorf("registry: release '%s' for %s: %w", version, goos, core.ErrPlatformNotSupported)
	}

	archive := entry.Archive
	if archive == "" {
		archive = "zip"
	}

	unpacked := "android-ndk-" + entry.Name
	return &Artifact{
		Version:      entry.Name,
		URL:          host.URL,
		SHA1:         strings.ToLower(host.SHA1),
		FileName:     unpacked + "." + archive,
		UnpackedName: unpacked,
	}, nil
}
