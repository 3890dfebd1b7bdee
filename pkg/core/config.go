// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds minindk configuration
type Config struct {
	NDKRoot      string `yaml:"ndk_root"`
	NDKArchive   string `yaml:"ndk_archive"`
	NDKVersion   string `yaml:"ndk_version"`
	WorkDir      string `yaml:"work_dir"`
	DownloadsDir string `yaml:"downloads_dir"`
	OutputDir    string `yaml:"output_dir"`
	Compression  string `yaml:"compression"`
	KeepStaging  bool   `yaml:"keep_staging"`
	Debug        bool   `yaml:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	// DownloadsDir and OutputDir default to <WorkDir>/_downloads and
	// <WorkDir>/_pruned when left empty.
	return &Config{
		WorkDir:     getDefaultWorkDir(),
		Compression: "gzip",
	}
}

// DefaultConfigPath returns $HOME/.config/minindk/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "minindk", "config.yaml")
}

// LoadConfig loads configuration from file. A missing file yields defaults;
// keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
		if path == "" {
			return fmt.Errorf("no config path and no home directory")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func getDefaultWorkDir() string {
	if path := os.Getenv("MINIDK_WORK_DIR"); path != "" {
		return path
	}

	wd, err := os.Getwd()
	if err != nil {
		return os.TempDir()
	}

	return wd
}
