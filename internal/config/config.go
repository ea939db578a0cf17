package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStoragePath = "~/patchlink/storage"
	DefaultExportPath  = "~/patchlink/export"
	ConfigFileName     = "patchlink.yaml"
)

// Config holds the settings shared by the CLI and the MCP server
type Config struct {
	Storage   string   `yaml:"storage"`
	Export    string   `yaml:"export"`
	Solutions []string `yaml:"solutions,omitempty"`
	HashesDB  string   `yaml:"hashes_db,omitempty"`
	Overwrite bool     `yaml:"overwrite,omitempty"`
	Remote    string   `yaml:"remote,omitempty"`
}

// StoragePath returns the storage path from PATCHLINK_STORAGE env var,
// falling back to DefaultStoragePath.
func StoragePath() string {
	if env := os.Getenv("PATCHLINK_STORAGE"); env != "" {
		return env
	}
	return DefaultStoragePath
}

// ExportPath returns the export root from PATCHLINK_EXPORT env var,
// falling back to DefaultExportPath.
func ExportPath() string {
	if env := os.Getenv("PATCHLINK_EXPORT"); env != "" {
		return env
	}
	return DefaultExportPath
}

// Path returns the config file location: PATCHLINK_CONFIG, then
// $XDG_CONFIG_HOME/patchlink/patchlink.yaml, then ~/.config/patchlink/patchlink.yaml.
func Path() string {
	if env := os.Getenv("PATCHLINK_CONFIG"); env != "" {
		return env
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchlink", ConfigFileName)
	}
	return filepath.Join("~", ".config", "patchlink", ConfigFileName)
}

// Default returns the configuration built from environment variables only
func Default() Config {
	return Config{
		Storage: StoragePath(),
		Export:  ExportPath(),
	}
}

// Load reads the YAML file at path over the environment defaults.
// A missing file yields the defaults unless mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case errors.Is(err, fs.ErrNotExist) && !mustExist:
		return cfg.expanded(), nil
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg.expanded(), nil
}

func (c Config) expanded() Config {
	c.Storage = ExpandHome(c.Storage)
	c.Export = ExpandHome(c.Export)
	c.HashesDB = ExpandHome(c.HashesDB)
	return c
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
