// Package config handles regctl configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/winreg/pkg/regfile"
)

// EnvConfig names the environment variable that overrides the config path.
const EnvConfig = "REGCTL_CONFIG"

// Store backends accepted by store.backend.
const (
	BackendNative = "native"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config represents the contents of ~/.regctl/config.yaml.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"` // bolt database file
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // daily JSON log files are written here when set
}

type ExportConfig struct {
	Encoding string `yaml:"encoding"` // encoding the portable stores save .reg files in
}

// Default returns the default configuration. The native store is the
// default on Windows only; elsewhere it is the bolt file under ~/.regctl.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: defaultBackend(),
			Path:    filepath.Join(Dir(), "registry.db"),
		},
		Log:    LogConfig{Level: "info"},
		Export: ExportConfig{Encoding: regfile.EncodingUTF16LE},
	}
}

// Dir returns ~/.regctl, or .regctl when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".regctl"
	}
	return filepath.Join(home, ".regctl")
}

// Path returns the config file location: $REGCTL_CONFIG when set,
// otherwise ~/.regctl/config.yaml.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config at path and applies defaults for missing fields.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case BackendNative, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("store.backend: unknown backend %q (use native, bolt, or memory)", c.Store.Backend)
	}
	switch c.Export.Encoding {
	case regfile.EncodingUTF16LE, regfile.EncodingUTF8, regfile.EncodingANSI:
	default:
		return fmt.Errorf("export.encoding: unsupported encoding %q", c.Export.Encoding)
	}
	return nil
}

// Write writes cfg to path, creating the directory.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
