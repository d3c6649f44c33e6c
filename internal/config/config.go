package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Prefix        string `toml:"prefix"`
	Sheet         int    `toml:"sheet"`
	HeaderRows    int    `toml:"header_rows"`
	Output        string `toml:"output"`
	FlushTrailing bool   `toml:"flush_trailing"`
	Strict        bool   `toml:"strict"`
	Validate      bool   `toml:"validate"`

	Catalog     bool   `toml:"catalog"`
	CatalogPath string `toml:"catalog_path"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Upload Upload `toml:"upload"`
}

type Upload struct {
	URL      string `toml:"url"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// DefaultPath is ~/.config/df2lex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "df2lex", "config.toml"), nil
}

// Load reads the config file at the default path if it exists.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return load(path, false)
}

// LoadFile reads the config file at path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(cfgPath string, required bool) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Sheet:         1,
		HeaderRows:    1,
		Output:        "intents.zip",
		FlushTrailing: true,
		Catalog:       true,
		CatalogPath:   filepath.Join(home, ".config", "df2lex", "catalog.db"),
		LogLevel:      "info",
		LogFormat:     "console",
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if required {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	if cfg.Sheet < 1 {
		return nil, fmt.Errorf("config %s: sheet must be >= 1, got %d", cfgPath, cfg.Sheet)
	}
	if cfg.HeaderRows < 0 {
		return nil, fmt.Errorf("config %s: header_rows must be >= 0, got %d", cfgPath, cfg.HeaderRows)
	}

	// expand ~ in paths
	cfg.Output = expandHome(cfg.Output, home)
	cfg.CatalogPath = expandHome(cfg.CatalogPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
