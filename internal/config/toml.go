// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Reference ReferenceConfig `toml:"reference"`
	Report    ReportConfig    `toml:"report"`
	History   HistoryConfig   `toml:"history"`
}

// ReferenceConfig lists where reference models are found.
type ReferenceConfig struct {
	Fofns []string `toml:"fofns"`
}

// ReportConfig maps report-related settings.
type ReportConfig struct {
	Format     *string `toml:"format"`
	DateLayout *string `toml:"date-layout"`
	Color      *bool   `toml:"color"`
}

// HistoryConfig maps run history settings.
type HistoryConfig struct {
	Save *bool   `toml:"save"`
	DB   *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
