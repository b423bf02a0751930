// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "kmerdiff"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the default path for the history database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "history.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultFofns are the reference model lists read from the working
// directory when none are configured.
func DefaultFofns() []string {
	return []string{
		"ont.alphabet_nucleotide.R7.fofn",
		"ont.alphabet_nucleotide.R9.fofn",
		"ont.alphabet_cpg.R7.fofn",
		"ont.alphabet_cpg.R9.fofn",
	}
}
