package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a patrol configuration from the given YAML file path.
// Unknown fields are rejected at load time rather than silently ignored.
// After parsing, defaults are applied to fields the file leaves empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a patrol config in standard locations and loads the
// first one found. Search order: ./patrol.yaml, ~/.patrol/config.yaml
func LoadDefault() (*Config, error) {
	candidates := []string{"patrol.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".patrol", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no patrol config found (searched: %v)", candidates)
}

// applyDefaults fills monitor settings the file leaves empty and installs the
// builtin pattern set when the file defines no patterns of its own.
func applyDefaults(cfg *Config) {
	m := &cfg.Monitor

	if m.LogPath == "" {
		m.LogPath = "logs/app.log"
	}
	if m.Interval == "" {
		m.Interval = "60s"
	}
	if m.MaxErrorsPerBatch <= 0 {
		m.MaxErrorsPerBatch = 10
	}
	if m.ContextLines == 0 {
		m.ContextLines = 3
	}
	if m.Environment == "" {
		m.Environment = "production"
	}
	if m.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			m.StateDir = filepath.Join(home, ".patrol", "state")
		}
	}

	if len(cfg.Patterns) == 0 {
		cfg.Patterns = BuiltinPatterns()
	}
}
