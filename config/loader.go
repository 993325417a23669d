package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// checkConfigFilePermissions returns an error (which makes Load fail) if a
// config file has overly permissive permissions (any group/world bit set). Config files name a validator key
// path and DHT bootstrap peers; on multi-user systems a world-readable
// config leaks topology information.
func checkConfigFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil // file access errors are handled by the caller
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %04o; expected 0600 — fix with: chmod 600 %s", path, mode, path)
	}
	return nil
}

// Load reads and parses a GossipConfig from path, applying package defaults
// to any zero-valued tunable.
func Load(path string) (*GossipConfig, error) {
	if err := checkConfigFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg GossipConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version > CurrentConfigVersion {
		return nil, fmt.Errorf("%w: version %d, supported up to %d", ErrConfigVersionTooNew, cfg.Version, CurrentConfigVersion)
	}

	cfg.applyDefaults()
	return &cfg, nil
}
