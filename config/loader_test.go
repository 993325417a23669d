package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "version: 1\nidentity:\n  key_path: validator.key\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gossip.MaxViewSize != DefaultMaxViewSize {
		t.Errorf("MaxViewSize = %d, want %d", cfg.Gossip.MaxViewSize, DefaultMaxViewSize)
	}
	if cfg.Gossip.TopologyNeighborCount != DefaultTopologyNeighborCount {
		t.Errorf("TopologyNeighborCount = %d, want %d", cfg.Gossip.TopologyNeighborCount, DefaultTopologyNeighborCount)
	}
	if cfg.Telemetry.Metrics.ListenAddress != DefaultMetricsListenAddress {
		t.Errorf("Metrics.ListenAddress = %q, want %q", cfg.Telemetry.Metrics.ListenAddress, DefaultMetricsListenAddress)
	}
	if cfg.Identity.KeyPath != "validator.key" {
		t.Errorf("Identity.KeyPath = %q, want validator.key", cfg.Identity.KeyPath)
	}
}

func TestLoad_RejectsTooNewVersion(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "version: 999\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected an error for a too-new config version")
	}
}

func TestLoad_RejectsPermissiveFile(t *testing.T) {
	if os.Getenv("CI_WINDOWS") != "" {
		t.Skip("file permission bits are not meaningful on this platform")
	}
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected an error for a world-readable config file")
	}
}
