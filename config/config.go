// Package config loads the node-level configuration for the bitfield-gossip
// core: identity, view bounds, metrics/audit exposure, and the DHT topology
// settings netbridge needs to derive gossip peers.
package config

import (
	"errors"
)

// CurrentConfigVersion is the latest configuration schema version. Bump
// this when adding fields that require migration.
const CurrentConfigVersion = 1

// ErrConfigVersionTooNew is returned when a config file declares a schema
// version newer than this binary understands.
var ErrConfigVersionTooNew = errors.New("config: version is newer than supported")

// GossipConfig is the top-level configuration for a bitfield-gossip node.
type GossipConfig struct {
	Version int `yaml:"version,omitempty"`

	Identity  IdentityConfig  `yaml:"identity"`
	Network   NetworkConfig   `yaml:"network"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Gossip    ProtocolConfig  `yaml:"gossip"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// IdentityConfig points at the validator's libp2p identity key file.
type IdentityConfig struct {
	KeyPath string `yaml:"key_path"`
}

// NetworkConfig controls the libp2p host's listen addresses.
type NetworkConfig struct {
	ListenAddresses []string `yaml:"listen_addresses"`
}

// DiscoveryConfig controls the private Kademlia DHT used to derive gossip
// topology (netbridge.GossipPeersFromDHT).
type DiscoveryConfig struct {
	Network        string   `yaml:"network,omitempty"`
	BootstrapPeers []string `yaml:"bootstrap_peers,omitempty"`
}

// ProtocolConfig bounds the gossip core's own runtime behavior.
type ProtocolConfig struct {
	// MaxViewSize overrides gossip.MaxViewSize. Zero keeps the package
	// default.
	MaxViewSize int `yaml:"max_view_size,omitempty"`
	// TopologyNeighborCount bounds how many DHT-nearest peers are promoted
	// to gossip peers by NewGossipTopology.
	TopologyNeighborCount int `yaml:"topology_neighbor_count,omitempty"`
	// ProvisionerQueueCapacity bounds provisioner.ChannelSink's buffer.
	ProvisionerQueueCapacity int `yaml:"provisioner_queue_capacity,omitempty"`
	// MaxConcurrentDials bounds netbridge.Sink's fan-out concurrency.
	MaxConcurrentDials int `yaml:"max_concurrent_dials,omitempty"`
}

// TelemetryConfig controls observability surfaces. All features are
// disabled by default (opt-in).
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Audit   AuditConfig   `yaml:"audit,omitempty"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

// AuditConfig controls structured audit logging.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults applied when a field is left at its zero value by the loader.
const (
	DefaultMaxViewSize              = 32
	DefaultTopologyNeighborCount    = 16
	DefaultProvisionerQueueCapacity = 64
	DefaultMaxConcurrentDials       = 8
	DefaultMetricsListenAddress     = "127.0.0.1:9092"
)

// applyDefaults fills zero-valued fields with package defaults. Exported
// config structs keep their zero values on disk (omitempty); this only
// affects the in-memory value after loading.
func (c *GossipConfig) applyDefaults() {
	if c.Gossip.MaxViewSize == 0 {
		c.Gossip.MaxViewSize = DefaultMaxViewSize
	}
	if c.Gossip.TopologyNeighborCount == 0 {
		c.Gossip.TopologyNeighborCount = DefaultTopologyNeighborCount
	}
	if c.Gossip.ProvisionerQueueCapacity == 0 {
		c.Gossip.ProvisionerQueueCapacity = DefaultProvisionerQueueCapacity
	}
	if c.Gossip.MaxConcurrentDials == 0 {
		c.Gossip.MaxConcurrentDials = DefaultMaxConcurrentDials
	}
	if c.Telemetry.Metrics.ListenAddress == "" {
		c.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}
