// Command bitfield-gossip-node runs the availability-bitfield gossip
// distribution core as a standalone libp2p process: it wires the gossip
// core's three sinks onto a real host, brings up a private Kademlia DHT for
// gossip-topology derivation, and drives everything through the single
// subsystem event loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shurlinet/bifrost-gossip/chainstate"
	"github.com/shurlinet/bifrost-gossip/config"
	"github.com/shurlinet/bifrost-gossip/gossip"
	"github.com/shurlinet/bifrost-gossip/netbridge"
	"github.com/shurlinet/bifrost-gossip/provisioner"
	"github.com/shurlinet/bifrost-gossip/subsystem"
)

func main() {
	configPath := flag.String("config", "bitfield-gossip-node.yaml", "path to node configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("bitfield-gossip-node exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.Default()
	gossip.MaxViewSize = cfg.Gossip.MaxViewSize

	priv, err := loadOrCreateIdentity(cfg.Identity.KeyPath)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	listenAddrs := cfg.Network.ListenAddresses
	if len(listenAddrs) == 0 {
		listenAddrs = []string{"/ip4/0.0.0.0/tcp/0", "/ip4/0.0.0.0/udp/0/quic-v1"}
	}

	host, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddrs...),
		libp2p.NATPortMap(),
		libp2p.EnableHolePunching(),
	)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	defer host.Close()
	log.Info("host started", "peer_id", host.ID())

	dhtPrefix := protocol.ID("/bifrost-gossip")
	if cfg.Discovery.Network != "" {
		dhtPrefix = protocol.ID("/bifrost-gossip/" + cfg.Discovery.Network)
	}
	kdht, err := dht.New(ctx, host, dht.Mode(dht.ModeServer), dht.ProtocolPrefix(dhtPrefix))
	if err != nil {
		return fmt.Errorf("create DHT: %w", err)
	}
	defer kdht.Close()
	if err := kdht.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap DHT: %w", err)
	}
	for _, addr := range cfg.Discovery.BootstrapPeers {
		if err := connectBootstrapPeer(ctx, host, addr); err != nil {
			log.Warn("failed to connect to bootstrap peer", "address", addr, "error", err)
		}
	}

	metrics := gossip.NewMetrics()
	if cfg.Telemetry.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Telemetry.Metrics.ListenAddress, metrics, log)
	}

	var audit *gossip.AuditLogger
	if cfg.Telemetry.Audit.Enabled {
		audit = gossip.NewAuditLogger(slog.NewJSONHandler(os.Stderr, nil))
	}

	prov := provisioner.NewChannelSink(cfg.Gossip.ProvisionerQueueCapacity, log)
	defer prov.Close()
	go consumeProvisioned(ctx, prov, log)

	inbox := make(chan subsystem.Event, 256)

	netSink := netbridge.NewSink(host, nil, log, cfg.Gossip.MaxConcurrentDials)
	netSink.RegisterStreamHandler(func(remote peer.ID, msg gossip.BitfieldGossipMessage) {
		enqueue(ctx, inbox, subsystem.Event{
			NetworkBridge: &subsystem.NetworkEvent{
				Kind:    subsystem.EventPeerMessage,
				Peer:    remote,
				Message: msg,
			},
		})
	})

	chain := chainstate.NewAdapter(unimplementedSessionInfoSource{})

	h := gossip.NewHandler(netSink, prov, chain)
	h.Metrics = metrics
	h.Audit = audit
	h.Log = log

	host.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			enqueue(ctx, inbox, subsystem.Event{
				NetworkBridge: &subsystem.NetworkEvent{Kind: subsystem.EventPeerConnected, Peer: c.RemotePeer()},
			})
		},
		DisconnectedF: func(_ network.Network, c network.Conn) {
			enqueue(ctx, inbox, subsystem.Event{
				NetworkBridge: &subsystem.NetworkEvent{Kind: subsystem.EventPeerDisconnected, Peer: c.RemotePeer()},
			})
		},
	})

	go refreshTopology(ctx, kdht, host, cfg.Gossip.TopologyNeighborCount, inbox, log)

	return subsystem.Run(ctx, h, inbox)
}

// enqueue delivers ev to inbox, respecting ctx cancellation so background
// feeder goroutines never block forever past shutdown.
func enqueue(ctx context.Context, inbox chan<- subsystem.Event, ev subsystem.Event) {
	select {
	case inbox <- ev:
	case <-ctx.Done():
	}
}

func refreshTopology(ctx context.Context, kdht *dht.IpfsDHT, host interface{ ID() peer.ID }, n int, inbox chan<- subsystem.Event, log *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			neighbors := netbridge.GossipPeersFromDHT(kdht, host.ID(), n)
			log.Debug("refreshed gossip topology", "neighbor_count", len(neighbors))
			enqueue(ctx, inbox, subsystem.Event{
				NetworkBridge: &subsystem.NetworkEvent{
					Kind:      subsystem.EventNewGossipTopology,
					Neighbors: neighbors,
				},
			})
		}
	}
}

func connectBootstrapPeer(ctx context.Context, host interface {
	Connect(context.Context, peer.AddrInfo) error
}, addr string) error {
	ai, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return fmt.Errorf("parse bootstrap peer address: %w", err)
	}
	return host.Connect(ctx, *ai)
}

func serveMetrics(ctx context.Context, addr string, metrics *gossip.Metrics, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn("metrics server stopped", "error", err)
	}
}

func consumeProvisioned(ctx context.Context, prov *provisioner.ChannelSink, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-prov.Output():
			if !ok {
				return
			}
			log.Debug("bitfield provisionable", "relay_parent", b.RelayParent)
		}
	}
}

// unimplementedSessionInfoSource is a placeholder ChainState oracle: a real
// deployment must inject a client for the relay-chain runtime API. It fails
// every query, which OurViewChange treats as "skip this relay parent"
// rather than crashing the node.
type unimplementedSessionInfoSource struct{}

func (unimplementedSessionInfoSource) SessionInfo(context.Context, gossip.Hash) (gossip.SigningContext, []gossip.ValidatorID, error) {
	return gossip.SigningContext{}, nil, fmt.Errorf("no runtime API client configured for chain-state queries")
}

func loadOrCreateIdentity(path string) (crypto.PrivKey, error) {
	if data, err := os.ReadFile(path); err == nil {
		priv, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal identity key at %s: %w", path, err)
		}
		return priv, nil
	}
	priv, _, err := crypto.GenerateKeyPair(crypto.Ed25519, -1)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	data, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal identity key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write identity key to %s: %w", path, err)
	}
	return priv, nil
}
