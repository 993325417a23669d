package netbridge

import (
	"github.com/libp2p/go-libp2p-kbucket"
	"github.com/libp2p/go-libp2p/core/peer"

	dht "github.com/libp2p/go-libp2p-kad-dht"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// GossipPeersFromDHT derives the gossip-topology neighbor set fed into
// NewGossipTopology: the self peer's closest neighbors in the DHT's
// Kademlia routing table, which approximates the validator-set-derived
// "grid" neighborhoods the original protocol computes from session info.
// count bounds how many neighbors are returned.
//
// Grounded on cmd/peerup's dht.New/kdht.Bootstrap usage; RoutingTable
// querying is the natural Go-idiomatic stand-in for the original's
// validator-index-based grid computation, which this core does not (and
// should not) reimplement — topology derivation is its own collaborator,
// wired in from outside the gossip core.
func GossipPeersFromDHT(kdht *dht.IpfsDHT, self peer.ID, count int) []gossip.PeerId {
	rt := kdht.RoutingTable()
	if rt == nil {
		return nil
	}
	key := kbucket.ConvertPeerID(self)
	nearest := rt.NearestPeers(key, count)
	out := make([]gossip.PeerId, len(nearest))
	for i, p := range nearest {
		out[i] = p
	}
	return out
}
