// Package subsystem drives the gossip core as a single-goroutine event loop:
// one task owns ProtocolState, with no internal locking, and inputs are
// processed strictly in arrival order.
package subsystem

import (
	"fmt"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// NetworkEventKind tags the variant carried by a NetworkEvent.
type NetworkEventKind int

const (
	EventPeerConnected NetworkEventKind = iota
	EventPeerDisconnected
	EventPeerViewChange
	EventPeerMessage
	EventNewGossipTopology
)

// NetworkEvent is the tagged union of network-bridge event variants. Only
// the fields relevant to Kind are populated.
type NetworkEvent struct {
	Kind NetworkEventKind

	Peer      gossip.PeerId
	View      gossip.View
	Message   gossip.BitfieldGossipMessage
	Neighbors []gossip.PeerId
}

// Event is the full tagged union of inputs the subsystem's event loop
// consumes: our own view changes, a local distribution request, and network
// bridge events (themselves a nested tagged union via NetworkEvent).
type Event struct {
	OurViewChange      *gossip.View
	DistributeBitfield *DistributeBitfieldRequest
	NetworkBridge      *NetworkEvent
}

// DistributeBitfieldRequest carries a locally signed bitfield to gossip,
// destined for Handler.DistributeOwnBitfield.
type DistributeBitfieldRequest struct {
	RelayParent gossip.Hash
	Signed      gossip.SignedBitfield
}

// ErrWrongVariant is returned by FocusBridgeEvent when the outer Event does
// not carry a NetworkBridge variant.
var ErrWrongVariant = fmt.Errorf("subsystem: event does not carry a NetworkBridge variant")

// FocusBridgeEvent is the fallible projection from the outer protocol
// variant to this subsystem's inner NetworkEvent: a partial conversion that
// rejects (rather than panics on) a variant it does not carry.
func FocusBridgeEvent(e Event) (*NetworkEvent, error) {
	if e.NetworkBridge == nil {
		return nil, ErrWrongVariant
	}
	return e.NetworkBridge, nil
}
