package gossip

import "context"

// neededByPeer is true iff validator v's bitfield has been neither sent to
// p nor received from p at this relay parent.
func neededByPeer(rpd *perRelayParentData, p PeerId, v ValidatorID) bool {
	return !rpd.hasSentTo(p, v) && !rpd.hasReceivedFrom(p, v)
}

// relayToPeers is the network-send half of the primary action from spec
// §4.3. It computes the recipient set at the moment of the call —
// interested := gossip peers that have this relay parent in view and still
// need v's bitfield — and, if non-empty, emits exactly one
// SendValidationMessage and records the send against every recipient.
//
// Calling relayToPeers twice in a row with the same arguments is required
// to be idempotent: the second call observes an empty interested set (every
// candidate was marked sent by the first call) and emits nothing.
func relayToPeers(
	ctx context.Context,
	rpd *perRelayParentData,
	gossipPeers map[PeerId]struct{},
	peerViews map[PeerId]View,
	v ValidatorID,
	msg BitfieldGossipMessage,
	network NetworkSink,
) error {
	var interested []PeerId
	for p := range gossipPeers {
		view, announced := peerViews[p]
		if !announced || !view.Contains(msg.RelayParent) {
			continue
		}
		if !neededByPeer(rpd, p, v) {
			continue
		}
		interested = append(interested, p)
	}

	if len(interested) == 0 {
		return nil
	}

	if network != nil {
		if err := network.SendValidationMessage(ctx, interested, msg); err != nil {
			return err
		}
	}
	for _, p := range interested {
		rpd.sentSet(p)[v] = struct{}{}
	}
	return nil
}
