package gossip

import "context"

// NetworkSink is the network-bridge collaborator, referenced only by
// interface. netbridge.Sink is the concrete, process-wide implementation;
// tests use an in-memory recorder.
type NetworkSink interface {
	// SendValidationMessage delivers wire(msg) to exactly the given peers.
	SendValidationMessage(ctx context.Context, peers []PeerId, msg BitfieldGossipMessage) error
	// ReportPeer applies a reputation delta for a single peer's behavior.
	ReportPeer(ctx context.Context, peer PeerId, delta int32, reason string)
}

// ProvisionerSink is the provisioner collaborator, referenced only by
// interface.
type ProvisionerSink interface {
	ProvisionableData(ctx context.Context, relayParent Hash, signed SignedBitfield)
}

// ChainState resolves the signing context and validator set for a newly
// activated relay parent.
type ChainState interface {
	SessionInfo(ctx context.Context, relayParent Hash) (SigningContext, []ValidatorID, error)
}

// ChainStateForgetter is an optional capability of a ChainState collaborator
// that caches per-relay-parent state: OurViewChange calls Forget for every
// evicted relay parent so the cache doesn't grow unbounded over the life of
// a long-running node.
type ChainStateForgetter interface {
	Forget(relayParent Hash)
}
