package gossip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shurlinet/bifrost-gossip/gossip/reputation"
)

// Handler is the top-level dispatcher: it binds network events
// and local events to ProtocolState transitions, and is the only thing that
// ever calls the three output sinks. It owns no locking because it is meant
// to be driven by exactly one goroutine (subsystem.Run's event loop).
type Handler struct {
	State *ProtocolState

	Network     NetworkSink
	Provisioner ProvisionerSink
	Chain       ChainState

	Audit   *AuditLogger
	Metrics *Metrics
	Ledger  *reputation.Ledger

	Log *slog.Logger
}

// NewHandler wires a Handler around a fresh ProtocolState. Any of network,
// provisioner, audit, metrics, or ledger may be nil/omitted; those call
// sites are nil-safe. Chain and Log are called without a nil check: Chain
// whenever OurViewChange activates a relay parent, Log on every warning.
func NewHandler(network NetworkSink, provisioner ProvisionerSink, chain ChainState) *Handler {
	return &Handler{
		State:       NewProtocolState(),
		Network:     network,
		Provisioner: provisioner,
		Chain:       chain,
		Ledger:      reputation.NewLedger(),
		Log:         slog.Default(),
	}
}

func (h *Handler) reportPeer(ctx context.Context, peer PeerId, delta reputation.Delta, reason string) {
	if h.Ledger != nil {
		h.Ledger.Record(string(peer), delta)
	}
	if h.Audit != nil {
		h.Audit.ReputationDelta(peer.String(), int32(delta), reason)
	}
	if h.Metrics != nil {
		h.Metrics.ReputationDeltasTotal.WithLabelValues(reason).Inc()
	}
	if h.Network != nil {
		h.Network.ReportPeer(ctx, peer, int32(delta), reason)
	}
}

// OurViewChange evicts relay parents that fell out of the new view,
// activates newly-entered ones by querying chain state, then replaces the
// view. Cached bitfields for evicted relay parents are dropped with their
// entry; re-entering a relay parent never resurrects them — bitfields are
// not re-sent when a relay parent re-enters.
func (h *Handler) OurViewChange(ctx context.Context, newView View) {
	evicted := h.State.view.Difference(newView)
	for _, rp := range evicted {
		delete(h.State.perRelayParent, rp)
		if forgetter, ok := h.Chain.(ChainStateForgetter); ok {
			forgetter.Forget(rp)
		}
		if h.Metrics != nil {
			h.Metrics.ActiveRelayParents.Dec()
		}
		if h.Audit != nil {
			h.Audit.RelayParentDeactivated(rp.String())
		}
	}

	activated := newView.Difference(h.State.view)
	failed := make(map[Hash]struct{})
	for _, rp := range activated {
		ctxInfo, validatorSet, err := h.Chain.SessionInfo(ctx, rp)
		if err != nil {
			h.Log.Warn("chain-state query failed, skipping relay parent activation",
				"relay_parent", rp, "error", err)
			if h.Metrics != nil {
				h.Metrics.RelayParentActivationErrors.Inc()
			}
			failed[rp] = struct{}{}
			continue
		}
		span := NewNoopSpan()
		h.State.perRelayParent[rp] = newPerRelayParentData(ctxInfo, validatorSet, span)
		if h.Metrics != nil {
			h.Metrics.ActiveRelayParents.Inc()
		}
		if h.Audit != nil {
			h.Audit.RelayParentActivated(rp.String(), len(validatorSet), span.ID())
		}
	}

	// A relay parent whose activation query failed above never enters the
	// view: it has no perRelayParentData entry, and view.Contains must stay
	// false for it so PeerMessage/DistributeOwnBitfield keep rejecting it
	// instead of indexing a nil entry. It also remains absent from
	// h.State.view, so the next OurViewChange's Difference recomputation
	// naturally retries it.
	if len(failed) == 0 {
		h.State.view = newView
		return
	}
	kept := make([]Hash, 0, newView.Len())
	for _, rp := range newView.Heads() {
		if _, ok := failed[rp]; ok {
			continue
		}
		kept = append(kept, rp)
	}
	h.State.view = NewView(kept)
}

// PeerConnected records an empty view for the peer; no messages are sent.
func (h *Handler) PeerConnected(p PeerId) {
	h.State.peerViews[p] = EmptyView()
}

// PeerDisconnected forgets the peer's announced view, and discards its
// sent/received bookkeeping across every active relay parent.
func (h *Handler) PeerDisconnected(p PeerId) {
	delete(h.State.peerViews, p)
	for _, rpd := range h.State.perRelayParent {
		rpd.dropPeer(p)
	}
}

// PeerViewChange replaces the peer's announced view, then runs the catch-up path — for every relay parent
// shared between the peer's new view and our own, relay every validator's
// cached bitfield to that peer (only if it is a gossip peer, and only what it
// still needs).
func (h *Handler) PeerViewChange(ctx context.Context, p PeerId, newView View) error {
	h.State.peerViews[p] = newView

	targets := make(map[PeerId]struct{}, 1)
	if _, ok := h.State.gossipPeers[p]; ok {
		targets[p] = struct{}{}
	}

	shared := newView.Intersect(h.State.view)
	for _, rp := range shared {
		rpd := h.State.perRelayParent[rp]
		if rpd == nil {
			continue
		}
		for v, signed := range rpd.onePerValidator {
			msg := BitfieldGossipMessage{RelayParent: rp, SignedAvailability: signed}
			if err := relayToPeers(ctx, rpd, targets, h.State.peerViews, v, msg, h.Network); err != nil {
				return fmt.Errorf("catch-up relay to %s for %s: %w", p, rp, err)
			}
		}
	}
	return nil
}

// NewGossipTopology recomputes the gossip-peer set. Newly promoted gossip
// peers receive nothing retroactively; they get caught up only once they
// issue their own PeerViewChange.
func (h *Handler) NewGossipTopology(neighbors []PeerId) {
	next := make(map[PeerId]struct{}, len(neighbors))
	for _, p := range neighbors {
		next[p] = struct{}{}
	}
	h.State.gossipPeers = next
}

// PeerMessage validates and relays an incoming bitfield from a peer,
// emitting output in a fixed order (provisioner, then reputation, then
// network). Two details are worth calling out: the peer's own announced
// view is not re-checked for relay-parent membership (a peer that shrank
// its view and re-sends a bitfield it already delivered is penalized as a
// duplicate, not as not-in-view), and when the validator slot is already
// filled, an invalid signature produces no reputation penalty at all — the
// "one per validator" short-circuit fires first.
func (h *Handler) PeerMessage(ctx context.Context, p PeerId, msg BitfieldGossipMessage) error {
	if !h.State.view.Contains(msg.RelayParent) {
		h.reportPeer(ctx, p, reputation.CostNotInView, "not_in_view")
		return nil
	}

	rpd := h.State.perRelayParent[msg.RelayParent]

	if _, announced := h.State.PeerView(p); !announced {
		h.reportPeer(ctx, p, reputation.CostMissingPeerView, "missing_peer_view")
		return nil
	}

	// Note: the peer's own announced view is deliberately NOT checked for
	// whether it still contains this relay parent. A peer that has shrunk
	// its view but re-sends a bitfield it already delivered is penalized
	// as a duplicate (below), not as "not in view" — only our own view
	// (the check above) and the missing-view case gate with COST_NOT_IN_VIEW
	// / COST_MISSING_PEER_VIEW.
	v, reject := verify(msg, rpd)
	if reject == RejectInvalidIndex {
		h.reportPeer(ctx, p, reputation.CostValidatorIndexInvalid, "invalid_index")
		return nil
	}
	if reject == RejectInvalidSignature {
		// If v's slot is already filled, an invalid signature is dropped
		// with no reputation penalty at all — the "one per validator"
		// invariant means this message could never have been accepted
		// anyway, win or lose.
		if _, filled := rpd.onePerValidator[v]; filled {
			return nil
		}
		h.reportPeer(ctx, p, reputation.CostSignatureInvalid, "invalid_signature")
		return nil
	}

	if rpd.hasReceivedFrom(p, v) {
		h.reportPeer(ctx, p, reputation.CostPeerDuplicateMessage, "duplicate_message")
		return nil
	}
	rpd.receivedSet(p)[v] = struct{}{}

	if _, filled := rpd.onePerValidator[v]; filled {
		// Another peer (or an earlier message) already delivered v's
		// bitfield first; this is a valid but non-first copy.
		h.reportPeer(ctx, p, reputation.BenefitValidMessage, "valid_message")
		return nil
	}

	rpd.onePerValidator[v] = msg.SignedAvailability
	if h.Provisioner != nil {
		h.Provisioner.ProvisionableData(ctx, msg.RelayParent, msg.SignedAvailability)
	}
	if h.Metrics != nil {
		h.Metrics.BitfieldsAccepted.Inc()
	}
	h.reportPeer(ctx, p, reputation.BenefitValidMessageFirst, "valid_message_first")

	if err := relayToPeers(ctx, rpd, h.State.gossipPeers, h.State.peerViews, v, msg, h.Network); err != nil {
		return fmt.Errorf("relay from peer message: %w", err)
	}
	return nil
}

// DistributeOwnBitfield treats a locally signed bitfield as if we had just
// observed it from an internal source. No peer gets reputation credit here.
func (h *Handler) DistributeOwnBitfield(ctx context.Context, relayParent Hash, signed SignedBitfield) error {
	if !h.State.view.Contains(relayParent) {
		h.Log.Warn("dropping own bitfield for relay parent outside our view", "relay_parent", relayParent)
		return nil
	}

	rpd := h.State.perRelayParent[relayParent]
	idx := signed.ValidatorIndex
	if int(idx) >= len(rpd.validatorSet) {
		h.Log.Warn("dropping own bitfield: validator index out of range", "relay_parent", relayParent, "validator_index", idx)
		return nil
	}
	v := rpd.validatorSet[idx]

	if _, already := rpd.onePerValidator[v]; already {
		return nil
	}

	rpd.onePerValidator[v] = signed
	if h.Metrics != nil {
		h.Metrics.BitfieldsAccepted.Inc()
	}

	msg := BitfieldGossipMessage{RelayParent: relayParent, SignedAvailability: signed}
	if err := h.Relay(ctx, rpd, v, msg); err != nil {
		return fmt.Errorf("relay own bitfield: %w", err)
	}
	return nil
}

// Relay unconditionally emits the bitfield to the provisioner, then runs
// the network-only relayToPeers half. It is idempotent on the network side
// only — calling it twice for the same (validator, relay parent) emits the
// provisioner data twice (this is also DistributeOwnBitfield's local path:
// the caller is re-asserting the same known-good data) but sends over the
// network at most once.
func (h *Handler) Relay(ctx context.Context, rpd *perRelayParentData, v ValidatorID, msg BitfieldGossipMessage) error {
	if h.Provisioner != nil {
		h.Provisioner.ProvisionableData(ctx, msg.RelayParent, msg.SignedAvailability)
	}
	return relayToPeers(ctx, rpd, h.State.gossipPeers, h.State.peerViews, v, msg, h.Network)
}
