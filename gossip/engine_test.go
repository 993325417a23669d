package gossip

import (
	"context"
	"testing"
)

func setupRelayFixture(t *testing.T, n int) (vs []testValidator, rp Hash, rpd *perRelayParentData, gossipPeers map[PeerId]struct{}, peerViews map[PeerId]View) {
	t.Helper()
	vs = newTestValidators(t, n)
	rp = testRelayParent(1)
	sc := SigningContext{SessionIndex: 1, ParentHash: rp}
	rpd = newPerRelayParentData(sc, validatorIDs(vs), NewNoopSpan())

	a := newTestPeerID(t)
	b := newTestPeerID(t)
	gossipPeers = map[PeerId]struct{}{a: {}, b: {}}
	peerViews = map[PeerId]View{
		a: NewView([]Hash{rp}),
		b: NewView([]Hash{rp}),
	}
	return
}

func TestRelayToPeers_SendsToInterestedOnly(t *testing.T) {
	vs, rp, rpd, gossipPeers, peerViews := setupRelayFixture(t, 2)

	var a, b PeerId
	for p := range gossipPeers {
		if a == "" {
			a = p
		} else {
			b = p
		}
	}
	// b has not announced the relay parent in view; only a is interested.
	peerViews[b] = EmptyView()

	net := &fakeNetwork{}
	signed := mustSignedFor(t, vs[0], SigningContext{SessionIndex: 1, ParentHash: rp}, 0, mustBitfield(0))
	msg := BitfieldGossipMessage{RelayParent: rp, SignedAvailability: signed}

	if err := relayToPeers(context.Background(), rpd, gossipPeers, peerViews, vs[0].id, msg, net); err != nil {
		t.Fatalf("relayToPeers: %v", err)
	}
	if len(net.Sent) != 1 {
		t.Fatalf("expected exactly one send call, got %d", len(net.Sent))
	}
	if len(net.Sent[0].Peers) != 1 || net.Sent[0].Peers[0] != a {
		t.Fatalf("expected send to a only, got %v", net.Sent[0].Peers)
	}
}

func TestRelayToPeers_IdempotentOnSecondCall(t *testing.T) {
	vs, rp, rpd, gossipPeers, peerViews := setupRelayFixture(t, 1)
	net := &fakeNetwork{}
	signed := mustSignedFor(t, vs[0], SigningContext{SessionIndex: 1, ParentHash: rp}, 0, mustBitfield(0))
	msg := BitfieldGossipMessage{RelayParent: rp, SignedAvailability: signed}

	if err := relayToPeers(context.Background(), rpd, gossipPeers, peerViews, vs[0].id, msg, net); err != nil {
		t.Fatalf("first relayToPeers: %v", err)
	}
	firstSends := len(net.Sent)
	if firstSends == 0 {
		t.Fatalf("expected at least one send on first call")
	}

	if err := relayToPeers(context.Background(), rpd, gossipPeers, peerViews, vs[0].id, msg, net); err != nil {
		t.Fatalf("second relayToPeers: %v", err)
	}
	if len(net.Sent) != firstSends {
		t.Fatalf("expected no additional sends on second call, had %d now %d", firstSends, len(net.Sent))
	}
}

func TestRelayToPeers_NeverSendsBackToOrigin(t *testing.T) {
	vs, rp, rpd, gossipPeers, peerViews := setupRelayFixture(t, 1)
	var origin PeerId
	for p := range gossipPeers {
		origin = p
		break
	}
	// Mark v's bitfield as already received from origin, as PeerMessage
	// would before ever calling relayToPeers.
	rpd.receivedSet(origin)[vs[0].id] = struct{}{}

	net := &fakeNetwork{}
	signed := mustSignedFor(t, vs[0], SigningContext{SessionIndex: 1, ParentHash: rp}, 0, mustBitfield(0))
	msg := BitfieldGossipMessage{RelayParent: rp, SignedAvailability: signed}

	if err := relayToPeers(context.Background(), rpd, gossipPeers, peerViews, vs[0].id, msg, net); err != nil {
		t.Fatalf("relayToPeers: %v", err)
	}
	for _, call := range net.Sent {
		for _, p := range call.Peers {
			if p == origin {
				t.Fatalf("relayToPeers sent back to origin peer")
			}
		}
	}
}

func mustSignedFor(t *testing.T, v testValidator, sc SigningContext, idx uint32, field AvailabilityBitfield) SignedBitfield {
	t.Helper()
	signed, err := v.ks.Sign(sc, idx, field)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}
