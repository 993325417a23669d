package gossip

import "testing"

func newRPDFor(t *testing.T, vs []testValidator, sc SigningContext) *perRelayParentData {
	t.Helper()
	return newPerRelayParentData(sc, validatorIDs(vs), NewNoopSpan())
}

func TestVerify_Valid(t *testing.T) {
	vs := newTestValidators(t, 3)
	sc := SigningContext{SessionIndex: 1, ParentHash: testRelayParent(1)}
	rpd := newRPDFor(t, vs, sc)

	field := mustBitfield(0, 2)
	signed, err := vs[1].ks.Sign(sc, 1, field)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	msg := BitfieldGossipMessage{RelayParent: sc.ParentHash, SignedAvailability: signed}

	id, reject := verify(msg, rpd)
	if reject != RejectNone {
		t.Fatalf("expected RejectNone, got %v", reject)
	}
	if id != vs[1].id {
		t.Fatalf("expected validator 1's id, got %s", id.ShortString())
	}
}

func TestVerify_InvalidIndex(t *testing.T) {
	vs := newTestValidators(t, 2)
	sc := SigningContext{SessionIndex: 1, ParentHash: testRelayParent(1)}
	rpd := newRPDFor(t, vs, sc)

	signed, err := vs[0].ks.Sign(sc, 5, mustBitfield(0))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	msg := BitfieldGossipMessage{RelayParent: sc.ParentHash, SignedAvailability: signed}

	id, reject := verify(msg, rpd)
	if reject != RejectInvalidIndex {
		t.Fatalf("expected RejectInvalidIndex, got %v", reject)
	}
	if id != "" {
		t.Fatalf("expected empty id on invalid index, got %s", id.ShortString())
	}
}

func TestVerify_InvalidSignature(t *testing.T) {
	vs := newTestValidators(t, 2)
	sc := SigningContext{SessionIndex: 1, ParentHash: testRelayParent(1)}
	rpd := newRPDFor(t, vs, sc)

	// Signed by validator 1's key, but claims to be validator 0.
	signed, err := vs[1].ks.Sign(sc, 0, mustBitfield(0))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	msg := BitfieldGossipMessage{RelayParent: sc.ParentHash, SignedAvailability: signed}

	id, reject := verify(msg, rpd)
	if reject != RejectInvalidSignature {
		t.Fatalf("expected RejectInvalidSignature, got %v", reject)
	}
	// The identity resolved from the claimed index is still returned, since
	// the handler needs it to check whether that slot is already filled.
	if id != vs[0].id {
		t.Fatalf("expected validator 0's id even on bad signature, got %s", id.ShortString())
	}
}

func TestVerify_WrongSigningContext(t *testing.T) {
	vs := newTestValidators(t, 1)
	sc := SigningContext{SessionIndex: 1, ParentHash: testRelayParent(1)}
	rpd := newRPDFor(t, vs, sc)

	otherSC := SigningContext{SessionIndex: 2, ParentHash: testRelayParent(9)}
	signed, err := vs[0].ks.Sign(otherSC, 0, mustBitfield(0))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	msg := BitfieldGossipMessage{RelayParent: sc.ParentHash, SignedAvailability: signed}

	_, reject := verify(msg, rpd)
	if reject != RejectInvalidSignature {
		t.Fatalf("expected signature mismatch across signing contexts, got %v", reject)
	}
}
