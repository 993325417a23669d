package gossip

import (
	"context"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// fakeNetwork is an in-memory NetworkSink recorder used throughout the test
// suite. It never errors; callers inspect Sent/Reports after the fact.
type fakeNetwork struct {
	Sent    []sentCall
	Reports []reportCall
}

type sentCall struct {
	Peers []PeerId
	Msg   BitfieldGossipMessage
}

type reportCall struct {
	Peer   PeerId
	Delta  int32
	Reason string
}

func (f *fakeNetwork) SendValidationMessage(_ context.Context, peers []PeerId, msg BitfieldGossipMessage) error {
	cp := make([]PeerId, len(peers))
	copy(cp, peers)
	f.Sent = append(f.Sent, sentCall{Peers: cp, Msg: msg})
	return nil
}

func (f *fakeNetwork) ReportPeer(_ context.Context, peer PeerId, delta int32, reason string) {
	f.Reports = append(f.Reports, reportCall{Peer: peer, Delta: delta, Reason: reason})
}

// fakeProvisioner is an in-memory ProvisionerSink recorder.
type fakeProvisioner struct {
	Emitted []SignedBitfield
}

func (f *fakeProvisioner) ProvisionableData(_ context.Context, _ Hash, signed SignedBitfield) {
	f.Emitted = append(f.Emitted, signed)
}

// fakeChainState serves a fixed SigningContext/validator set for whatever
// relay parent it is asked about, regardless of the hash given.
type fakeChainState struct {
	ctx          SigningContext
	validatorSet []ValidatorID
	err          error
}

func (f *fakeChainState) SessionInfo(_ context.Context, _ Hash) (SigningContext, []ValidatorID, error) {
	if f.err != nil {
		return SigningContext{}, nil, f.err
	}
	return f.ctx, f.validatorSet, nil
}

// testValidator bundles a Keystore with its resolved identity, for building
// validator sets and signing test messages.
type testValidator struct {
	ks *Keystore
	id ValidatorID
}

func newTestValidators(t *testing.T, n int) []testValidator {
	t.Helper()
	out := make([]testValidator, n)
	for i := range out {
		ks, err := GenerateKeystore()
		if err != nil {
			t.Fatalf("generate validator %d: %v", i, err)
		}
		out[i] = testValidator{ks: ks, id: ks.ValidatorID()}
	}
	return out
}

func validatorIDs(vs []testValidator) []ValidatorID {
	out := make([]ValidatorID, len(vs))
	for i, v := range vs {
		out[i] = v.id
	}
	return out
}

func newTestPeerID(t *testing.T) PeerId {
	t.Helper()
	_, pub, err := crypto.GenerateKeyPair(crypto.Ed25519, -1)
	if err != nil {
		t.Fatalf("generate peer key: %v", err)
	}
	id, err := peer.IDFromPublicKey(pub)
	if err != nil {
		t.Fatalf("derive peer id: %v", err)
	}
	return id
}

func testRelayParent(seed byte) Hash {
	var h Hash
	h[0] = seed
	return h
}

func mustBitfield(bits ...uint) AvailabilityBitfield {
	var maxBit uint
	for _, b := range bits {
		if b+1 > maxBit {
			maxBit = b + 1
		}
	}
	if maxBit == 0 {
		maxBit = 1
	}
	field := NewAvailabilityBitfield(maxBit)
	for _, b := range bits {
		field.Set(b)
	}
	return field
}
