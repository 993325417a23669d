package gossip

// RejectReason enumerates why an incoming BitfieldGossipMessage failed
// validation. RejectNone indicates the message verified and yielded a
// ValidatorID.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectInvalidIndex
	RejectInvalidSignature
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectInvalidIndex:
		return "invalid_index"
	case RejectInvalidSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// verify performs the stateless checks on an incoming message:
//  1. validator_index must be in range of rpd's validator set.
//  2. the resolved public key must verify the signature against rpd's
//     signing context.
//
// The resolved ValidatorID is returned even when the signature check fails
// (RejectInvalidSignature), since index resolution does not depend on the
// signature — callers need the identity either way to apply the "one per
// validator" short-circuit: an invalid signature for an already-filled slot
// is dropped without comment, and distinguishing that case from a genuinely
// new slot requires knowing which validator the index named.
//
// Bit-length of the availability vector is deliberately not checked here;
// downstream consumers enforce it.
func verify(msg BitfieldGossipMessage, rpd *perRelayParentData) (ValidatorID, RejectReason) {
	idx := msg.SignedAvailability.ValidatorIndex
	if int(idx) >= len(rpd.validatorSet) {
		return "", RejectInvalidIndex
	}
	expected := rpd.validatorSet[idx]

	pub, err := expected.PubKey()
	if err != nil {
		return expected, RejectInvalidSignature
	}

	ok, err := msg.SignedAvailability.Verify(rpd.signingContext, pub)
	if err != nil || !ok {
		return expected, RejectInvalidSignature
	}

	return expected, RejectNone
}
