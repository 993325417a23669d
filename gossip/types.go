// Package gossip implements the availability-bitfield gossip distribution
// core: the state machine that validates incoming bitfields, relays each
// exactly once per peer per direction, and feeds first-seen bitfields to the
// block-production pipeline.
package gossip

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerId identifies a connected network peer. It is the libp2p peer ID type
// directly, the same identifier pkg/p2pnet keys its peer maps on.
type PeerId = peer.ID

// Hash is a relay-parent identifier: the 32-byte block hash a bitfield is
// signed against.
type Hash [32]byte

// String renders the hash as hex for logging.
func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// ValidatorID is the marshaled public key of a validator in the current
// session, stored as its canonical libp2p wire encoding so it is directly
// usable as a map key and for equality comparisons.
type ValidatorID string

// NewValidatorID derives a ValidatorID from a public key.
func NewValidatorID(pub crypto.PubKey) (ValidatorID, error) {
	raw, err := crypto.MarshalPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal validator public key: %w", err)
	}
	return ValidatorID(raw), nil
}

// PubKey recovers the crypto.PubKey this ValidatorID was derived from.
func (v ValidatorID) PubKey() (crypto.PubKey, error) {
	pub, err := crypto.UnmarshalPublicKey([]byte(v))
	if err != nil {
		return nil, fmt.Errorf("unmarshal validator public key: %w", err)
	}
	return pub, nil
}

// ShortString truncates a ValidatorID for log lines.
func (v ValidatorID) ShortString() string {
	if len(v) <= 8 {
		return string(v)
	}
	return fmt.Sprintf("%x…", []byte(v)[:8])
}

// SigningContext binds a signature to a specific session and relay parent.
// Included (implicitly, by being mixed into the signed payload) in every
// SignedBitfield.
type SigningContext struct {
	SessionIndex uint64
	ParentHash   Hash
}

// SigningPayload returns the exact bytes that must be signed: the session
// index, the parent hash, and the bitfield bytes, concatenated. Both the
// keystore adapter and the Validator build this payload so they always agree
// on what was actually signed.
func (sc SigningContext) SigningPayload(field AvailabilityBitfield) []byte {
	buf := make([]byte, 0, 8+32+field.ByteLen())
	buf = appendUint64(buf, sc.SessionIndex)
	buf = append(buf, sc.ParentHash[:]...)
	buf = append(buf, field.Bytes()...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(56-8*i)))
	}
	return buf
}
