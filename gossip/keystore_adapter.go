package gossip

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
)

// Keystore signs availability bitfields on behalf of one local validator.
// The gossip core only ever calls Sign, never touches key material
// directly.
//
// Grounded on internal/identity.LoadOrCreateIdentity's use of
// crypto.GenerateKeyPair / crypto.MarshalPrivateKey for libp2p-native Ed25519
// keys, reused here so a ValidatorID (a marshaled crypto.PubKey) and a
// Keystore's signing key always speak the same wire encoding.
type Keystore struct {
	priv crypto.PrivKey
	id   ValidatorID
}

// NewKeystore wraps a libp2p private key, deriving the ValidatorID a signer
// built from it will claim.
func NewKeystore(priv crypto.PrivKey) (*Keystore, error) {
	id, err := NewValidatorID(priv.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("derive validator id: %w", err)
	}
	return &Keystore{priv: priv, id: id}, nil
}

// GenerateKeystore creates a fresh Ed25519 keypair and wraps it. Used by the
// test suite; the node binary loads or creates its libp2p identity key
// separately and does not call this.
func GenerateKeystore() (*Keystore, error) {
	priv, _, err := crypto.GenerateKeyPair(crypto.Ed25519, -1)
	if err != nil {
		return nil, fmt.Errorf("generate validator keypair: %w", err)
	}
	return NewKeystore(priv)
}

// ValidatorID returns the identity this keystore signs as.
func (k *Keystore) ValidatorID() ValidatorID {
	return k.id
}

// Sign produces a SignedBitfield for the given payload under ctx, claiming
// validatorIndex as the signer's position in the relay parent's validator
// set. The caller is responsible for validatorIndex actually matching k's
// ValidatorID in the target validator set; this method has no way to check
// that, since it does not see the validator set.
func (k *Keystore) Sign(ctx SigningContext, validatorIndex uint32, payload AvailabilityBitfield) (SignedBitfield, error) {
	sig, err := k.priv.Sign(ctx.SigningPayload(payload))
	if err != nil {
		return SignedBitfield{}, fmt.Errorf("sign availability payload: %w", err)
	}
	return SignedBitfield{
		Payload:        payload,
		ValidatorIndex: validatorIndex,
		Signature:      sig,
	}, nil
}
