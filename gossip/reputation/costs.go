// Package reputation holds the fixed reputation-delta table for observable
// peer behavior in bitfield gossip, plus an in-memory cumulative ledger of
// per-peer totals.
//
// Grounded on internal/reputation/history.go's per-peer bookkeeping, adapted
// from "connection history" (teacher) to "behavioral deltas" (this core).
package reputation

// Delta is a signed reputation adjustment, in abstract reputation points.
type Delta int32

// Fixed reputation costs and benefits. Magnitudes are ordered so
// that a peer sending one invalid signature or index is strictly negative,
// and a well-behaved peer (valid first or later copies, never re-sending a
// bitfield it already sent us) accumulates a strictly non-decreasing total.
const (
	// CostSignatureInvalid is charged when a peer's claimed signature fails
	// to verify against the expected public key and signing context.
	CostSignatureInvalid Delta = -100

	// CostValidatorIndexInvalid is charged when a peer's message names a
	// validator index outside the current validator set.
	CostValidatorIndexInvalid Delta = -100

	// CostMissingPeerView is charged when a peer sends a bitfield before
	// ever announcing a view.
	CostMissingPeerView Delta = -10

	// CostNotInView is charged when a peer sends a bitfield for a relay
	// parent outside our own view. The peer's own announced view is not
	// checked for the relay parent.
	CostNotInView Delta = -10

	// CostPeerDuplicateMessage is charged when a peer re-sends a bitfield
	// we already recorded as received from it, for the same validator and
	// relay parent.
	CostPeerDuplicateMessage Delta = -5

	// BenefitValidMessageFirst rewards the peer that was first to deliver a
	// valid bitfield for a given (validator, relay parent).
	BenefitValidMessageFirst Delta = 20

	// BenefitValidMessage rewards a peer that delivered a valid, but not
	// first, copy of a bitfield whose validator slot is already filled (by
	// another peer or by our own distribution).
	BenefitValidMessage Delta = 7
)
