package gossip

import (
	"github.com/bits-and-blooms/bitset"
)

// AvailabilityBitfield is a bit vector asserting, per backed candidate at a
// relay parent, whether the signing validator considers that candidate
// available. Length equals the number of backed candidates at the relay
// parent; that length is not validated by this core (spec: downstream
// consumers enforce it).
type AvailabilityBitfield struct {
	bits *bitset.BitSet
	n    uint
}

// NewAvailabilityBitfield allocates a bitfield of the given length, all bits
// clear.
func NewAvailabilityBitfield(numCandidates uint) AvailabilityBitfield {
	return AvailabilityBitfield{bits: bitset.New(numCandidates), n: numCandidates}
}

// AvailabilityBitfieldFromBytes reconstructs a bitfield of the given bit
// length from its big-endian byte-packed wire form.
func AvailabilityBitfieldFromBytes(numCandidates uint, raw []byte) AvailabilityBitfield {
	bs := bitset.New(numCandidates)
	for i := uint(0); i < numCandidates; i++ {
		byteIdx := i / 8
		if int(byteIdx) >= len(raw) {
			break
		}
		bitIdx := 7 - (i % 8)
		if raw[byteIdx]&(1<<bitIdx) != 0 {
			bs.Set(i)
		}
	}
	return AvailabilityBitfield{bits: bs, n: numCandidates}
}

// Set marks candidate i as available.
func (b AvailabilityBitfield) Set(i uint) {
	b.bits.Set(i)
}

// Test reports whether candidate i is marked available.
func (b AvailabilityBitfield) Test(i uint) bool {
	return b.bits.Test(i)
}

// Len returns the number of candidate bits.
func (b AvailabilityBitfield) Len() uint {
	return b.n
}

// ByteLen returns the length of the packed byte representation.
func (b AvailabilityBitfield) ByteLen() int {
	return int((b.n + 7) / 8)
}

// Bytes packs the bitfield big-endian, one bit per candidate.
func (b AvailabilityBitfield) Bytes() []byte {
	out := make([]byte, b.ByteLen())
	for i := uint(0); i < b.n; i++ {
		if b.bits.Test(i) {
			out[i/8] |= 1 << (7 - (i % 8))
		}
	}
	return out
}

// Equal reports whether two bitfields carry the same length and bits.
func (b AvailabilityBitfield) Equal(other AvailabilityBitfield) bool {
	if b.n != other.n {
		return false
	}
	return b.bits.Equal(other.bits)
}
