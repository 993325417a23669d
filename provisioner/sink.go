// Package provisioner implements the gossip core's downstream
// ProvisionerSink: a bounded-channel hand-off to whatever block-authoring
// pipeline ultimately consumes first-seen availability bitfields.
package provisioner

import (
	"context"
	"log/slog"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// Bitfield pairs a relay parent with the first-seen signed bitfield observed
// for it.
type Bitfield struct {
	RelayParent gossip.Hash
	Signed      gossip.SignedBitfield
}

// ChannelSink implements gossip.ProvisionerSink with a bounded channel. A
// full channel applies backpressure to the caller (the single-goroutine
// event loop) rather than dropping data; only ctx cancellation cuts a
// blocked send short.
//
// Grounded on pkg/p2pnet's bounded-channel event fan-out pattern (see
// peermanager.go's watch channel), generalized from "connectivity events" to
// "provisionable bitfields."
type ChannelSink struct {
	out chan Bitfield
	log *slog.Logger
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(capacity int, log *slog.Logger) *ChannelSink {
	if capacity <= 0 {
		capacity = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChannelSink{out: make(chan Bitfield, capacity), log: log}
}

// Output exposes the channel for the downstream consumer to range over.
func (c *ChannelSink) Output() <-chan Bitfield {
	return c.out
}

// ProvisionableData implements gossip.ProvisionerSink. It blocks until the
// channel has room — an acceptable suspension point for the single-goroutine
// event loop — and only gives up early if ctx is canceled.
func (c *ChannelSink) ProvisionableData(ctx context.Context, relayParent gossip.Hash, signed gossip.SignedBitfield) {
	item := Bitfield{RelayParent: relayParent, Signed: signed}
	select {
	case c.out <- item:
	case <-ctx.Done():
		c.log.Warn("dropping provisionable bitfield: context canceled", "relay_parent", relayParent)
	}
}

// Close closes the output channel. Call only after the gossip event loop has
// stopped calling ProvisionableData.
func (c *ChannelSink) Close() {
	close(c.out)
}
