package subsystem

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// Run is the single cooperative task that owns the gossip core's
// ProtocolState: it consumes Events from inbox strictly in arrival order
// and drives Handler, applying no locking because nothing else ever touches
// h.State.
//
// Grounded on LeastAuthority-go-libp2p-pubsub's PubSub.processLoop: one
// goroutine, one select over ctx.Done() and a single inbox channel (not
// pubsub's many-channel fan-in, since every event already arrives
// pre-multiplexed into one Event union), same "process until the channel
// closes or ctx is canceled" shutdown shape.
func Run(ctx context.Context, h *gossip.Handler, inbox <-chan Event) error {
	log := h.Log
	if log == nil {
		log = slog.Default()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-inbox:
			if !ok {
				return nil
			}
			if err := dispatch(ctx, h, ev); err != nil {
				return fmt.Errorf("subsystem: fatal error processing event: %w", err)
			}
		}
	}
}

// dispatch routes one Event to the matching Handler method. Errors returned
// here are the "downstream channel closed" / fatal class; all other error
// conditions (malformed peer input, chain-state query failure) are already
// fully absorbed inside Handler as reputation deltas or log lines and never
// reach this layer as an error.
func dispatch(ctx context.Context, h *gossip.Handler, ev Event) error {
	switch {
	case ev.OurViewChange != nil:
		h.OurViewChange(ctx, *ev.OurViewChange)
		return nil

	case ev.DistributeBitfield != nil:
		req := ev.DistributeBitfield
		return h.DistributeOwnBitfield(ctx, req.RelayParent, req.Signed)

	case ev.NetworkBridge != nil:
		ne, err := FocusBridgeEvent(ev)
		if err != nil {
			return fmt.Errorf("subsystem: %w", err)
		}
		return dispatchNetworkEvent(ctx, h, ne)

	default:
		log := h.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("subsystem: received event with no populated variant")
		return nil
	}
}

func dispatchNetworkEvent(ctx context.Context, h *gossip.Handler, ne *NetworkEvent) error {
	switch ne.Kind {
	case EventPeerConnected:
		h.PeerConnected(ne.Peer)
		return nil
	case EventPeerDisconnected:
		h.PeerDisconnected(ne.Peer)
		return nil
	case EventPeerViewChange:
		return h.PeerViewChange(ctx, ne.Peer, ne.View)
	case EventPeerMessage:
		return h.PeerMessage(ctx, ne.Peer, ne.Message)
	case EventNewGossipTopology:
		h.NewGossipTopology(ne.Neighbors)
		return nil
	default:
		return fmt.Errorf("subsystem: unknown NetworkEvent kind %d", ne.Kind)
	}
}
