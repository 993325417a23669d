package netbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// ProtocolID is the libp2p stream protocol this sink speaks. Grounded on the
// teacher's Service.Protocol convention ("/peerup/<name>/<version>").
const ProtocolID = protocol.ID("/bifrost/bitfield-gossip/1.0.0")

// dialTimeout bounds how long opening a stream to relay a single message may
// take before the sink gives up on that peer for this call.
const dialTimeout = 10 * time.Second

// Sink implements gossip.NetworkSink over a live libp2p host: one outbound
// stream per SendValidationMessage recipient, and reputation reports
// delivered to an injected applier (a connmgr.ConnectionGater-backed scorer,
// or any ReputationApplier implementation).
//
// Grounded on pkg/p2pnet/service.go's DialService (stream-per-call dialing)
// and pkg/p2pnet/peermanager.go's bounded-concurrency dial pattern.
type Sink struct {
	host host.Host
	log  *slog.Logger

	reputation ReputationApplier

	dialSem chan struct{}
}

// ReputationApplier is the out-of-scope "connection manager" collaborator
// that actually scores peers (e.g. a libp2p ConnectionGater, or the
// teacher-style AuditLogger-backed in-memory scorer).
type ReputationApplier interface {
	ApplyReputationDelta(peer peer.ID, delta int32, reason string)
}

// NewSink wires a Sink around a live host. maxConcurrentDials bounds how many
// SendValidationMessage fan-outs run at once; 0 selects a conservative
// default.
func NewSink(h host.Host, reputation ReputationApplier, log *slog.Logger, maxConcurrentDials int) *Sink {
	if maxConcurrentDials <= 0 {
		maxConcurrentDials = 8
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		host:       h,
		log:        log,
		reputation: reputation,
		dialSem:    make(chan struct{}, maxConcurrentDials),
	}
}

// SendValidationMessage opens one stream per peer (bounded by dialSem) and
// writes the encoded, length-prefixed message. Failures for individual peers
// are logged and do not fail the whole call — the relay primitive in
// gossip.relayToPeers treats this call as all-or-nothing bookkeeping, but a
// single unreachable peer should not block delivery to the rest.
func (s *Sink) SendValidationMessage(ctx context.Context, peers []gossip.PeerId, msg gossip.BitfieldGossipMessage) error {
	encoded, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("send validation message: encode: %w", err)
	}

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p gossip.PeerId) {
			defer wg.Done()
			s.dialSem <- struct{}{}
			defer func() { <-s.dialSem }()
			if err := s.sendTo(ctx, p, encoded); err != nil {
				s.log.Warn("failed to relay bitfield to peer", "peer", p, "error", err)
			}
		}(p)
	}
	wg.Wait()
	return nil
}

func (s *Sink) sendTo(ctx context.Context, p gossip.PeerId, encoded []byte) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	stream, err := s.host.NewStream(dialCtx, p, ProtocolID)
	if err != nil {
		return fmt.Errorf("open stream to %s: %w", p, err)
	}
	defer stream.Close()

	if err := WriteFrame(stream, encoded); err != nil {
		stream.Reset()
		return fmt.Errorf("write frame to %s: %w", p, err)
	}
	return nil
}

// ReportPeer forwards the reputation delta to the injected applier, if any.
func (s *Sink) ReportPeer(_ context.Context, p gossip.PeerId, delta int32, reason string) {
	if s.reputation == nil {
		return
	}
	s.reputation.ApplyReputationDelta(p, delta, reason)
}

// RegisterStreamHandler installs the inbound stream handler that decodes
// frames and feeds them to onMessage (normally Handler.PeerMessage).
func (s *Sink) RegisterStreamHandler(onMessage func(peer.ID, gossip.BitfieldGossipMessage)) {
	s.host.SetStreamHandler(ProtocolID, func(stream network.Stream) {
		defer stream.Close()
		remote := stream.Conn().RemotePeer()
		frame, err := ReadFrame(stream)
		if err != nil {
			s.log.Warn("failed to read bitfield frame", "peer", remote, "error", err)
			stream.Reset()
			return
		}
		msg, err := DecodeMessage(frame)
		if err != nil {
			s.log.Warn("failed to decode bitfield frame", "peer", remote, "error", err)
			return
		}
		onMessage(remote, msg)
	})
}
