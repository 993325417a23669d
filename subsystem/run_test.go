package subsystem

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

type stubNetwork struct {
	sent    int
	reports int
}

func (s *stubNetwork) SendValidationMessage(context.Context, []gossip.PeerId, gossip.BitfieldGossipMessage) error {
	s.sent++
	return nil
}

func (s *stubNetwork) ReportPeer(context.Context, gossip.PeerId, int32, string) {
	s.reports++
}

func TestRun_ShutsDownOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := gossip.NewHandler(&stubNetwork{}, nil, nil)
	inbox := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, h, inbox)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on cancellation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}

func TestRun_ShutsDownOnChannelClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := gossip.NewHandler(&stubNetwork{}, nil, nil)
	inbox := make(chan Event)

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), h, inbox)
	}()

	close(inbox)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on channel close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after inbox closed")
	}
}

func TestRun_ProcessesOurViewChange(t *testing.T) {
	net := &stubNetwork{}
	h := gossip.NewHandler(net, nil, nil)
	inbox := make(chan Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Run(ctx, h, inbox) }()

	view := gossip.EmptyView()
	inbox <- Event{OurViewChange: &view}

	// Give the loop a tick to process before asserting; Run has no
	// synchronous ack, so this just needs to not race on h.State in a way
	// the test itself introduces (only the loop goroutine touches it).
	time.Sleep(20 * time.Millisecond)
	if h.State.View().Len() != 0 {
		t.Fatalf("expected empty view, got %d relay parents", h.State.View().Len())
	}
}

func TestFocusBridgeEvent_WrongVariant(t *testing.T) {
	_, err := FocusBridgeEvent(Event{})
	if err != ErrWrongVariant {
		t.Fatalf("expected ErrWrongVariant, got %v", err)
	}
}

func TestFocusBridgeEvent_Match(t *testing.T) {
	ne := &NetworkEvent{Kind: EventPeerConnected, Peer: "peer-1"}
	got, err := FocusBridgeEvent(Event{NetworkBridge: ne})
	if err != nil {
		t.Fatalf("FocusBridgeEvent: %v", err)
	}
	if got != ne {
		t.Fatalf("expected the same NetworkEvent pointer back")
	}
}
