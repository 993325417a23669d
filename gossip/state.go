package gossip

// perRelayParentData is the per-(active relay parent) bookkeeping. It is
// created only on activation and destroyed only on deactivation; all fields
// besides the three maps are immutable for the entry's lifetime.
type perRelayParentData struct {
	signingContext SigningContext
	validatorSet   []ValidatorID

	// onePerValidator is monotonically grown: once a validator's slot is
	// filled it is never replaced (invariant 2, "first writer wins").
	onePerValidator map[ValidatorID]SignedBitfield

	messageReceivedFromPeer map[PeerId]map[ValidatorID]struct{}
	messageSentToPeer       map[PeerId]map[ValidatorID]struct{}

	span Span
}

func newPerRelayParentData(ctx SigningContext, validatorSet []ValidatorID, span Span) *perRelayParentData {
	if span == nil {
		span = NewNoopSpan()
	}
	return &perRelayParentData{
		signingContext:          ctx,
		validatorSet:            validatorSet,
		onePerValidator:         make(map[ValidatorID]SignedBitfield),
		messageReceivedFromPeer: make(map[PeerId]map[ValidatorID]struct{}),
		messageSentToPeer:       make(map[PeerId]map[ValidatorID]struct{}),
		span:                    span,
	}
}

func (rpd *perRelayParentData) receivedSet(p PeerId) map[ValidatorID]struct{} {
	s, ok := rpd.messageReceivedFromPeer[p]
	if !ok {
		s = make(map[ValidatorID]struct{})
		rpd.messageReceivedFromPeer[p] = s
	}
	return s
}

func (rpd *perRelayParentData) sentSet(p PeerId) map[ValidatorID]struct{} {
	s, ok := rpd.messageSentToPeer[p]
	if !ok {
		s = make(map[ValidatorID]struct{})
		rpd.messageSentToPeer[p] = s
	}
	return s
}

func (rpd *perRelayParentData) hasReceivedFrom(p PeerId, v ValidatorID) bool {
	_, ok := rpd.messageReceivedFromPeer[p][v]
	return ok
}

func (rpd *perRelayParentData) hasSentTo(p PeerId, v ValidatorID) bool {
	_, ok := rpd.messageSentToPeer[p][v]
	return ok
}

// dropPeer discards every bit of per-peer tracking for p, in both
// directions, across this relay parent only. Used by PeerDisconnected
// (across all relay parents, one call per entry).
func (rpd *perRelayParentData) dropPeer(p PeerId) {
	delete(rpd.messageReceivedFromPeer, p)
	delete(rpd.messageSentToPeer, p)
}

// ProtocolState is the aggregate gossip state owned by the single event-loop
// task. No locking: only that task ever touches it.
type ProtocolState struct {
	perRelayParent map[Hash]*perRelayParentData
	peerViews      map[PeerId]View
	gossipPeers    map[PeerId]struct{}
	view           View
}

// NewProtocolState returns an empty ProtocolState: no active relay parents,
// no peers, an empty own-view.
func NewProtocolState() *ProtocolState {
	return &ProtocolState{
		perRelayParent: make(map[Hash]*perRelayParentData),
		peerViews:      make(map[PeerId]View),
		gossipPeers:    make(map[PeerId]struct{}),
		view:           EmptyView(),
	}
}

// View returns our current own view.
func (s *ProtocolState) View() View { return s.view }

// PeerView returns the announced view for p and whether p has ever
// announced one (i.e. is present in peerViews — the "missing peer view"
// distinction).
func (s *ProtocolState) PeerView(p PeerId) (View, bool) {
	v, ok := s.peerViews[p]
	return v, ok
}

// IsGossipPeer reports whether p is currently in the gossip-topology
// neighborhood.
func (s *ProtocolState) IsGossipPeer(p PeerId) bool {
	_, ok := s.gossipPeers[p]
	return ok
}

// RelayParent returns the bookkeeping for h, or nil if h is not currently
// active in our view.
func (s *ProtocolState) RelayParent(h Hash) *perRelayParentData {
	return s.perRelayParent[h]
}
