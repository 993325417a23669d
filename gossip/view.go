package gossip

// MaxViewSize bounds how many relay parents a View may track at once. The
// bound is exposed as a variable rather than a constant so
// config.GossipConfig can override it per deployment.
var MaxViewSize = 32

// View is the ordered set of relay-parent hashes a participant (us, or a
// peer) currently considers active.
type View struct {
	order []Hash
	set   map[Hash]struct{}
}

// NewView builds a View from a slice of relay parents, truncating to
// MaxViewSize and de-duplicating while preserving order.
func NewView(heads []Hash) View {
	v := View{set: make(map[Hash]struct{}, len(heads))}
	for _, h := range heads {
		if _, ok := v.set[h]; ok {
			continue
		}
		if len(v.order) >= MaxViewSize {
			break
		}
		v.set[h] = struct{}{}
		v.order = append(v.order, h)
	}
	return v
}

// EmptyView is the zero-relay-parent view assigned to a freshly connected
// peer.
func EmptyView() View { return NewView(nil) }

// Contains reports whether h is in the view.
func (v View) Contains(h Hash) bool {
	_, ok := v.set[h]
	return ok
}

// Heads returns the relay parents in the view, in insertion order.
func (v View) Heads() []Hash {
	return v.order
}

// Len returns the number of relay parents tracked.
func (v View) Len() int { return len(v.order) }

// Difference returns the relay parents present in v but not in other —
// used by OurViewChange to find evicted/newly-activated heads.
func (v View) Difference(other View) []Hash {
	var out []Hash
	for _, h := range v.order {
		if !other.Contains(h) {
			out = append(out, h)
		}
	}
	return out
}

// Intersect returns the relay parents present in both views, in v's order —
// used by PeerViewChange's catch-up path.
func (v View) Intersect(other View) []Hash {
	var out []Hash
	for _, h := range v.order {
		if other.Contains(h) {
			out = append(out, h)
		}
	}
	return out
}
