// Package chainstate implements the gossip core's ChainState collaborator:
// resolving the signing context and validator set for a newly activated
// relay parent. The real source is a relay-chain runtime API client; this
// adapter is a thin, swappable facade plus an in-memory per-relay-parent
// cache. Entries are dropped by Forget, which OurViewChange calls on
// eviction, so a relay parent that re-enters the view is queried again.
package chainstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// SessionInfoSource is the actual out-of-process oracle (a runtime API
// client, a test fixture, or a gRPC facade to the relay-chain client). The
// adapter below is the only thing that ever queries it directly.
type SessionInfoSource interface {
	SessionInfo(ctx context.Context, relayParent gossip.Hash) (gossip.SigningContext, []gossip.ValidatorID, error)
}

// Adapter implements gossip.ChainState over a SessionInfoSource, caching
// results per relay parent until Forget evicts them. Grounded on the
// teacher's identity.LoadOrCreateIdentity "resolve once, cache forever"
// posture for per-key state that does not change within a session.
type Adapter struct {
	source SessionInfoSource

	mu    sync.Mutex
	cache map[gossip.Hash]cachedEntry
}

type cachedEntry struct {
	ctx          gossip.SigningContext
	validatorSet []gossip.ValidatorID
}

// NewAdapter wraps source with a cache.
func NewAdapter(source SessionInfoSource) *Adapter {
	return &Adapter{
		source: source,
		cache:  make(map[gossip.Hash]cachedEntry),
	}
}

// SessionInfo implements gossip.ChainState.
func (a *Adapter) SessionInfo(ctx context.Context, relayParent gossip.Hash) (gossip.SigningContext, []gossip.ValidatorID, error) {
	a.mu.Lock()
	if cached, ok := a.cache[relayParent]; ok {
		a.mu.Unlock()
		return cached.ctx, cached.validatorSet, nil
	}
	a.mu.Unlock()

	sc, validatorSet, err := a.source.SessionInfo(ctx, relayParent)
	if err != nil {
		return gossip.SigningContext{}, nil, fmt.Errorf("chainstate: query session info for %s: %w", relayParent, err)
	}

	a.mu.Lock()
	a.cache[relayParent] = cachedEntry{ctx: sc, validatorSet: validatorSet}
	a.mu.Unlock()

	return sc, validatorSet, nil
}

// Forget evicts a relay parent's cached session info. Implements
// gossip.ChainStateForgetter; OurViewChange calls this for every evicted
// relay parent so the cache doesn't grow unbounded over the life of a
// long-running node.
func (a *Adapter) Forget(relayParent gossip.Hash) {
	a.mu.Lock()
	delete(a.cache, relayParent)
	a.mu.Unlock()
}
