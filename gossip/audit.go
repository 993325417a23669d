package gossip

import (
	"log/slog"
)

// AuditLogger writes structured audit events for reputation-relevant
// actions. All methods are nil-safe: calling any method on a nil
// *AuditLogger is a no-op, so call sites never need a nil check.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an AuditLogger that writes to the given handler.
// All audit events are written under the "audit" group for easy filtering.
func NewAuditLogger(handler slog.Handler) *AuditLogger {
	return &AuditLogger{
		logger: slog.New(handler).WithGroup("audit"),
	}
}

// ReputationDelta logs a single reputation adjustment applied to a peer.
func (a *AuditLogger) ReputationDelta(peerID string, delta int32, reason string) {
	if a == nil {
		return
	}
	a.logger.Info("reputation_delta",
		"peer", peerID,
		"delta", delta,
		"reason", reason,
	)
}

// RelayParentActivated logs a relay parent entering our view. spanID
// correlates this line with later audit events for the same activation.
func (a *AuditLogger) RelayParentActivated(relayParent string, validatorCount int, spanID string) {
	if a == nil {
		return
	}
	a.logger.Info("relay_parent_activated",
		"relay_parent", relayParent,
		"validator_count", validatorCount,
		"span_id", spanID,
	)
}

// RelayParentDeactivated logs a relay parent leaving our view.
func (a *AuditLogger) RelayParentDeactivated(relayParent string) {
	if a == nil {
		return
	}
	a.logger.Info("relay_parent_deactivated",
		"relay_parent", relayParent,
	)
}
