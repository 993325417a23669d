package gossip

import "github.com/google/uuid"

// Span is an observability handle attached to PerRelayParentData. It mirrors
// the no-op-capable shape of pkg/p2pnet's AuditLogger: every method of the
// noop Span is safe to call and does nothing beyond returning IDs. A nil
// Span interface value is not usable; newPerRelayParentData substitutes a
// noop Span for nil.
type Span interface {
	// ID is a stable correlation identifier for this span, suitable for
	// tying audit log lines for the same relay-parent activation together.
	ID() string
	Child(name string) Span
	SetTag(key string, value any)
	Finish()
}

// noopSpan discards SetTag/Finish but still carries a real ID, so audit
// log lines can correlate events for one relay-parent activation even
// with tracing disabled.
type noopSpan struct {
	id string
}

// NewNoopSpan returns a Span that discards tags and timing but still
// generates a unique correlation ID. Used whenever a real tracer isn't
// wired in (the default).
func NewNoopSpan() Span { return noopSpan{id: uuid.NewString()} }

func (s noopSpan) ID() string        { return s.id }
func (s noopSpan) Child(string) Span { return noopSpan{id: uuid.NewString()} }
func (noopSpan) SetTag(string, any)  {}
func (noopSpan) Finish()             {}
