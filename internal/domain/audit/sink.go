// Package audit defines the best-effort audit sink contract.
package audit

import (
	"context"

	"inventra/internal/core/id"
)

// Well-known audit actions.
const (
	ActionSaleDelivered      = "sales.delivered"
	ActionAdjustmentPosted   = "adjustments.posted"
	ActionTransferDispatched = "transfers.dispatched"
	ActionTransferReceived   = "transfers.received"
	ActionCountPosted        = "stock_counts.posted"
)

// Event is one high-value business event worth an audit trail.
type Event struct {
	Action     string
	ActorID    string
	EntityType string
	EntityID   id.ID
	Payload    map[string]any
}

// Sink records audit events. Implementations are schema-optional (no-op when
// their storage is absent) and must never block business flow; callers log
// and swallow any returned error.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// NopSink discards all events. Used in tests and when auditing is disabled.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(ctx context.Context, event Event) error { return nil }

var _ Sink = NopSink{}
