package audit

import (
	"context"
	"log/slog"
	"time"
)

// ChannelEmitter buffers events onto a channel drained by the worker. A full
// buffer drops the event with a log line rather than stalling the business
// operation; the ledger, not the audit trail, is the system of record.
type ChannelEmitter struct {
	events chan<- Event
	logger *slog.Logger
}

// NewChannelEmitter wraps the worker's inbox channel.
func NewChannelEmitter(events chan<- Event, logger *slog.Logger) *ChannelEmitter {
	return &ChannelEmitter{events: events, logger: logger}
}

// Emit enqueues the event, stamping the timestamp when unset.
func (e *ChannelEmitter) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case e.events <- event:
	default:
		if e.logger != nil {
			e.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", string(event.Action),
			)
		}
	}
}

// NopEmitter discards events. Used in tests and in dev mode without an audit
// backend.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}
