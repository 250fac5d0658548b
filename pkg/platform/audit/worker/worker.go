// Package worker drains the audit inbox into the configured sinks.
package worker

import (
	"context"
	"log/slog"

	audit "custodia/pkg/platform/audit"
)

// Worker consumes audit events from a channel and fans them out to every
// sink. A failing sink is logged and skipped; audit delivery is best-effort
// by policy and must not stop the drain loop.
type Worker struct {
	inbox  <-chan audit.Event
	sinks  []audit.Store
	logger *slog.Logger
}

// New builds a worker over the inbox and sinks.
func New(inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Store) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil && w.logger != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"action", string(event.Action),
						"error", err.Error(),
					)
				}
			}
		}
	}
}
