// Package service holds the batch operations of the settlement engine. Every
// operation that changes state runs in one transaction and publishes its
// events only after commit.
package service

import (
	"context"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher delivers events about committed changes
type EventPublisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// publish hands evt to the publisher. The change is already committed, so a
// failing handler is logged and never reported to the caller.
func publish(ctx context.Context, publisher EventPublisher, logger Logger, evt *event.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Dispatch(ctx, evt); err != nil {
		logger.Error("Failed to publish event", "event_type", evt.Type, "resource_id", evt.ResourceID, "error", err)
	}
}

// logProblems logs every per-item problem of a batch with its subject
func logProblems(logger Logger, operation string, problems []apperr.ItemError) {
	for _, p := range problems {
		logger.Error("Batch item rejected",
			"operation", operation,
			"subject", p.Subject.String(),
			"kind", apperr.KindOf(p.Err),
			"error", p.Err,
		)
	}
}
