package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
)

// NewAuditHandler returns a handler that appends every event to the audit trail.
// The event ID is the idempotency key, so redelivery does not duplicate rows.
func NewAuditHandler(repo port.AuditRepository) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		entry, err := AuditEntryFor(evt)
		if err != nil {
			return err
		}
		return repo.Append(ctx, entry)
	}
}

// AuditEntryFor converts an event to its audit row
func AuditEntryFor(evt *event.Event) (*entity.AuditEntry, error) {
	details, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit details for %s: %w", evt.Type, err)
	}

	return &entity.AuditEntry{
		EventID:       evt.ID,
		Timestamp:     evt.Timestamp,
		Action:        evt.Type.String(),
		ResourceType:  evt.ResourceType,
		ResourceID:    evt.ResourceID,
		Details:       string(details),
		CorrelationID: evt.CorrelationID,
	}, nil
}
