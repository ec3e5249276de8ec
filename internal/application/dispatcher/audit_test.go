package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
)

type recordingAuditRepo struct {
	entries []*entity.AuditEntry
}

func (r *recordingAuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAuditRepo) List(ctx context.Context, resourceType string, resourceID int64, limit int) ([]*entity.AuditEntry, error) {
	return r.entries, nil
}

func TestAuditHandler(t *testing.T) {
	repo := &recordingAuditRepo{}
	d := NewDispatcher()
	d.SubscribeAll("audit", NewAuditHandler(repo))

	evt := event.NewEvent(event.TypeSettlementsExported, "sale", 9, map[string]interface{}{
		"batch_id": 3,
		"count":    2,
	})
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.EventID != evt.ID || entry.Action != "settlements.exported" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.ResourceType != "sale" || entry.ResourceID != 9 {
		t.Errorf("expected sale 9, got %s %d", entry.ResourceType, entry.ResourceID)
	}

	var details map[string]interface{}
	if err := json.Unmarshal([]byte(entry.Details), &details); err != nil {
		t.Fatalf("details are not JSON: %v", err)
	}
	if details["batch_id"] != float64(3) {
		t.Errorf("expected batch_id 3 in details, got %v", details["batch_id"])
	}
}
