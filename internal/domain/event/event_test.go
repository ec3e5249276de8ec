package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeReconciliationDone.IsValid())
	assert.True(t, TypeSettlementsExported.IsValid())
	assert.False(t, Type("instance.created").IsValid())
	assert.False(t, Type("").IsValid())
	assert.Equal(t, "settlement.paid", TypeSettlementPaid.String())
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeSaleClosed, "sale", 7, nil)

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.NotEmpty(t, evt.CorrelationID)
	assert.Equal(t, "sale", evt.ResourceType)
	assert.Equal(t, int64(7), evt.ResourceID)
	assert.NotNil(t, evt.Payload)
	assert.False(t, evt.Timestamp.IsZero())

	other := NewEvent(TypeSaleClosed, "sale", 7, nil)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeInvoiceIssued, "invoice", 3, nil, "corr-1")
	assert.Equal(t, "corr-1", evt.CorrelationID)
}

func TestEvent_WithPayloadDoesNotMutateOriginal(t *testing.T) {
	original := NewEvent(TypeSettlementsComputed, "sale", 1, map[string]interface{}{"count": 2})

	updated := original.WithPayload("skipped", 1)

	assert.Len(t, original.Payload, 1)
	assert.Len(t, updated.Payload, 2)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, int64(2), updated.GetPayloadInt("count"))
	assert.Equal(t, int64(1), updated.GetPayloadInt("skipped"))
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeSettlementsExported, "sale", 1, map[string]interface{}{
		"message_id": "MSG-1",
		"count":      float64(4),
	})

	assert.Equal(t, "MSG-1", evt.GetPayloadString("message_id"))
	assert.Equal(t, "", evt.GetPayloadString("count"))
	assert.Equal(t, int64(4), evt.GetPayloadInt("count"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("missing"))
}
