package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_NamesSubject(t *testing.T) {
	err := Validation(Lot(12), "missing hammer price")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrPrecondition))
	assert.Equal(t, "validation error: lot 12: missing hammer price", err.Error())

	subject, ok := SubjectOf(fmt.Errorf("import failed: %w", err))
	require.True(t, ok)
	assert.Equal(t, Lot(12), subject)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation(Row(2), "x"), "validation"},
		{Precondition(Sale(1), "x"), "precondition"},
		{DataIntegrity(Lot(1), "x"), "data_integrity"},
		{ImmutableState(Settlement(3), "x"), "immutable_state"},
		{ConcurrencyConflict(Sale(1), "x"), "concurrency_conflict"},
		{NotFound(Invoice(9)), "not_found"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ConcurrencyConflict(Sale(1), "locked")))
	assert.False(t, Retryable(ImmutableState(Settlement(1), "exported")))
}

func TestItemError_MarshalJSON(t *testing.T) {
	item := Item(ImmutableState(Seller(5), "settlement already exported"))

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "immutable_state", decoded["kind"])
	assert.Equal(t, map[string]interface{}{"kind": "seller", "id": "5"}, decoded["subject"])
	assert.Contains(t, decoded["message"], "seller 5")
}
