package reconciliation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
)

func TestValidateMapping(t *testing.T) {
	rows := []MappingRow{
		{Line: 2, LotNumber: 1, SellerName: "  Dupont ", Description: " Vase "},
		{Line: 3, LotNumber: 0, SellerName: "Martin"},
		{Line: 4, LotNumber: 2, SellerName: ""},
		{Line: 5, LotNumber: 3, SellerName: "Martin"},
		{Line: 6, LotNumber: 3, SellerName: "Durand"},
		{Line: 7, LotNumber: 4, SellerName: "Durand"},
	}

	accepted, problems := ValidateMapping(rows)

	require.Len(t, accepted, 2)
	assert.Equal(t, "Dupont", accepted[0].SellerName)
	assert.Equal(t, "Vase", accepted[0].Description)
	assert.Equal(t, 4, accepted[1].LotNumber)

	require.Len(t, problems, 4)
	assert.Equal(t, apperr.Row(3), problems[0].Subject)
	assert.Equal(t, apperr.Lot(2), problems[1].Subject)
	assert.Equal(t, apperr.Lot(3), problems[2].Subject)
	for _, p := range problems {
		assert.True(t, errors.Is(p, apperr.ErrValidation))
	}
}
