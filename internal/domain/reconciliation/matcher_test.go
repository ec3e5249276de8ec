package reconciliation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func mapping(lot int, sellerID int64, seller string) *entity.LotMapping {
	return &entity.LotMapping{SaleID: 1, LotNumber: lot, SellerID: sellerID, SellerName: seller, Description: "lot " + seller}
}

func sold(line, lot int, price string) ImportedRow {
	return ImportedRow{Line: line, LotNumber: lot, Sold: true, HammerPrice: money.Some(money.MustParse(price))}
}

func TestMatch_ReferenceExample(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "Seller A"), mapping(2, 20, "Seller B")}
	rows := []ImportedRow{sold(2, 1, "1000"), sold(3, 3, "500")}

	report, err := Match(mappings, rows)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	first, ok := report.Outcomes[0].(Sold)
	require.True(t, ok, "lot 1 should be sold")
	assert.Equal(t, 1, first.LotNumber)
	assert.True(t, first.HammerPrice.Equal(money.MustParse("1000")))
	assert.Equal(t, int64(10), first.SellerID)
	assert.Equal(t, "Seller A", first.SellerName)

	second, ok := report.Outcomes[1].(Anomaly)
	require.True(t, ok)
	assert.Equal(t, 2, second.LotNumber)
	assert.Equal(t, entity.AnomalyMissingResult, second.Reason)
	require.NotNil(t, second.SellerID)
	assert.Equal(t, int64(20), *second.SellerID)

	third, ok := report.Outcomes[2].(Anomaly)
	require.True(t, ok)
	assert.Equal(t, 3, third.LotNumber)
	assert.Equal(t, entity.AnomalyUnmappedLot, third.Reason)
	assert.Nil(t, third.SellerID)
	assert.True(t, third.HammerPrice.Valid)
}

func TestMatch_CompleteImportCoversEveryMappedLot(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A"), mapping(2, 10, "A"), mapping(3, 20, "B")}
	rows := []ImportedRow{sold(1, 3, "12.5"), {Line: 2, LotNumber: 1}, sold(3, 2, "80")}

	report, err := Match(mappings, rows)
	require.NoError(t, err)

	var lots []int
	for _, o := range report.Outcomes {
		lots = append(lots, o.Lot())
	}
	assert.Equal(t, []int{1, 2, 3}, lots)
	assert.Equal(t, map[string]int{entity.ResultStatusSold: 2, entity.ResultStatusUnsold: 1}, report.Counts())
	assert.Empty(t, report.Problems)
}

func TestMatch_Idempotent(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A"), mapping(2, 20, "B")}
	rows := []ImportedRow{sold(1, 2, "10"), sold(2, 1, "20"), sold(3, 7, "1")}

	first, err := Match(mappings, rows)
	require.NoError(t, err)
	second, err := Match(mappings, rows)
	require.NoError(t, err)

	assert.Equal(t, first.Outcomes, second.Outcomes)
}

func TestMatch_DuplicateKeepsLastRow(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A")}
	rows := []ImportedRow{sold(1, 1, "100"), sold(2, 1, "150")}

	report, err := Match(mappings, rows)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	dup, ok := report.Outcomes[0].(Anomaly)
	require.True(t, ok)
	assert.Equal(t, entity.AnomalyDuplicate, dup.Reason)
	assert.True(t, dup.HammerPrice.Amount.Equal(money.MustParse("150")))
	require.Len(t, report.Problems, 1)
	assert.Equal(t, apperr.Lot(1), report.Problems[0].Subject)
}

func TestMatch_InvalidRows(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A"), mapping(2, 20, "B")}
	rows := []ImportedRow{
		{Line: 2, LotNumber: 1, Sold: true},
		{Line: 3, LotNumber: 0, Sold: true, HammerPrice: money.Some(money.MustParse("5"))},
		sold(4, 2, "40"),
	}

	report, err := Match(mappings, rows)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)

	invalid, ok := report.Outcomes[0].(Anomaly)
	require.True(t, ok)
	assert.Equal(t, entity.AnomalyInvalidRow, invalid.Reason)

	_, ok = report.Outcomes[1].(Sold)
	assert.True(t, ok)

	require.Len(t, report.Problems, 2)
	for _, p := range report.Problems {
		assert.True(t, errors.Is(p, apperr.ErrValidation))
	}
	assert.Equal(t, 1, report.ValidRows)
}

func TestMatch_NegativeHammerPriceIsInvalid(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A"), mapping(2, 10, "A")}
	rows := []ImportedRow{sold(1, 1, "-3"), sold(2, 2, "3")}

	report, err := Match(mappings, rows)
	require.NoError(t, err)
	assert.Equal(t, entity.ResultStatusAnomaly, report.Outcomes[0].Status())
	assert.Contains(t, report.Problems[0].Error(), "lot 1")
}

func TestMatch_RejectsEmptyAndAllInvalidImports(t *testing.T) {
	mappings := []*entity.LotMapping{mapping(1, 10, "A")}

	_, err := Match(mappings, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = Match(mappings, []ImportedRow{{Line: 2, LotNumber: 1, Sold: true}, {Line: 3, LotNumber: -1}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestToResult(t *testing.T) {
	r := ToResult(9, Sold{LotNumber: 4, HammerPrice: money.MustParse("10"), SellerID: 3, SellerName: "S",
		Buyer: BuyerRef{LastName: "Martin", FirstName: "Paul"}})

	assert.Equal(t, int64(9), r.SaleID)
	assert.Equal(t, entity.ResultStatusSold, r.Status)
	assert.True(t, r.HammerPrice.Valid)
	require.NotNil(t, r.SellerID)
	assert.Equal(t, int64(3), *r.SellerID)
	assert.Equal(t, "Martin Paul", r.BuyerName)

	u := ToResult(9, Unsold{LotNumber: 5, SellerID: 3})
	assert.False(t, u.HammerPrice.Valid)
	assert.Empty(t, u.AnomalyReason)

	a := ToResult(9, Anomaly{LotNumber: 6, Reason: entity.AnomalyUnmappedLot})
	assert.Nil(t, a.SellerID)
	assert.Equal(t, entity.AnomalyUnmappedLot, a.AnomalyReason)
}

func TestBuyerRef_FullName(t *testing.T) {
	assert.Equal(t, "Durand Marie", BuyerRef{LastName: " Durand", FirstName: "Marie "}.FullName())
	assert.Equal(t, "B-42", BuyerRef{Code: "B-42"}.FullName())
	assert.True(t, BuyerRef{}.IsEmpty())
	assert.False(t, BuyerRef{Email: "a@b.fr"}.IsEmpty())
}
