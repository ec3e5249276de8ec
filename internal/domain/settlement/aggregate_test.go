package settlement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func lot(n int, seller int64, price string) SoldLot {
	return SoldLot{LotNumber: n, SellerID: seller, SellerName: "seller", HammerPrice: money.Some(money.MustParse(price))}
}

func rates(seller, platform string) Rates {
	return Rates{SellerFee: money.MustRate(seller), PlatformFee: money.MustRate(platform), CommissionVAT: money.MustRate("0.20")}
}

func TestAggregate_ReferenceExample(t *testing.T) {
	totals, err := Aggregate(rates("0.05", "0"), []SoldLot{lot(1, 10, "1000.00")})
	require.NoError(t, err)
	require.Len(t, totals, 1)

	assert.Equal(t, "1000.00", totals[0].Gross.String())
	assert.Equal(t, "50.00", totals[0].Commission.String())
	assert.Equal(t, "950.00", totals[0].Net.String())
}

func TestAggregate_OnePerSellerOrdered(t *testing.T) {
	totals, err := Aggregate(rates("0.10", "0.02"), []SoldLot{lot(1, 20, "100"), lot(2, 10, "50"), lot(3, 20, "300")})
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, int64(10), totals[0].SellerID)
	assert.Equal(t, int64(20), totals[1].SellerID)
	assert.Len(t, totals[1].Contributions, 2)
	assert.Equal(t, "352.00", totals[1].Net.String())
}

func TestAggregate_SumOfContributionsEqualsNet(t *testing.T) {
	lots := []SoldLot{lot(1, 1, "33.33"), lot(2, 1, "66.67"), lot(3, 1, "0.01"), lot(4, 1, "1234.56")}
	totals, err := Aggregate(rates("0.075", "0.015"), lots)
	require.NoError(t, err)

	sum := money.Zero
	for _, c := range totals[0].Contributions {
		sum = sum.Add(c.Net)
	}
	assert.True(t, sum.Round().Equal(totals[0].Net))
}

func TestAggregate_CommissionVATForVATSubjectSeller(t *testing.T) {
	l := lot(1, 1, "1000")
	l.SellerVATSubject = true

	totals, err := Aggregate(rates("0.10", "0"), []SoldLot{l})
	require.NoError(t, err)

	assert.Equal(t, "20.00", totals[0].CommissionVAT.String())
	assert.Equal(t, "880.00", totals[0].Net.String())
}

func TestAggregate_NegativeNetIsSurfaced(t *testing.T) {
	totals, err := Aggregate(rates("0.80", "0.30"), []SoldLot{lot(1, 1, "100")})
	require.NoError(t, err)

	assert.True(t, totals[0].Net.IsNegative())
	assert.Equal(t, "-10.00", totals[0].Net.String())
}

func TestAggregate_MissingHammerPrice(t *testing.T) {
	broken := lot(4, 1, "1")
	broken.HammerPrice = money.NullAmount{}

	_, err := Aggregate(rates("0.1", "0"), []SoldLot{broken})
	assert.True(t, errors.Is(err, apperr.ErrDataIntegrity))
	assert.Contains(t, err.Error(), "lot 4")
}

func TestCorrection(t *testing.T) {
	totals, err := Aggregate(rates("0.05", "0"), []SoldLot{lot(1, 7, "1000"), lot(2, 7, "200")})
	require.NoError(t, err)

	committed := []*entity.Settlement{{Amount: money.MustParse("950.00"), Gross: money.MustParse("1000")}}
	c := Correction(3, totals[0], committed)

	assert.Equal(t, entity.SettlementKindCorrection, c.Kind)
	assert.Equal(t, entity.SettlementStatusPending, c.Status)
	assert.Equal(t, int64(7), c.SellerID)
	assert.Equal(t, "190.00", c.Amount.String())
	assert.Equal(t, "200.00", c.Gross.String())
}

func TestToSettlement(t *testing.T) {
	totals, err := Aggregate(rates("0.05", "0"), []SoldLot{lot(1, 7, "10")})
	require.NoError(t, err)

	s := ToSettlement(2, entity.SettlementKindRegular, totals[0])
	assert.Equal(t, int64(2), s.SaleID)
	assert.Equal(t, 1, s.LotCount)
	assert.Equal(t, "9.50", s.Amount.String())
}
