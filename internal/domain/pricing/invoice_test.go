package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func testSale(buyerFee string) *entity.Sale {
	return &entity.Sale{
		ID:              1,
		BuyerFeeRate:    money.MustRate(buyerFee),
		SellerFeeRate:   money.MustRate("0.05"),
		PlatformFeeRate: money.ZeroRate,
	}
}

func soldLot(lot int, price string, sellerVAT bool) SoldLot {
	return SoldLot{
		LotNumber:        lot,
		Status:           entity.ResultStatusSold,
		HammerPrice:      money.Some(money.MustParse(price)),
		SellerID:         10,
		SellerVATSubject: sellerVAT,
	}
}

func TestComputeInvoice_ReferenceExample(t *testing.T) {
	buyer := &entity.Actor{ID: 3, Name: "Martin Paul"}

	inv, err := ComputeInvoice(testSale("0.20"), buyer, []SoldLot{soldLot(1, "1000.00", false)}, NoVATRule{})
	require.NoError(t, err)

	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "200.00", inv.Lines[0].Premium.String())
	assert.Equal(t, "1200.00", inv.Lines[0].LineTotal.String())
	assert.Equal(t, "1200.00", inv.TotalIncl.String())
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Empty(t, inv.Number)
}

func TestComputeInvoice_TaxRules(t *testing.T) {
	vat := money.MustRate("0.20")
	buyer := &entity.Actor{ID: 3, Name: "B"}

	tests := []struct {
		name      string
		rule      TaxRule
		sellerVAT bool
		base      string
		vat       string
		incl      string
	}{
		{"premium only", PremiumOnlyRule{Rate: vat}, true, "200.00", "40.00", "1240.00"},
		{"standard private seller", StandardRule{Rate: vat}, false, "200.00", "40.00", "1240.00"},
		{"standard company seller", StandardRule{Rate: vat}, true, "1200.00", "240.00", "1440.00"},
		{"no vat", NoVATRule{}, true, "0.00", "0.00", "1200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := ComputeInvoice(testSale("0.20"), buyer, []SoldLot{soldLot(1, "1000", tt.sellerVAT)}, tt.rule)
			require.NoError(t, err)

			assert.Equal(t, tt.base, inv.Lines[0].TaxableBase.String())
			assert.Equal(t, tt.vat, inv.TotalVAT.String())
			assert.Equal(t, tt.incl, inv.TotalIncl.String())
			assert.Equal(t, tt.rule.Name(), inv.TaxRule)
		})
	}
}

func TestComputeInvoice_RoundsOnceAtInvoiceLevel(t *testing.T) {
	// 3 x 0.125 premium: per-line rounding would give 0.12 x 3 = 0.36,
	// the exact sum 0.375 rounds half-even to 0.38.
	lots := []SoldLot{soldLot(1, "0.5", false), soldLot(2, "0.5", false), soldLot(3, "0.5", false)}

	inv, err := ComputeInvoice(testSale("0.25"), &entity.Actor{ID: 1}, lots, NoVATRule{})
	require.NoError(t, err)

	assert.Equal(t, "1.88", inv.TotalIncl.String())
	assert.Equal(t, "0.125", inv.Lines[0].Premium.Exact())
}

func TestComputeInvoice_MissingHammerPriceIsIntegrityError(t *testing.T) {
	lot := soldLot(7, "1", false)
	lot.HammerPrice = money.NullAmount{}

	_, err := ComputeInvoice(testSale("0.2"), &entity.Actor{ID: 1}, []SoldLot{lot}, NoVATRule{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataIntegrity))
	assert.Contains(t, err.Error(), "lot 7")
}

func TestComputeInvoice_RejectsUnsoldLot(t *testing.T) {
	lot := soldLot(2, "1", false)
	lot.Status = entity.ResultStatusUnsold

	_, err := ComputeInvoice(testSale("0.2"), &entity.Actor{ID: 1}, []SoldLot{lot}, NoVATRule{})
	assert.True(t, errors.Is(err, apperr.ErrDataIntegrity))
}

func TestRuleByName(t *testing.T) {
	rate := money.MustRate("0.2")

	rule, err := RuleByName("STANDARD", rate)
	require.NoError(t, err)
	assert.Equal(t, RuleStandard, rule.Name())

	rule, err = RuleByName("", rate)
	require.NoError(t, err)
	assert.Equal(t, RulePremiumOnly, rule.Name())

	_, err = RuleByName("flat", rate)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "FA2025-000042", FormatNumber("FA", 2025, 42))
}

func TestContentHash(t *testing.T) {
	signed := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	inv, err := ComputeInvoice(testSale("0.2"), &entity.Actor{ID: 1, Name: "B"}, []SoldLot{soldLot(1, "100", false)}, NoVATRule{})
	require.NoError(t, err)
	inv.LegalEntity = "default"
	inv.Number = "FA2025-000001"
	inv.SignatureDate = &signed
	inv.PreviousHash = GenesisHash

	h1 := ContentHash(inv)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, ContentHash(inv))

	inv.TotalIncl = money.MustParse("1")
	assert.NotEqual(t, h1, ContentHash(inv))
}
