package facturx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func issuedInvoice() *entity.Invoice {
	signed := time.Date(2026, 3, 16, 14, 5, 0, 0, time.UTC)
	return &entity.Invoice{
		ID:            7,
		BuyerName:     "Durand & Fils",
		LegalEntity:   "Auctify SAS",
		Number:        "FA2026-000007",
		TaxRule:       "PremiumOnly",
		TotalExcl:     money.MustParse("125.00"),
		TotalVAT:      money.MustParse("5.00"),
		TotalIncl:     money.MustParse("130.00"),
		Status:        entity.InvoiceStatusIssued,
		SignatureDate: &signed,
		Lines: []*entity.InvoiceLine{
			{
				LotNumber:   12,
				Description: "Commode Louis XV",
				HammerPrice: money.MustParse("100.00"),
				Premium:     money.MustParse("25.00"),
				LineTotal:   money.MustParse("125.00"),
				TaxableBase: money.MustParse("25.00"),
				VATRate:     money.MustRate("0.20"),
				VAT:         money.MustParse("5.00"),
			},
		},
	}
}

func issuer() entity.CompanyProfile {
	return entity.CompanyProfile{
		LegalName: "Auctify SAS",
		SIRET:     "123 456 789 00012",
		IBAN:      "fr76 3000 6000 0112 3456 7890 189",
		BIC:       "bnparfxx",
	}
}

func wellFormed(t *testing.T, out []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestEncoder_Encode(t *testing.T) {
	out, err := NewEncoder().Encode(issuedInvoice(), issuer())
	require.NoError(t, err)
	wellFormed(t, out)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, xml.Header))
	assert.Contains(t, text, `<rsm:CrossIndustryInvoice xmlns:rsm="`+NamespaceRSM+`"`)
	assert.Contains(t, text, `<ram:ID>`+Guideline+`</ram:ID>`)
	assert.Contains(t, text, `<ram:ID>FA2026-000007</ram:ID>`)
	assert.Contains(t, text, `<ram:TypeCode>380</ram:TypeCode>`)
	assert.Contains(t, text, `<udt:DateTimeString format="102">20260316</udt:DateTimeString>`)

	// one taxable item for the premium, one exempt item for the hammer
	assert.Equal(t, 2, strings.Count(text, "<ram:IncludedSupplyChainTradeLineItem>"))
	assert.Contains(t, text, `<ram:Name>Lot 12 - Commode Louis XV</ram:Name>`)
	assert.Contains(t, text, `<ram:ChargeAmount>25.00</ram:ChargeAmount>`)
	assert.Contains(t, text, `<ram:ChargeAmount>100.00</ram:ChargeAmount>`)
	assert.Contains(t, text, `<ram:BilledQuantity unitCode="C62">1</ram:BilledQuantity>`)

	assert.Contains(t, text, `<ram:Name>Auctify SAS</ram:Name>`)
	assert.Contains(t, text, `<ram:ID schemeID="0002">12345678900012</ram:ID>`)
	assert.Contains(t, text, `<ram:Name>Durand &amp; Fils</ram:Name>`)

	assert.Contains(t, text, `<ram:IBANID>FR7630006000011234567890189</ram:IBANID>`)
	assert.Contains(t, text, `<ram:BICID>BNPARFXX</ram:BICID>`)
	assert.Contains(t, text, `<ram:CalculatedAmount>5.00</ram:CalculatedAmount>`)
	assert.Contains(t, text, `<ram:BasisAmount>25.00</ram:BasisAmount>`)
	assert.Contains(t, text, `<ram:BasisAmount>100.00</ram:BasisAmount>`)
	assert.Contains(t, text, `<ram:RateApplicablePercent>20</ram:RateApplicablePercent>`)
	assert.Equal(t, 1, strings.Count(text, "<ram:ExemptionReason>"))

	assert.Contains(t, text, `<ram:TaxBasisTotalAmount>125.00</ram:TaxBasisTotalAmount>`)
	assert.Contains(t, text, `<ram:TaxTotalAmount currencyID="EUR">5.00</ram:TaxTotalAmount>`)
	assert.Contains(t, text, `<ram:GrandTotalAmount>130.00</ram:GrandTotalAmount>`)
	assert.Contains(t, text, `<ram:DuePayableAmount>130.00</ram:DuePayableAmount>`)

	// standard rated taxes come before exempt ones
	assert.Less(t, strings.Index(text, "<ram:CategoryCode>S</ram:CategoryCode>"),
		strings.Index(text, "<ram:CategoryCode>E</ram:CategoryCode>"))
}

func TestEncoder_GroupsTaxesByRate(t *testing.T) {
	inv := issuedInvoice()
	inv.Lines = append(inv.Lines, &entity.InvoiceLine{
		LotNumber:   3,
		LineTotal:   money.MustParse("60.00"),
		TaxableBase: money.MustParse("12.00"),
		VATRate:     money.MustRate("0.20"),
		VAT:         money.MustParse("2.40"),
	})

	out, err := NewEncoder().Encode(inv, issuer())
	require.NoError(t, err)
	text := string(out)

	assert.Equal(t, 4, strings.Count(text, "<ram:IncludedSupplyChainTradeLineItem>"))
	assert.Contains(t, text, `<ram:Name>Lot 3</ram:Name>`)
	// lines are ordered by lot number
	assert.Less(t, strings.Index(text, "Lot 3"), strings.Index(text, "Lot 12"))
	assert.Contains(t, text, `<ram:BasisAmount>37.00</ram:BasisAmount>`)
	assert.Contains(t, text, `<ram:CalculatedAmount>7.40</ram:CalculatedAmount>`)
	assert.Contains(t, text, `<ram:BasisAmount>148.00</ram:BasisAmount>`)
	assert.Equal(t, 1, strings.Count(text, "<ram:ExemptionReason>"))
}

func TestEncoder_OptionalIssuerFields(t *testing.T) {
	out, err := NewEncoder().Encode(issuedInvoice(), entity.CompanyProfile{LegalName: "Auctify SAS"})
	require.NoError(t, err)
	wellFormed(t, out)

	text := string(out)
	assert.NotContains(t, text, "SpecifiedLegalOrganization")
	assert.NotContains(t, text, "SpecifiedTradeSettlementPaymentMeans")
}

func TestEncoder_Rejects(t *testing.T) {
	draft := issuedInvoice()
	draft.Status = entity.InvoiceStatusDraft
	draft.Number = ""
	draft.SignatureDate = nil

	_, err := NewEncoder().Encode(draft, issuer())
	assert.ErrorIs(t, err, ErrNotIssued)

	_, err = NewEncoder().Encode(nil, issuer())
	assert.ErrorIs(t, err, ErrNotIssued)

	_, err = NewEncoder().Encode(issuedInvoice(), entity.CompanyProfile{})
	assert.Error(t, err)
}
