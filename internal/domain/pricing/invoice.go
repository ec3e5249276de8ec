// Package pricing derives buyer invoices from hammer prices and the fee
// configuration of a sale.
package pricing

import (
	"fmt"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// SoldLot is one lot won by the invoiced buyer
type SoldLot struct {
	LotNumber        int
	Description      string
	Status           string
	HammerPrice      money.NullAmount
	SellerID         int64
	SellerVATSubject bool
}

// ComputeInvoice builds a DRAFT invoice for one buyer.
//
// Line amounts keep full precision. The three totals are each rounded once,
// half to even, from the exact sums.
func ComputeInvoice(sale *entity.Sale, buyer *entity.Actor, lots []SoldLot, rule TaxRule) (*entity.Invoice, error) {
	if len(lots) == 0 {
		return nil, apperr.Validation(apperr.Buyer(buyer.ID), "no sold lot to invoice")
	}

	inv := &entity.Invoice{
		SaleID:    sale.ID,
		BuyerID:   buyer.ID,
		BuyerName: buyer.Name,
		TaxRule:   rule.Name(),
		Status:    entity.InvoiceStatusDraft,
		Lines:     make([]*entity.InvoiceLine, 0, len(lots)),
	}

	excl, vat := money.Zero, money.Zero
	for _, lot := range lots {
		line, err := computeLine(sale.BuyerFeeRate, buyer, lot, rule)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
		excl = excl.Add(line.LineTotal)
		vat = vat.Add(line.VAT)
	}

	inv.TotalExcl = excl.Round()
	inv.TotalVAT = vat.Round()
	inv.TotalIncl = excl.Add(vat).Round()
	return inv, nil
}

func computeLine(buyerFee money.Rate, buyer *entity.Actor, lot SoldLot, rule TaxRule) (*entity.InvoiceLine, error) {
	if lot.Status != entity.ResultStatusSold {
		return nil, apperr.DataIntegrity(apperr.Lot(lot.LotNumber), "cannot invoice a lot with status %s", lot.Status)
	}
	if !lot.HammerPrice.Valid {
		return nil, apperr.DataIntegrity(apperr.Lot(lot.LotNumber), "sold without hammer price")
	}

	hammer := lot.HammerPrice.Amount
	premium := hammer.MulRate(buyerFee)
	tax := rule.Line(LineInput{
		HammerPrice:      hammer,
		Premium:          premium,
		SellerVATSubject: lot.SellerVATSubject,
		BuyerVATSubject:  buyer.VATSubject,
	})

	return &entity.InvoiceLine{
		LotNumber:   lot.LotNumber,
		Description: lot.Description,
		SellerID:    lot.SellerID,
		HammerPrice: hammer,
		Premium:     premium,
		LineTotal:   hammer.Add(premium),
		TaxableBase: tax.TaxableBase,
		VATRate:     tax.Rate,
		VAT:         tax.VAT(),
	}, nil
}

// FormatNumber renders an invoice number, e.g. "FA2025-000042"
func FormatNumber(prefix string, year int, sequence int64) string {
	return fmt.Sprintf("%s%d-%06d", prefix, year, sequence)
}
