package entity

import (
	"time"

	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Invoice is a buyer invoice for one sale. Once ISSUED it is append-only.
type Invoice struct {
	ID            int64          `json:"id"`
	SaleID        int64          `json:"sale_id"`
	BuyerID       int64          `json:"buyer_id"`
	BuyerName     string         `json:"buyer_name"`
	LegalEntity   string         `json:"legal_entity"`
	Year          int            `json:"year,omitempty"`
	Sequence      int64          `json:"sequence,omitempty"`
	Number        string         `json:"number,omitempty"`
	TaxRule       string         `json:"tax_rule"`
	TotalExcl     money.Amount   `json:"total_excl"`
	TotalVAT      money.Amount   `json:"total_vat"`
	TotalIncl     money.Amount   `json:"total_incl"`
	Status        string         `json:"status"`
	SignatureDate *time.Time     `json:"signature_date,omitempty"`
	Hash          string         `json:"hash,omitempty"`
	PreviousHash  string         `json:"previous_hash,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Lines         []*InvoiceLine `json:"lines"`
}

// IsIssued reports whether the invoice is frozen
func (i *Invoice) IsIssued() bool {
	return i.Status == InvoiceStatusIssued
}

// InvoiceLine is one sold lot on an invoice, with the taxable base and rate used
type InvoiceLine struct {
	ID          int64        `json:"id"`
	InvoiceID   int64        `json:"invoice_id"`
	LotNumber   int          `json:"lot_number"`
	Description string       `json:"description"`
	SellerID    int64        `json:"seller_id"`
	HammerPrice money.Amount `json:"hammer_price"`
	Premium     money.Amount `json:"premium"`
	LineTotal   money.Amount `json:"line_total"`
	TaxableBase money.Amount `json:"taxable_base"`
	VATRate     money.Rate   `json:"vat_rate"`
	VAT         money.Amount `json:"vat"`
}
