package port

import (
	"io"
	"time"

	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Party is a named bank account holder
type Party struct {
	Name string
	IBAN string
	BIC  string
}

// CreditTransfer is one payment of a batch
type CreditTransfer struct {
	EndToEndID string
	Amount     money.Amount
	Creditor   Party
	Remittance string
}

// PaymentOrder is the input of a payment file
type PaymentOrder struct {
	MessageID     string
	PaymentInfoID string
	CreatedAt     time.Time
	ExecutionDate time.Time
	Debtor        Party
	Transfers     []CreditTransfer
}

// PaymentFileEncoder renders a payment order as a bank file
type PaymentFileEncoder interface {
	Encode(order PaymentOrder) ([]byte, error)
}

// Report formats
const (
	ReportFormatXLSX = "xlsx"
	ReportFormatCSV  = "csv"
)

// ReportWriter serialises reconciliation results for download
type ReportWriter interface {
	Write(w io.Writer, format string, results []*entity.ReconciliationResult) error
}

// InvoiceDocumentEncoder renders an issued invoice as a structured e-invoice
type InvoiceDocumentEncoder interface {
	Encode(inv *entity.Invoice, issuer entity.CompanyProfile) ([]byte, error)
}
