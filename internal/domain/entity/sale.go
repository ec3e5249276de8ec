package entity

import (
	"time"

	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Sale is one auction event with its fee configuration
type Sale struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Number          string     `json:"number"`
	Date            time.Time  `json:"date"`
	Status          string     `json:"status"`
	BuyerFeeRate    money.Rate `json:"buyer_fee_rate"`
	SellerFeeRate   money.Rate `json:"seller_fee_rate"`
	PlatformFeeRate money.Rate `json:"platform_fee_rate"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsClosed reports whether the sale is past reconciliation and settlement
func (s *Sale) IsClosed() bool {
	return s.Status == SaleStatusClosed
}

// Actor is a seller or buyer
type Actor struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	SirenSiret string    `json:"siren_siret,omitempty"`
	IBAN       string    `json:"iban,omitempty"`
	BIC        string    `json:"bic,omitempty"`
	VATSubject bool      `json:"vat_subject"`
	CreatedAt  time.Time `json:"created_at"`
}

// LotMapping links a lot of a sale to its seller
type LotMapping struct {
	ID          int64  `json:"id"`
	SaleID      int64  `json:"sale_id"`
	LotNumber   int    `json:"lot_number"`
	SellerID    int64  `json:"seller_id"`
	SellerName  string `json:"seller_name"`
	Description string `json:"description"`
}

// CompanyProfile is the platform's own identity, printed on documents and used as SEPA debtor
type CompanyProfile struct {
	LegalName   string            `json:"legal_name"`
	SIRET       string            `json:"siret"`
	Address     string            `json:"address"`
	IBAN        string            `json:"iban"`
	BIC         string            `json:"bic"`
	Logos       map[string]string `json:"logos"`
	LegalFooter string            `json:"legal_footer"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// AuditEntry is one row of the audit trail
type AuditEntry struct {
	ID            int64     `json:"id"`
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	ResourceType  string    `json:"resource_type"`
	ResourceID    int64     `json:"resource_id"`
	Details       string    `json:"details"`
	CorrelationID string    `json:"correlation_id"`
}
