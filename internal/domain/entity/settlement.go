package entity

import (
	"fmt"
	"time"

	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Settlement is the net amount owed to one seller for one sale
type Settlement struct {
	ID            int64        `json:"id"`
	SaleID        int64        `json:"sale_id"`
	SellerID      int64        `json:"seller_id"`
	SellerName    string       `json:"seller_name"`
	Kind          string       `json:"kind"`
	LotCount      int          `json:"lot_count"`
	Gross         money.Amount `json:"gross"`
	Commission    money.Amount `json:"commission"`
	CommissionVAT money.Amount `json:"commission_vat"`
	PlatformFee   money.Amount `json:"platform_fee"`
	Amount        money.Amount `json:"amount"`
	Status        string       `json:"status"`
	BatchID       *int64       `json:"batch_id,omitempty"`
	ExportedAt    *time.Time   `json:"exported_at,omitempty"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// FileName is the name of the batch file in the sale's artifact folder
func (b *PaymentBatch) FileName() string {
	return fmt.Sprintf("sepa-%s-%d.xml", b.ExecutionDate.Format("20060102"), b.ID)
}

// IsCommitted reports whether the settlement is past the export boundary
func (s *Settlement) IsCommitted() bool {
	return s.Status == SettlementStatusExported || s.Status == SettlementStatusPaid
}

// PaymentBatch is one exported SEPA credit transfer file
type PaymentBatch struct {
	ID            int64        `json:"id"`
	SaleID        int64        `json:"sale_id"`
	MessageID     string       `json:"message_id"`
	ExecutionDate time.Time    `json:"execution_date"`
	ControlSum    money.Amount `json:"control_sum"`
	TxCount       int          `json:"tx_count"`
	XML           []byte       `json:"-"`
	ArtifactPath  string       `json:"artifact_path,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
