package entity

import (
	"time"

	"github.com/auctify/settlement-engine/internal/domain/money"
)

// ReconciliationRun is one immutable version of a sale's result set
type ReconciliationRun struct {
	ID        int64     `json:"id"`
	SaleID    int64     `json:"sale_id"`
	Version   int       `json:"version"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ReconciliationResult is the outcome of one lot in a run
type ReconciliationResult struct {
	ID            int64            `json:"id"`
	RunID         int64            `json:"run_id"`
	SaleID        int64            `json:"sale_id"`
	LotNumber     int              `json:"lot_number"`
	Status        string           `json:"status"`
	HammerPrice   money.NullAmount `json:"hammer_price"`
	SellerID      *int64           `json:"seller_id,omitempty"`
	SellerName    string           `json:"seller_name"`
	BuyerID       *int64           `json:"buyer_id,omitempty"`
	BuyerName     string           `json:"buyer_name"`
	Description   string           `json:"description"`
	AnomalyReason string           `json:"anomaly_reason,omitempty"`
}

// IsSold reports whether the lot was sold
func (r *ReconciliationResult) IsSold() bool {
	return r.Status == ResultStatusSold
}
