package reconciliation

import (
	"strings"

	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// BuyerRef is the buyer information reported on a result row
type BuyerRef struct {
	Code       string
	LastName   string
	FirstName  string
	Email      string
	Address    string
	Phone      string
	SirenSiret string
}

// FullName is "<last> <first>", falling back to the bidder code
func (b BuyerRef) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(b.LastName) + " " + strings.TrimSpace(b.FirstName))
	if name == "" {
		return strings.TrimSpace(b.Code)
	}
	return name
}

// IsEmpty reports whether the row carried no usable buyer identity
func (b BuyerRef) IsEmpty() bool {
	return strings.TrimSpace(b.Email) == "" && b.FullName() == ""
}

// ImportedRow is one normalized row of an external result file
type ImportedRow struct {
	Line        int
	LotNumber   int
	Sold        bool
	HammerPrice money.NullAmount
	Description string
	Buyer       BuyerRef
}

// Outcome is the classification of one lot. The set of implementations is
// closed: Sold, Unsold and Anomaly.
type Outcome interface {
	Lot() int
	Status() string
	sealed()
}

// Sold is a mapped lot reported as sold
type Sold struct {
	LotNumber   int
	HammerPrice money.Amount
	SellerID    int64
	SellerName  string
	Description string
	Buyer       BuyerRef
}

// Unsold is a mapped lot reported as not sold
type Unsold struct {
	LotNumber   int
	SellerID    int64
	SellerName  string
	Description string
}

// Anomaly is a lot whose result could not be trusted as reported
type Anomaly struct {
	LotNumber   int
	Reason      string
	SellerID    *int64
	SellerName  string
	HammerPrice money.NullAmount
	Description string
}

// Lot returns the lot number
func (o Sold) Lot() int {
	return o.LotNumber
}

// Lot returns the lot number
func (o Unsold) Lot() int {
	return o.LotNumber
}

// Lot returns the lot number
func (o Anomaly) Lot() int {
	return o.LotNumber
}

// Status returns SOLD
func (Sold) Status() string {
	return entity.ResultStatusSold
}

// Status returns UNSOLD
func (Unsold) Status() string {
	return entity.ResultStatusUnsold
}

// Status returns ANOMALY
func (Anomaly) Status() string {
	return entity.ResultStatusAnomaly
}

func (Sold) sealed() {}
func (Unsold) sealed() {}
func (Anomaly) sealed() {}

// ToResult converts an outcome into the persisted result shape. Buyer ids are
// resolved by the caller.
func ToResult(saleID int64, o Outcome) *entity.ReconciliationResult {
	r := &entity.ReconciliationResult{
		SaleID:    saleID,
		LotNumber: o.Lot(),
		Status:    o.Status(),
	}

	switch v := o.(type) {
	case Sold:
		sellerID := v.SellerID
		r.HammerPrice = money.Some(v.HammerPrice)
		r.SellerID = &sellerID
		r.SellerName = v.SellerName
		r.BuyerName = v.Buyer.FullName()
		r.Description = v.Description
	case Unsold:
		sellerID := v.SellerID
		r.SellerID = &sellerID
		r.SellerName = v.SellerName
		r.Description = v.Description
	case Anomaly:
		r.AnomalyReason = v.Reason
		r.SellerID = v.SellerID
		r.SellerName = v.SellerName
		r.HammerPrice = v.HammerPrice
		r.Description = v.Description
	}
	return r
}
