// Package settlement computes what each seller is owed for a sale.
package settlement

import (
	"sort"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Rates are the fee rates applied to the seller side of a sale
type Rates struct {
	SellerFee     money.Rate
	PlatformFee   money.Rate
	CommissionVAT money.Rate
}

// RatesFor takes the fee rates of a sale and the VAT rate charged on commission
func RatesFor(sale *entity.Sale, commissionVAT money.Rate) Rates {
	return Rates{
		SellerFee:     sale.SellerFeeRate,
		PlatformFee:   sale.PlatformFeeRate,
		CommissionVAT: commissionVAT,
	}
}

// SoldLot is one SOLD result with its seller
type SoldLot struct {
	LotNumber        int
	SellerID         int64
	SellerName       string
	SellerVATSubject bool
	HammerPrice      money.NullAmount
}

// Contribution is the unrounded effect of one lot on its seller's settlement
type Contribution struct {
	LotNumber     int
	Gross         money.Amount
	Commission    money.Amount
	CommissionVAT money.Amount
	PlatformFee   money.Amount
	Net           money.Amount
}

// Contribute computes net = gross - commission - platform fee, less VAT on the
// commission when the seller is subject to VAT.
func Contribute(rates Rates, lot SoldLot) (Contribution, error) {
	if !lot.HammerPrice.Valid {
		return Contribution{}, apperr.DataIntegrity(apperr.Lot(lot.LotNumber), "sold without hammer price")
	}

	gross := lot.HammerPrice.Amount
	commission := gross.MulRate(rates.SellerFee)
	platform := gross.MulRate(rates.PlatformFee)
	commissionVAT := money.Zero
	if lot.SellerVATSubject {
		commissionVAT = commission.MulRate(rates.CommissionVAT)
	}

	return Contribution{
		LotNumber:     lot.LotNumber,
		Gross:         gross,
		Commission:    commission,
		CommissionVAT: commissionVAT,
		PlatformFee:   platform,
		Net:           gross.Sub(commission).Sub(platform).Sub(commissionVAT),
	}, nil
}

// SellerTotal is the settlement of one seller. Amounts are rounded once from
// the exact sums of the contributions.
type SellerTotal struct {
	SellerID      int64
	SellerName    string
	Gross         money.Amount
	Commission    money.Amount
	CommissionVAT money.Amount
	PlatformFee   money.Amount
	Net           money.Amount
	Contributions []Contribution
}

// Aggregate groups contributions per seller, ordered by seller id. A negative
// net is kept as is.
func Aggregate(rates Rates, lots []SoldLot) ([]SellerTotal, error) {
	bySeller := make(map[int64]*SellerTotal)
	for _, lot := range lots {
		c, err := Contribute(rates, lot)
		if err != nil {
			return nil, err
		}

		t, ok := bySeller[lot.SellerID]
		if !ok {
			t = &SellerTotal{SellerID: lot.SellerID, SellerName: lot.SellerName}
			bySeller[lot.SellerID] = t
		}
		t.Contributions = append(t.Contributions, c)
		t.Gross = t.Gross.Add(c.Gross)
		t.Commission = t.Commission.Add(c.Commission)
		t.CommissionVAT = t.CommissionVAT.Add(c.CommissionVAT)
		t.PlatformFee = t.PlatformFee.Add(c.PlatformFee)
		t.Net = t.Net.Add(c.Net)
	}

	totals := make([]SellerTotal, 0, len(bySeller))
	for _, t := range bySeller {
		t.Gross = t.Gross.Round()
		t.Commission = t.Commission.Round()
		t.CommissionVAT = t.CommissionVAT.Round()
		t.PlatformFee = t.PlatformFee.Round()
		t.Net = t.Net.Round()
		totals = append(totals, *t)
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].SellerID < totals[j].SellerID })
	return totals, nil
}

// ToSettlement turns a seller total into a PENDING settlement of the given kind
func ToSettlement(saleID int64, kind string, t SellerTotal) *entity.Settlement {
	return &entity.Settlement{
		SaleID:        saleID,
		SellerID:      t.SellerID,
		SellerName:    t.SellerName,
		Kind:          kind,
		LotCount:      len(t.Contributions),
		Gross:         t.Gross,
		Commission:    t.Commission,
		CommissionVAT: t.CommissionVAT,
		PlatformFee:   t.PlatformFee,
		Amount:        t.Net,
		Status:        entity.SettlementStatusPending,
	}
}

// Correction is the settlement that brings the committed amount of a seller
// to the recomputed one. Committed settlements are left untouched.
func Correction(saleID int64, recomputed SellerTotal, committed []*entity.Settlement) *entity.Settlement {
	gross, commission, commissionVAT, platform, net := money.Zero, money.Zero, money.Zero, money.Zero, money.Zero
	for _, s := range committed {
		gross = gross.Add(s.Gross)
		commission = commission.Add(s.Commission)
		commissionVAT = commissionVAT.Add(s.CommissionVAT)
		platform = platform.Add(s.PlatformFee)
		net = net.Add(s.Amount)
	}

	c := ToSettlement(saleID, entity.SettlementKindCorrection, recomputed)
	c.Gross = recomputed.Gross.Sub(gross)
	c.Commission = recomputed.Commission.Sub(commission)
	c.CommissionVAT = recomputed.CommissionVAT.Sub(commissionVAT)
	c.PlatformFee = recomputed.PlatformFee.Sub(platform)
	c.Amount = recomputed.Net.Sub(net)
	return c
}
