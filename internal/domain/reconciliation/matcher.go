// Package reconciliation matches reported auction results against the pre-sale
// lot mapping. It performs no I/O.
package reconciliation

import (
	"sort"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// Report is the output of one match: one outcome per lot plus per-row problems
type Report struct {
	Outcomes []Outcome
	Problems []apperr.ItemError
	// ValidRows counts rows that passed validation
	ValidRows int
}

// Counts returns the number of outcomes per status
func (r *Report) Counts() map[string]int {
	counts := map[string]int{}
	for _, o := range r.Outcomes {
		counts[o.Status()]++
	}
	return counts
}

// Match classifies every lot of the sale.
//
// A row for a lot absent from the mapping is an "unmapped lot" anomaly, a
// mapped lot without any row is a "missing result" anomaly, and a lot reported
// more than once is a "duplicate" anomaly carrying the data of its last row.
// Rows that cannot be trusted yield an "invalid row" anomaly and a problem
// entry. An import with no valid row is rejected as a whole.
func Match(mappings []*entity.LotMapping, rows []ImportedRow) (*Report, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation(apperr.Named("import", ""), "result import contains no rows")
	}

	byLot := make(map[int]*entity.LotMapping, len(mappings))
	for _, m := range mappings {
		byLot[m.LotNumber] = m
	}

	report := &Report{}
	grouped := make(map[int][]ImportedRow)
	var order []int

	for _, row := range rows {
		if row.LotNumber <= 0 {
			report.Problems = append(report.Problems,
				apperr.Item(apperr.Validation(apperr.Row(row.Line), "lot number %d is not positive", row.LotNumber)))
			continue
		}
		if _, seen := grouped[row.LotNumber]; !seen {
			order = append(order, row.LotNumber)
		}
		grouped[row.LotNumber] = append(grouped[row.LotNumber], row)
	}

	for _, lot := range order {
		lotRows := grouped[lot]
		last := lotRows[len(lotRows)-1]
		mapping := byLot[lot]

		if len(lotRows) > 1 {
			report.ValidRows++
			report.Outcomes = append(report.Outcomes, anomaly(lot, entity.AnomalyDuplicate, mapping, last))
			report.Problems = append(report.Problems,
				apperr.Item(apperr.Validation(apperr.Lot(lot), "reported %d times, last row %d kept", len(lotRows), last.Line)))
			continue
		}

		if err := validateRow(last); err != nil {
			report.Outcomes = append(report.Outcomes, anomaly(lot, entity.AnomalyInvalidRow, mapping, last))
			report.Problems = append(report.Problems, apperr.Item(err))
			continue
		}
		report.ValidRows++

		switch {
		case mapping == nil:
			report.Outcomes = append(report.Outcomes, anomaly(lot, entity.AnomalyUnmappedLot, nil, last))
		case last.Sold:
			report.Outcomes = append(report.Outcomes, Sold{
				LotNumber:   lot,
				HammerPrice: last.HammerPrice.Amount,
				SellerID:    mapping.SellerID,
				SellerName:  mapping.SellerName,
				Description: describe(mapping, last),
				Buyer:       last.Buyer,
			})
		default:
			report.Outcomes = append(report.Outcomes, Unsold{
				LotNumber:   lot,
				SellerID:    mapping.SellerID,
				SellerName:  mapping.SellerName,
				Description: describe(mapping, last),
			})
		}
	}

	if report.ValidRows == 0 {
		return nil, apperr.Validation(apperr.Named("import", ""), "none of the %d rows is valid", len(rows))
	}

	for _, m := range mappings {
		if _, reported := grouped[m.LotNumber]; !reported {
			report.Outcomes = append(report.Outcomes, anomaly(m.LotNumber, entity.AnomalyMissingResult, m, ImportedRow{}))
		}
	}

	sort.SliceStable(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Lot() < report.Outcomes[j].Lot()
	})
	return report, nil
}

func validateRow(row ImportedRow) error {
	if !row.Sold {
		return nil
	}
	if !row.HammerPrice.Valid {
		return apperr.Validation(apperr.Lot(row.LotNumber), "sold without hammer price (row %d)", row.Line)
	}
	if row.HammerPrice.Amount.IsNegative() {
		return apperr.Validation(apperr.Lot(row.LotNumber), "negative hammer price %s (row %d)", row.HammerPrice.Amount, row.Line)
	}
	return nil
}

func anomaly(lot int, reason string, mapping *entity.LotMapping, row ImportedRow) Anomaly {
	a := Anomaly{
		LotNumber:   lot,
		Reason:      reason,
		HammerPrice: row.HammerPrice,
		Description: row.Description,
	}
	if mapping != nil {
		sellerID := mapping.SellerID
		a.SellerID = &sellerID
		a.SellerName = mapping.SellerName
		a.Description = describe(mapping, row)
	}
	return a
}

// mapping description wins; the imported one fills in when the mapping has none
func describe(mapping *entity.LotMapping, row ImportedRow) string {
	if mapping != nil && mapping.Description != "" {
		return mapping.Description
	}
	return row.Description
}
