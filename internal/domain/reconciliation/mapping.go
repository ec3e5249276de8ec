package reconciliation

import (
	"strings"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
)

// MappingRow is one line of a pre-sale mapping import
type MappingRow struct {
	Line        int
	LotNumber   int
	SellerName  string
	Description string
}

// ValidateMapping splits an import into usable rows and per-row problems.
// A lot number present more than once is ambiguous, so every row carrying it
// is rejected.
func ValidateMapping(rows []MappingRow) ([]MappingRow, []apperr.ItemError) {
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.LotNumber]++
	}

	var accepted []MappingRow
	var problems []apperr.ItemError
	for _, row := range rows {
		row.SellerName = strings.TrimSpace(row.SellerName)
		row.Description = strings.TrimSpace(row.Description)

		switch {
		case row.LotNumber <= 0:
			problems = append(problems, apperr.Item(
				apperr.Validation(apperr.Row(row.Line), "lot number %d is not positive", row.LotNumber)))
		case row.SellerName == "":
			problems = append(problems, apperr.Item(
				apperr.Validation(apperr.Lot(row.LotNumber), "no seller (row %d)", row.Line)))
		case counts[row.LotNumber] > 1:
			problems = append(problems, apperr.Item(
				apperr.Validation(apperr.Lot(row.LotNumber), "mapped %d times (row %d)", counts[row.LotNumber], row.Line)))
		default:
			accepted = append(accepted, row)
		}
	}
	return accepted, problems
}
