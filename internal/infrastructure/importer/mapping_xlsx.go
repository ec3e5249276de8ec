package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/reconciliation"
)

// ParseMappingXLSX reads the first sheet of a pre-sale mapping workbook with
// the columns Lot, Vendeur and Désignation. Lines are numbered as in the sheet.
func ParseMappingXLSX(r io.Reader) ([]reconciliation.MappingRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation(apperr.Named("file", "mapping"), "not a readable xlsx workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation(apperr.Named("file", "mapping"), "workbook has no sheet")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, apperr.Validation(apperr.Named("file", "mapping"), "sheet %s is empty", sheets[0])
	}

	cols := indexColumns(records[0])
	if _, ok := cols.find("lot", "n° lot", "numero lot"); !ok {
		return nil, apperr.Validation(apperr.Field("Lot"), "column missing from mapping header")
	}
	if _, ok := cols.find("vendeur", "seller"); !ok {
		return nil, apperr.Validation(apperr.Field("Vendeur"), "column missing from mapping header")
	}

	var rows []reconciliation.MappingRow
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, reconciliation.MappingRow{
			Line:        i + 2,
			LotNumber:   parseLot(cols.cell(record, "lot", "n° lot", "numero lot")),
			SellerName:  cols.cell(record, "vendeur", "seller"),
			Description: cols.cell(record, "designation", "description"),
		})
	}
	return rows, nil
}
