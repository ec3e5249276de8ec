// Package export writes reconciliation results as downloadable spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// SheetName is the worksheet holding the results in xlsx exports
const SheetName = "Résultats"

var header = []string{"N° Lot", "Description", "Vendeur", "Statut", "Adjudication", "Acheteur", "Anomalie"}

// ReportWriter renders result rows as xlsx or csv
type ReportWriter struct {
	logger *zap.Logger
}

// NewReportWriter creates a new ReportWriter
func NewReportWriter(logger *zap.Logger) *ReportWriter {
	return &ReportWriter{logger: logger}
}

// Write renders results in the given format
func (rw *ReportWriter) Write(w io.Writer, format string, results []*entity.ReconciliationResult) error {
	switch format {
	case port.ReportFormatXLSX:
		return WriteXLSX(w, results)
	case port.ReportFormatCSV:
		return WriteCSV(w, results)
	default:
		rw.logger.Error("Unsupported report format", zap.String("format", format))
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteXLSX writes one sheet with a header row and one row per lot. Hammer
// prices are numeric cells so they can be summed.
func WriteXLSX(w io.Writer, results []*entity.ReconciliationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range results {
		var price interface{}
		if r.HammerPrice.Valid {
			price = r.HammerPrice.Amount.Round().Decimal().InexactFloat64()
		}
		row := []interface{}{r.LotNumber, r.Description, r.SellerName, statusLabel(r.Status), price, r.BuyerName, r.AnomalyReason}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write lot %d: %w", r.LotNumber, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 40); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the same columns as WriteXLSX, semicolon separated
func WriteCSV(w io.Writer, results []*entity.ReconciliationResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		price := ""
		if r.HammerPrice.Valid {
			price = r.HammerPrice.Amount.String()
		}
		record := []string{fmt.Sprint(r.LotNumber), r.Description, r.SellerName, statusLabel(r.Status), price, r.BuyerName, r.AnomalyReason}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func statusLabel(status string) string {
	switch status {
	case entity.ResultStatusSold:
		return "Vendu"
	case entity.ResultStatusUnsold:
		return "Invendu"
	case entity.ResultStatusAnomaly:
		return "Anomalie"
	}
	return status
}

// Verify interface compliance
var _ port.ReportWriter = (*ReportWriter)(nil)
