package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func sampleResults() []*entity.ReconciliationResult {
	return []*entity.ReconciliationResult{
		{LotNumber: 1, Status: entity.ResultStatusSold, HammerPrice: money.Some(money.MustParse("1200.5")), SellerName: "Dupont", BuyerName: "Durand Paul", Description: "Commode"},
		{LotNumber: 2, Status: entity.ResultStatusUnsold, SellerName: "Martin", Description: "Vase"},
		{LotNumber: 7, Status: entity.ResultStatusAnomaly, AnomalyReason: entity.AnomalyUnmappedLot, HammerPrice: money.Some(money.MustParse("80"))},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	r := csv.NewReader(&buf)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"1", "Commode", "Dupont", "Vendu", "1200.50", "Durand Paul", ""}, records[1])
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "Anomalie", records[3][3])
	assert.Equal(t, entity.AnomalyUnmappedLot, records[3][6])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResults()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "N° Lot", rows[0][0])
	assert.Equal(t, "Dupont", rows[1][2])
	assert.Equal(t, "1200.5", rows[1][4])
	assert.Equal(t, "Invendu", rows[2][3])
}

func TestReportWriter_Format(t *testing.T) {
	rw := NewReportWriter(zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, rw.Write(&buf, port.ReportFormatCSV, sampleResults()))
	assert.NotZero(t, buf.Len())

	assert.Error(t, rw.Write(&buf, "pdf", sampleResults()))
}
