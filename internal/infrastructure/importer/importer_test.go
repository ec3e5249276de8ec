package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseMappingXLSX(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{" LOT ", "Vendeur", "Désignation"},
		{1, "Dupont", "Commode Louis XV"},
		{2, "  Martin ", ""},
		{},
		{"abc", "Durand", "Vase"},
	})

	rows, err := ParseMappingXLSX(buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 1, rows[0].LotNumber)
	assert.Equal(t, "Dupont", rows[0].SellerName)
	assert.Equal(t, "Commode Louis XV", rows[0].Description)

	assert.Equal(t, "Martin", rows[1].SellerName)

	assert.Equal(t, 5, rows[2].Line)
	assert.Equal(t, 0, rows[2].LotNumber)
}

func TestParseMappingXLSX_MissingColumn(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Lot", "Désignation"},
		{1, "Commode"},
	})

	_, err := ParseMappingXLSX(buf)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParseMappingXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseMappingXLSX(strings.NewReader("Lot;Vendeur\n1;Dupont\n"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParseResultCSV_Semicolon(t *testing.T) {
	content := "Lot;Adj.;Numéro acheteur;Nom;Prénom;Email;Adresse;CP;Ville;Mobile;Description\n" +
		"1;1 200,50;B12;Durand;Paul;Paul.Durand@Example.com;3 rue Haute;75001;Paris;33612345678;Commode\n" +
		"2;;;;;;;;;;Vase\n" +
		"3;abc;B13;Petit;Léa;;;;;;Miroir\n"

	rows, err := ParseResultCSV(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 1, first.LotNumber)
	assert.True(t, first.Sold)
	require.True(t, first.HammerPrice.Valid)
	assert.True(t, first.HammerPrice.Amount.Equal(money.MustParse("1200.50")))
	assert.Equal(t, "B12", first.Buyer.Code)
	assert.Equal(t, "Durand Paul", first.Buyer.FullName())
	assert.Equal(t, "paul.durand@example.com", first.Buyer.Email)
	assert.Equal(t, "3 rue Haute 75001 Paris", first.Buyer.Address)
	assert.Equal(t, "0612345678", first.Buyer.Phone)
	assert.Equal(t, "Commode", first.Description)

	assert.False(t, rows[1].Sold)
	assert.False(t, rows[1].HammerPrice.Valid)

	// unreadable price: still sold, left without price for the matcher to reject
	assert.True(t, rows[2].Sold)
	assert.False(t, rows[2].HammerPrice.Valid)
}

func TestParseResultCSV_CommaWithStatus(t *testing.T) {
	content := "lot,adj,statut,nom\n" +
		"10,150,Vendu,Martin\n" +
		"11,80,Invendu,\n" +
		"12.0,95,,Blanc\n"

	rows, err := ParseResultCSV(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Sold)
	assert.False(t, rows[1].Sold)
	assert.Equal(t, 12, rows[2].LotNumber)
	assert.True(t, rows[2].Sold)
}

func TestParseResultCSV_Windows1252(t *testing.T) {
	utf := "Lot;Adj.;Nom;Prénom\n4;300;Lefèvre;Hélène\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(utf)
	require.NoError(t, err)

	rows, err := ParseResultCSV(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lefèvre Hélène", rows[0].Buyer.FullName())
}

func TestParseResultCSV_MissingColumns(t *testing.T) {
	_, err := ParseResultCSV(strings.NewReader("Nom;Prénom\nDurand;Paul\n"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ParseResultCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "0612345678", normalizePhone("33612345678"))
	assert.Equal(t, "0612345678", normalizePhone("+33 6 12 34 56 78"))
	assert.Equal(t, "0612345678", normalizePhone("06.12.34.56.78"))
	assert.Equal(t, "0612345678", normalizePhone("33612345678.0"))
	assert.Equal(t, "", normalizePhone(""))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "numero acheteur", normalizeHeader("  Numéro   Acheteur "))
	assert.Equal(t, "adj", normalizeHeader("Adj."))
	assert.Equal(t, "designation", normalizeHeader("Désignation"))
}
