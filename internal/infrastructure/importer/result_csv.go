package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/domain/reconciliation"
)

var (
	soldWords   = map[string]bool{"vendu": true, "adjuge": true, "sold": true, "oui": true, "yes": true, "1": true, "true": true}
	unsoldWords = map[string]bool{"invendu": true, "non vendu": true, "retire": true, "unsold": true, "non": true, "no": true, "0": true, "false": true}
)

// ParseResultCSV reads the result export of the auction software. The
// separator (comma or semicolon) is taken from the header line and files that
// are not valid UTF-8 are decoded as Windows-1252.
//
// Without a Vendu/Statut column a lot counts as sold when its Adj. cell is
// filled.
func ParseResultCSV(r io.Reader) ([]reconciliation.ImportedRow, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		if content, err = charmap.Windows1252.NewDecoder().Bytes(content); err != nil {
			return nil, apperr.Validation(apperr.Named("file", "results"), "unsupported text encoding: %v", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectSeparator(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation(apperr.Named("file", "results"), "malformed csv: %v", err)
	}
	if len(records) == 0 {
		return nil, apperr.Validation(apperr.Named("file", "results"), "file is empty")
	}

	cols := indexColumns(records[0])
	if _, ok := cols.find("lot", "n° lot", "numero lot"); !ok {
		return nil, apperr.Validation(apperr.Field("Lot"), "column missing from result header")
	}
	if _, ok := cols.find("adj", "adjudication", "prix"); !ok {
		return nil, apperr.Validation(apperr.Field("Adj."), "column missing from result header")
	}
	_, hasStatus := cols.find("vendu", "statut", "status")

	var rows []reconciliation.ImportedRow
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}

		price := cols.cell(record, "adj", "adjudication", "prix")
		row := reconciliation.ImportedRow{
			Line:        i + 2,
			LotNumber:   parseLot(cols.cell(record, "lot", "n° lot", "numero lot")),
			Description: cols.cell(record, "description", "designation"),
			Buyer: reconciliation.BuyerRef{
				Code:       cols.cell(record, "numero acheteur", "n° acheteur", "acheteur"),
				LastName:   cols.cell(record, "nom"),
				FirstName:  cols.cell(record, "prenom"),
				Email:      strings.ToLower(cols.cell(record, "email", "e-mail", "mail")),
				Address:    joinAddress(cols.cell(record, "adresse"), cols.cell(record, "cp", "code postal"), cols.cell(record, "ville")),
				Phone:      normalizePhone(cols.cell(record, "mobile", "telephone", "tel")),
				SirenSiret: cols.cell(record, "siret", "siren"),
			},
		}

		if hasStatus {
			row.Sold = parseSold(cols.cell(record, "vendu", "statut", "status"), price)
		} else {
			row.Sold = price != ""
		}
		if price != "" {
			if amount, err := money.Parse(price); err == nil {
				row.HammerPrice = money.Some(amount)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// detectSeparator picks ';' when the header line holds more semicolons than commas
func detectSeparator(content []byte) rune {
	header := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		header = content[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

// parseSold reads a status cell; an unknown or empty word falls back to the price cell
func parseSold(status, price string) bool {
	word := normalizeHeader(status)
	switch {
	case soldWords[word]:
		return true
	case unsoldWords[word]:
		return false
	default:
		return price != ""
	}
}

// normalizePhone turns international French numbers (33...) into the national form
func normalizePhone(raw string) string {
	phone := strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSuffix(raw, ".0"))
	switch {
	case strings.HasPrefix(phone, "+33"):
		return "0" + phone[3:]
	case strings.HasPrefix(phone, "0033"):
		return "0" + phone[4:]
	case strings.HasPrefix(phone, "33") && len(phone) == 11:
		return "0" + phone[2:]
	}
	return phone
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
