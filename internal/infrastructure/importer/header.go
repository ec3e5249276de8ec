// Package importer turns the spreadsheets exchanged with auction software into
// the normalized rows consumed by the reconciliation domain.
package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader folds a column title for lookup: "  Numéro Acheteur " and
// "numero acheteur" are the same column, so are "Adj." and "adj"
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	folded, _, err := transform.String(foldAccents, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(strings.Join(strings.Fields(folded), " "))
	return strings.TrimRight(folded, ".: ")
}

// columns maps normalized header names to their index
type columns map[string]int

func indexColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	return cols
}

// find returns the index of the first alias present
func (c columns) find(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i, true
		}
	}
	return -1, false
}

// cell returns the trimmed value of the first alias present in record
func (c columns) cell(record []string, aliases ...string) string {
	i, ok := c.find(aliases...)
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseLot reads a lot number; spreadsheet tools often render integers as "12.0".
// Unreadable values give 0, which the domain rejects with the row number.
func parseLot(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
