package sepa

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field length limits of pain.001.001.03
const (
	MaxIDLength         = 35
	MaxNameLength       = 70
	MaxRemittanceLength = 140
)

var ligatures = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "đ", "d", "Đ", "D", "ł", "l", "Ł", "L",
	"&", "+", "_", "-", "’", "'", "‘", "'",
)

// allowed reports whether r belongs to the SEPA Latin character set
func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("/-?:().,'+ ", r)
}

// Clean transliterates s into the SEPA Latin character set, collapses
// whitespace and truncates the result to max characters
func Clean(s string, max int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		folded = s
	}

	mapped := strings.Map(func(r rune) rune {
		if allowed(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return '.'
	}, folded)

	out := strings.Join(strings.Fields(mapped), " ")
	if len(out) > max {
		out = strings.TrimSpace(out[:max])
	}
	return out
}

// CleanID restricts an identifier further: no spaces, no leading or trailing
// slash and no double slash
func CleanID(s string) string {
	id := strings.ReplaceAll(Clean(s, MaxIDLength), " ", "")
	for strings.Contains(id, "//") {
		id = strings.ReplaceAll(id, "//", "/")
	}
	return strings.Trim(id, "/")
}
