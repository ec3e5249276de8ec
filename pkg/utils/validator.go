package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	ibanRegex  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bicRegex   = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	controls   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// NormalizeIBAN removes spaces and upper-cases an IBAN
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// ValidateIBAN checks the structure and the ISO 13616 mod-97 checksum
func ValidateIBAN(iban string) error {
	iban = NormalizeIBAN(iban)
	if !ibanRegex.MatchString(iban) {
		return fmt.Errorf("invalid IBAN format: %q", iban)
	}

	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(fmt.Sprint(int(r-'A') + 10))
		} else {
			digits.WriteRune(r)
		}
	}

	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok || new(big.Int).Mod(n, big.NewInt(97)).Int64() != 1 {
		return fmt.Errorf("invalid IBAN checksum: %q", iban)
	}
	return nil
}

// ValidateBIC checks an 8 or 11 character BIC
func ValidateBIC(bic string) error {
	if !bicRegex.MatchString(strings.ToUpper(strings.TrimSpace(bic))) {
		return fmt.Errorf("invalid BIC: %q", bic)
	}
	return nil
}

// ValidateSiret checks a 9 digit SIREN or 14 digit SIRET with the Luhn key
func ValidateSiret(id string) error {
	id = strings.ReplaceAll(strings.TrimSpace(id), " ", "")
	if (len(id) != 9 && len(id) != 14) || !digitsOnly.MatchString(id) {
		return fmt.Errorf("SIREN/SIRET must have 9 or 14 digits: %q", id)
	}

	sum := 0
	for i := len(id) - 1; i >= 0; i-- {
		d := int(id[i] - '0')
		if (len(id)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	if sum%10 != 0 {
		return fmt.Errorf("invalid SIREN/SIRET key: %q", id)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controls.ReplaceAllString(s, "")
}
