package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIBAN(t *testing.T) {
	valid := []string{
		"FR1420041010050500013M02606",
		"FR76 3000 6000 0112 3456 7890 189",
		"DE89370400440532013000",
		"fr7630006000011234567890189",
	}
	for _, iban := range valid {
		assert.NoError(t, ValidateIBAN(iban), iban)
	}

	invalid := []string{
		"",
		"FR7630006000011234567890188",
		"FR76",
		"1234567890",
	}
	for _, iban := range invalid {
		assert.Error(t, ValidateIBAN(iban), iban)
	}
}

func TestValidateBIC(t *testing.T) {
	assert.NoError(t, ValidateBIC("BNPAFRPP"))
	assert.NoError(t, ValidateBIC("AGRIFRPP882"))
	assert.NoError(t, ValidateBIC(" bnpafrpp "))
	assert.Error(t, ValidateBIC("BNP"))
	assert.Error(t, ValidateBIC("BNPAFRPP88"))
}

func TestValidateSiret(t *testing.T) {
	assert.NoError(t, ValidateSiret("732829320"))
	assert.NoError(t, ValidateSiret("73282932000074"))
	assert.Error(t, ValidateSiret("732829321"))
	assert.Error(t, ValidateSiret("12345"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("commissaire@hotel-drouot.fr"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Lot 12", SanitizeString("Lot\x00 12\x7f"))
}
