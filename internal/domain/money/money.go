// Package money provides the exact decimal amount and rate types used by every
// financial computation. Amounts keep full precision through intermediate
// arithmetic; rounding happens only when Round is called at an output boundary.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of decimals of the smallest currency unit (cents).
const MinorUnitPlaces int32 = 2

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRate is returned when a rate is outside [0, 1]
	ErrInvalidRate = errors.New("invalid rate")
)

// Amount is an exact monetary value in the sale currency.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount
var Zero = Amount{d: decimal.Zero}

// New creates an amount from a decimal
func New(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// FromCents creates an amount from an integer number of minor units
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -MinorUnitPlaces)}
}

// MustParse parses an amount and panics on failure. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Parse parses an amount as found in imported files. It accepts "," or "." as
// decimal separator; when both appear the last one is the decimal point and the
// other groups thousands. Spaces, non-breaking spaces and the euro sign are ignored.
func Parse(s string) (Amount, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "€", "", "EUR", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	comma, dot := strings.LastIndex(cleaned, ","), strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0:
		// the separator appearing last is the decimal point
		if comma > dot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case comma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{d: d}, nil
}

// Decimal returns the underlying decimal
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Add returns a + b at full precision
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b at full precision
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Neg returns -a
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// MulRate multiplies the amount by a rate without rounding
func (a Amount) MulRate(r Rate) Amount {
	return Amount{d: a.d.Mul(r.d)}
}

// Sign returns -1, 0 or 1
func (a Amount) Sign() int {
	return a.d.Sign()
}

// IsZero reports whether the amount is zero
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsPositive reports whether the amount is strictly above zero
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports whether the amount is strictly below zero
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Cmp compares a and b like decimal.Cmp
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal compares values, ignoring trailing zeros
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// Round applies the rounding policy: half-to-even at the smallest currency unit.
func (a Amount) Round() Amount {
	return Amount{d: a.d.RoundBank(MinorUnitPlaces)}
}

// String renders the rounded amount with exactly two decimals
func (a Amount) String() string {
	return a.d.RoundBank(MinorUnitPlaces).StringFixed(MinorUnitPlaces)
}

// Exact renders the amount at full precision
func (a Amount) Exact() string {
	return a.d.String()
}

// Sum adds amounts at full precision
func Sum(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.d)
	}
	return Amount{d: total}
}

// Scan implements sql.Scanner
func (a *Amount) Scan(value interface{}) error {
	return a.d.Scan(value)
}

// Value implements driver.Valuer. Amounts are stored at full precision as text.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// MarshalJSON renders the amount as a two-decimal string
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a string or number
func (a *Amount) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// NullAmount is an amount that may be absent (e.g. the hammer price of an unsold lot).
type NullAmount struct {
	Amount Amount
	Valid  bool
}

// Some wraps a present amount
func Some(a Amount) NullAmount {
	return NullAmount{Amount: a, Valid: true}
}

// Scan implements sql.Scanner
func (n *NullAmount) Scan(value interface{}) error {
	if value == nil {
		n.Amount, n.Valid = Zero, false
		return nil
	}
	n.Valid = true
	return n.Amount.Scan(value)
}

// Value implements driver.Valuer
func (n NullAmount) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Amount.Value()
}

// MarshalJSON renders null or the amount
func (n NullAmount) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Amount.MarshalJSON()
}

// Rate is a non-negative fraction no greater than one (fee or tax rate).
type Rate struct {
	d decimal.Decimal
}

// ZeroRate is the zero rate
var ZeroRate = Rate{d: decimal.Zero}

// NewRate validates and creates a rate
func NewRate(d decimal.Decimal) (Rate, error) {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return ZeroRate, fmt.Errorf("%w: %s", ErrInvalidRate, d.String())
	}
	return Rate{d: d}, nil
}

// ParseRate parses a rate like "0.20"
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ZeroRate, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}
	return NewRate(d)
}

// MustRate parses a rate and panics on failure
func MustRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Decimal returns the underlying decimal
func (r Rate) Decimal() decimal.Decimal {
	return r.d
}

// IsZero reports a zero rate
func (r Rate) IsZero() bool {
	return r.d.IsZero()
}

// Percent renders the rate as a percentage, e.g. "20" or "5.5"
func (r Rate) Percent() string {
	return r.d.Shift(2).String()
}

// String renders the rate at full precision, e.g. "0.2"
func (r Rate) String() string {
	return r.d.String()
}

// Scan implements sql.Scanner
func (r *Rate) Scan(value interface{}) error {
	return r.d.Scan(value)
}

// Value implements driver.Valuer
func (r Rate) Value() (driver.Value, error) {
	return r.d.String(), nil
}

// MarshalJSON renders the rate as a string
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.d.String() + `"`), nil
}

// UnmarshalJSON accepts a string or number and validates the range
func (r *Rate) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
