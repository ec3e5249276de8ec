package pricing

import (
	"fmt"
	"strings"

	"github.com/auctify/settlement-engine/internal/domain/money"
)

// Tax rule names accepted by RuleByName
const (
	RulePremiumOnly = "premium_only"
	RuleStandard    = "standard"
	RuleNoVAT       = "no_vat"
)

// LineInput is what a tax rule sees of one invoice line
type LineInput struct {
	HammerPrice      money.Amount
	Premium          money.Amount
	SellerVATSubject bool
	BuyerVATSubject  bool
}

// LineTax is the taxable base and rate a rule applied to one line
type LineTax struct {
	TaxableBase money.Amount
	Rate        money.Rate
}

// VAT is the unrounded tax of the line
func (t LineTax) VAT() money.Amount {
	return t.TaxableBase.MulRate(t.Rate)
}

// TaxRule decides how VAT applies to an invoice line
type TaxRule interface {
	Name() string
	Line(in LineInput) LineTax
}

// PremiumOnlyRule taxes the buyer premium only (margin scheme on the hammer price)
type PremiumOnlyRule struct {
	Rate money.Rate
}

// Name returns the configuration name of the rule
func (r PremiumOnlyRule) Name() string {
	return RulePremiumOnly
}

// Line implements TaxRule
func (r PremiumOnlyRule) Line(in LineInput) LineTax {
	return LineTax{TaxableBase: in.Premium, Rate: r.Rate}
}

// StandardRule taxes the premium, and also the hammer price when the seller is
// subject to VAT
type StandardRule struct {
	Rate money.Rate
}

// Name returns the configuration name of the rule
func (r StandardRule) Name() string {
	return RuleStandard
}

// Line implements TaxRule
func (r StandardRule) Line(in LineInput) LineTax {
	base := in.Premium
	if in.SellerVATSubject {
		base = base.Add(in.HammerPrice)
	}
	return LineTax{TaxableBase: base, Rate: r.Rate}
}

// NoVATRule applies no tax
type NoVATRule struct{}

// Name returns the configuration name of the rule
func (NoVATRule) Name() string {
	return RuleNoVAT
}

func (NoVATRule) Line(LineInput) LineTax {
	return LineTax{TaxableBase: money.Zero, Rate: money.ZeroRate}
}

// RuleByName returns the configured tax rule
func RuleByName(name string, rate money.Rate) (TaxRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RulePremiumOnly, "":
		return PremiumOnlyRule{Rate: rate}, nil
	case RuleStandard:
		return StandardRule{Rate: rate}, nil
	case RuleNoVAT:
		return NoVATRule{}, nil
	default:
		return nil, fmt.Errorf("unknown tax rule %q", name)
	}
}
