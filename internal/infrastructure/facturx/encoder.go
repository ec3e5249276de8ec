// Package facturx renders issued invoices as UN/CEFACT Cross Industry
// Invoice XML, the structured part of a Factur-X (EN 16931) e-invoice.
package facturx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

const (
	currencyCode      = "EUR"
	commercialInvoice = "380"
	dateFormat        = "102"
	dateLayout        = "20060102"
	unitCode          = "C62"
	vatTypeCode       = "VAT"
	sepaTransfer      = "58"
	siretScheme       = "0002"

	categoryStandard = "S"
	categoryExempt   = "E"
)

// MarginSchemeReason is stated on the untaxed part of an auction invoice
const MarginSchemeReason = "Régime particulier - Objets d'art, de collection et d'antiquité"

// ErrNotIssued is returned for drafts, which carry no number nor date
var ErrNotIssued = errors.New("only issued invoices can be rendered")

// Encoder writes Cross Industry Invoice documents
type Encoder struct{}

// NewEncoder creates a new Encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

type taxKey struct {
	category string
	rate     string
}

type taxGroup struct {
	percent string
	basis   money.Amount
	vat     money.Amount
}

// Encode renders inv with issuer as the seller party. Each lot becomes one
// line item per tax category: the taxable base at the VAT rate and the
// remainder of the line as exempt under the margin scheme.
func (e *Encoder) Encode(inv *entity.Invoice, issuer entity.CompanyProfile) ([]byte, error) {
	if inv == nil || !inv.IsIssued() || inv.SignatureDate == nil {
		return nil, ErrNotIssued
	}
	if strings.TrimSpace(issuer.LegalName) == "" {
		return nil, fmt.Errorf("invoice %s: issuer legal name is required", inv.Number)
	}

	lines := append([]*entity.InvoiceLine(nil), inv.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LotNumber < lines[j].LotNumber })

	groups := map[taxKey]*taxGroup{}
	addTax := func(key taxKey, percent string, basis, vat money.Amount) {
		g, ok := groups[key]
		if !ok {
			g = &taxGroup{percent: percent, basis: money.Zero, vat: money.Zero}
			groups[key] = g
		}
		g.basis = g.basis.Add(basis)
		g.vat = g.vat.Add(vat)
	}

	items := make([]lineItem, 0, len(lines))
	addItem := func(l *entity.InvoiceLine, net money.Amount, category, percent string) {
		items = append(items, lineItem{
			LineID:   strconv.Itoa(len(items) + 1),
			Product:  productName(l),
			NetPrice: net.String(),
			Quantity: quantity{UnitCode: unitCode, Value: "1"},
			Settlement: lineSettlement{
				Tax:       lineTax{TypeCode: vatTypeCode, CategoryCode: category, RatePercent: percent},
				LineTotal: net.String(),
			},
		})
	}

	for _, l := range lines {
		taxable := l.TaxableBase
		if l.VATRate.IsZero() {
			taxable = money.Zero
		}
		if taxable.IsPositive() {
			addItem(l, taxable, categoryStandard, l.VATRate.Percent())
			addTax(taxKey{categoryStandard, l.VATRate.String()}, l.VATRate.Percent(), taxable, l.VAT)
		}
		if rest := l.LineTotal.Sub(taxable); rest.IsPositive() || !taxable.IsPositive() {
			addItem(l, rest, categoryExempt, "0")
			addTax(taxKey{categoryExempt, "0"}, "0", rest, money.Zero)
		}
	}

	doc := crossIndustryInvoice{
		XmlnsRSM: NamespaceRSM,
		XmlnsRAM: NamespaceRAM,
		XmlnsUDT: NamespaceUDT,
		Context:  Guideline,
		Document: exchangedDocument{
			ID:        inv.Number,
			TypeCode:  commercialInvoice,
			IssueDate: dateString{Format: dateFormat, Value: inv.SignatureDate.Format(dateLayout)},
		},
		Transaction: tradeTransaction{
			Items: items,
			Agreement: headerAgreement{
				Seller: sellerParty(issuer),
				Buyer:  tradeParty{Name: inv.BuyerName},
			},
			Settlement: headerSettlement{
				Currency:     currencyCode,
				PaymentMeans: payment(issuer),
				Taxes:        headerTaxes(groups),
				Summation: summation{
					LineTotal:  inv.TotalExcl.String(),
					TaxBasis:   inv.TotalExcl.String(),
					TaxTotal:   currency{ID: currencyCode, Value: inv.TotalVAT.String()},
					GrandTotal: inv.TotalIncl.String(),
					DuePayable: inv.TotalIncl.String(),
				},
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode invoice %s: %w", inv.Number, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func productName(l *entity.InvoiceLine) string {
	name := fmt.Sprintf("Lot %d", l.LotNumber)
	if d := strings.TrimSpace(l.Description); d != "" {
		name += " - " + d
	}
	return name
}

func sellerParty(issuer entity.CompanyProfile) tradeParty {
	party := tradeParty{Name: issuer.LegalName}
	if siret := strings.ReplaceAll(issuer.SIRET, " ", ""); siret != "" {
		party.Organization = &organization{ID: schemedID{SchemeID: siretScheme, Value: siret}}
	}
	return party
}

func payment(issuer entity.CompanyProfile) *paymentMeans {
	iban := strings.ToUpper(strings.ReplaceAll(issuer.IBAN, " ", ""))
	if iban == "" {
		return nil
	}
	return &paymentMeans{
		TypeCode: sepaTransfer,
		IBAN:     iban,
		BIC:      strings.ToUpper(strings.TrimSpace(issuer.BIC)),
	}
}

func headerTaxes(groups map[taxKey]*taxGroup) []headerTax {
	keys := make([]taxKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category > keys[j].category
		}
		return keys[i].rate < keys[j].rate
	})

	taxes := make([]headerTax, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		tax := headerTax{
			Calculated:   g.vat.String(),
			TypeCode:     vatTypeCode,
			Basis:        g.basis.String(),
			CategoryCode: k.category,
			RatePercent:  g.percent,
		}
		if k.category == categoryExempt {
			tax.ExemptionReason = MarginSchemeReason
		}
		taxes = append(taxes, tax)
	}
	return taxes
}

var _ port.InvoiceDocumentEncoder = (*Encoder)(nil)
