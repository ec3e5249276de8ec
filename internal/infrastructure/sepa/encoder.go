// Package sepa renders payment orders as SEPA credit transfer initiation
// files (pain.001.001.03).
package sepa

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/money"
)

const (
	currency     = "EUR"
	dateLayout   = "2006-01-02"
	stampLayout  = "2006-01-02T15:04:05"
	chargeBearer = "SLEV"
)

// ErrEmptyOrder is returned when an order has no transfer
var ErrEmptyOrder = errors.New("payment order has no transfer")

// Encoder writes pain.001.001.03 documents
type Encoder struct{}

// NewEncoder creates a new Encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode renders order. Amounts are written with two decimals, free text is
// transliterated and truncated to the message limits.
func (e *Encoder) Encode(order port.PaymentOrder) ([]byte, error) {
	if len(order.Transfers) == 0 {
		return nil, ErrEmptyOrder
	}

	control := money.Zero
	txns := make([]transferTxn, 0, len(order.Transfers))
	for _, t := range order.Transfers {
		if !t.Amount.Round().IsPositive() {
			return nil, fmt.Errorf("transfer %s: amount %s is not positive", t.EndToEndID, t.Amount)
		}
		control = control.Add(t.Amount.Round())
		txns = append(txns, transferTxn{
			EndToEndID:   CleanID(t.EndToEndID),
			Amount:       instructedAmt{Currency: currency, Value: t.Amount.String()},
			CreditorBIC:  upper(t.Creditor.BIC),
			CreditorName: Clean(t.Creditor.Name, MaxNameLength),
			CreditorIBAN: upper(t.Creditor.IBAN),
			Remittance:   Clean(t.Remittance, MaxRemittanceLength),
		})
	}

	debtor := Clean(order.Debtor.Name, MaxNameLength)
	doc := document{
		Xmlns: Namespace,
		Initiate: creditTransferIn{
			GroupHeader: groupHeader{
				MessageID:      CleanID(order.MessageID),
				CreatedAt:      order.CreatedAt.UTC().Format(stampLayout),
				NbOfTxs:        len(txns),
				ControlSum:     control.String(),
				InitiatingName: debtor,
			},
			PaymentInfo: paymentInfo{
				PaymentInfoID: CleanID(order.PaymentInfoID),
				Method:        "TRF",
				NbOfTxs:       len(txns),
				ControlSum:    control.String(),
				ServiceLevel:  "SEPA",
				ExecutionDate: order.ExecutionDate.Format(dateLayout),
				DebtorName:    debtor,
				DebtorIBAN:    upper(order.Debtor.IBAN),
				DebtorBIC:     upper(order.Debtor.BIC),
				ChargeBearer:  chargeBearer,
				Transfers:     txns,
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode payment file: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func upper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// Verify interface compliance
var _ port.PaymentFileEncoder = (*Encoder)(nil)
