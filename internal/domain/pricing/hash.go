package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// GenesisHash is the previous hash of the first invoice of a legal entity
const GenesisHash = "GENESIS"

// ContentHash is the SHA-256 of the frozen invoice content, chained to the
// previous invoice of the same legal entity.
func ContentHash(inv *entity.Invoice) string {
	var b strings.Builder
	b.WriteString(inv.LegalEntity)
	b.WriteByte('|')
	b.WriteString(inv.Number)
	b.WriteByte('|')
	b.WriteString(inv.BuyerName)
	b.WriteByte('|')
	b.WriteString(inv.TotalExcl.String())
	b.WriteByte('|')
	b.WriteString(inv.TotalVAT.String())
	b.WriteByte('|')
	b.WriteString(inv.TotalIncl.String())
	b.WriteByte('|')
	if inv.SignatureDate != nil {
		b.WriteString(inv.SignatureDate.UTC().Format(time.RFC3339))
	}
	for _, line := range inv.Lines {
		b.WriteByte('|')
		b.WriteString(lineFingerprint(line))
	}
	b.WriteByte('|')
	b.WriteString(inv.PreviousHash)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func lineFingerprint(l *entity.InvoiceLine) string {
	return strings.Join([]string{
		strconv.Itoa(l.LotNumber),
		l.HammerPrice.String(),
		l.Premium.String(),
		l.VAT.String(),
		l.VATRate.String(),
	}, ":")
}
