package event

// Type identifies the type of domain event
type Type string

const (
	TypeMappingImported       Type = "mapping.imported"
	TypeReconciliationDone    Type = "reconciliation.completed"
	TypeInvoicesGenerated     Type = "invoices.generated"
	TypeInvoiceIssued         Type = "invoice.issued"
	TypeSettlementsComputed   Type = "settlements.computed"
	TypeSettlementCorrected   Type = "settlement.corrected"
	TypeSettlementsExported   Type = "settlements.exported"
	TypeSettlementPaid        Type = "settlement.paid"
	TypeSaleCreated           Type = "sale.created"
	TypeSaleClosed            Type = "sale.closed"
	TypeActorDeleted          Type = "actor.deleted"
	TypeCompanyProfileUpdated Type = "company.updated"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeMappingImported,
		TypeReconciliationDone,
		TypeInvoicesGenerated,
		TypeInvoiceIssued,
		TypeSettlementsComputed,
		TypeSettlementCorrected,
		TypeSettlementsExported,
		TypeSettlementPaid,
		TypeSaleCreated,
		TypeSaleClosed,
		TypeActorDeleted,
		TypeCompanyProfileUpdated:
		return true
	default:
		return false
	}
}
