package entity

// Sale status constants
const (
	SaleStatusCreated = "CREATED"
	SaleStatusMapped  = "MAPPED"
	SaleStatusClosed  = "CLOSED"
)

// Actor type constants
const (
	ActorTypeSeller = "SELLER"
	ActorTypeBuyer  = "BUYER"
)

// Reconciliation result status constants
const (
	ResultStatusSold    = "SOLD"
	ResultStatusUnsold  = "UNSOLD"
	ResultStatusAnomaly = "ANOMALY"
)

// Anomaly reasons
const (
	AnomalyUnmappedLot   = "unmapped lot"
	AnomalyMissingResult = "missing result"
	AnomalyDuplicate     = "duplicate"
	AnomalyInvalidRow    = "invalid row"
)

// Invoice status constants
const (
	InvoiceStatusDraft  = "DRAFT"
	InvoiceStatusIssued = "ISSUED"
)

// Settlement status constants
const (
	SettlementStatusPending  = "PENDING"
	SettlementStatusExported = "EXPORTED"
	SettlementStatusPaid     = "PAID"
)

// Settlement kind constants
const (
	SettlementKindRegular    = "REGULAR"
	SettlementKindCorrection = "CORRECTION"
)

// Company document types carrying a logo
const (
	DocumentInvoice    = "invoice"
	DocumentSettlement = "settlement"
	DocumentReport     = "report"
)
