package port

import (
	"context"
	"time"

	"github.com/auctify/settlement-engine/internal/domain/entity"
)

//go:generate mockgen -destination=mocks/mock_repository.go -source=repository.go SaleRepository,CompanyRepository

// SaleRepository defines persistence operations for Sale
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
	UpdateStatus(ctx context.Context, id int64, status string) error

	// CountByDate returns how many sales are scheduled on the given day
	CountByDate(ctx context.Context, day time.Time) (int, error)
}

// ActorRepository defines persistence operations for Actor
type ActorRepository interface {
	Create(ctx context.Context, actor *entity.Actor) error
	GetByID(ctx context.Context, id int64) (*entity.Actor, error)
	GetByName(ctx context.Context, name, actorType string) (*entity.Actor, error)
	GetByEmail(ctx context.Context, email, actorType string) (*entity.Actor, error)
	List(ctx context.Context, actorType string) ([]*entity.Actor, error)
	UpdateBanking(ctx context.Context, id int64, iban, bic string, vatSubject bool) error
	Delete(ctx context.Context, id int64) error

	// CountReferences counts mappings, results, invoices and settlements pointing at the actor
	CountReferences(ctx context.Context, id int64) (int, error)
}

// MappingRepository defines persistence operations for LotMapping
type MappingRepository interface {
	// ReplaceForSale deletes every mapping of the sale and inserts the given ones
	ReplaceForSale(ctx context.Context, saleID int64, mappings []*entity.LotMapping) error
	ListBySale(ctx context.Context, saleID int64) ([]*entity.LotMapping, error)
}

// ReconciliationRepository stores versioned reconciliation runs
type ReconciliationRepository interface {
	// CreateRun inserts a run with the next version for its sale
	CreateRun(ctx context.Context, run *entity.ReconciliationRun) error
	InsertResults(ctx context.Context, runID int64, results []*entity.ReconciliationResult) error

	// LatestRun returns nil when the sale was never reconciled
	LatestRun(ctx context.Context, saleID int64) (*entity.ReconciliationRun, error)
	ListResults(ctx context.Context, runID int64) ([]*entity.ReconciliationResult, error)
}

// InvoiceRepository defines persistence operations for Invoice and its lines
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	ListBySale(ctx context.Context, saleID int64) ([]*entity.Invoice, error)

	// MarkIssued freezes a DRAFT invoice; it fails when the invoice is no longer a draft
	MarkIssued(ctx context.Context, invoice *entity.Invoice) error

	// NextSequence atomically reserves the next number of (legal entity, year)
	NextSequence(ctx context.Context, legalEntity string, year int) (int64, error)

	// LastIssuedHash returns the hash of the most recently issued invoice of the legal entity, or ""
	LastIssuedHash(ctx context.Context, legalEntity string) (string, error)
}

// SettlementRepository defines persistence operations for Settlement
type SettlementRepository interface {
	Create(ctx context.Context, settlement *entity.Settlement) error
	GetByID(ctx context.Context, id int64) (*entity.Settlement, error)
	ListBySale(ctx context.Context, saleID int64) ([]*entity.Settlement, error)

	// DeletePending removes the PENDING settlements of one seller of a sale
	DeletePending(ctx context.Context, saleID, sellerID int64) error

	// Transition moves a settlement from one status to another and returns the
	// number of rows changed (0 when the settlement was not in the expected state)
	Transition(ctx context.Context, id int64, from, to string, batchID *int64, at time.Time) (int64, error)
}

// PaymentBatchRepository stores exported SEPA files
type PaymentBatchRepository interface {
	Create(ctx context.Context, batch *entity.PaymentBatch) error
	GetByID(ctx context.Context, id int64) (*entity.PaymentBatch, error)
	ListBySale(ctx context.Context, saleID int64) ([]*entity.PaymentBatch, error)
	SetArtifactPath(ctx context.Context, id int64, path string) error

	// ListWithoutArtifact returns batches, with their XML, whose file was never written
	ListWithoutArtifact(ctx context.Context, limit int) ([]*entity.PaymentBatch, error)
}

// CompanyRepository stores the singleton company profile
type CompanyRepository interface {
	// Get returns nil when no profile was saved yet
	Get(ctx context.Context) (*entity.CompanyProfile, error)
	Save(ctx context.Context, profile *entity.CompanyProfile) error
}

// AuditRepository appends to the audit trail
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	List(ctx context.Context, resourceType string, resourceID int64, limit int) ([]*entity.AuditEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
