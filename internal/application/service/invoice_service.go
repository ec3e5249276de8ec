package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/internal/domain/pricing"
	"github.com/auctify/settlement-engine/internal/domain/workflow"
)

// InvoiceSettings holds the billing identity used when invoicing
type InvoiceSettings struct {
	LegalEntity string
	Prefix      string
	Rule        pricing.TaxRule

	// Now is the clock used for signature dates; time.Now when nil
	Now func() time.Time
}

// GenerateResult summarises a draft generation
type GenerateResult struct {
	SaleID   int64              `json:"sale_id"`
	Created  []*entity.Invoice  `json:"created"`
	Skipped  int                `json:"skipped"`
	Problems []apperr.ItemError `json:"problems"`
}

// IssueResult summarises the issuing of a sale's drafts
type IssueResult struct {
	SaleID   int64              `json:"sale_id"`
	Issued   []*entity.Invoice  `json:"issued"`
	Problems []apperr.ItemError `json:"problems"`
}

// Verification is the outcome of recomputing an issued invoice's hash
type Verification struct {
	InvoiceID    int64  `json:"invoice_id"`
	Number       string `json:"number"`
	Valid        bool   `json:"valid"`
	StoredHash   string `json:"stored_hash"`
	ComputedHash string `json:"computed_hash"`
}

// InvoiceService generates, issues and verifies buyer invoices
type InvoiceService interface {
	GenerateInvoices(ctx context.Context, saleID int64) (*GenerateResult, error)
	IssueInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	IssueSale(ctx context.Context, saleID int64) (*IssueResult, error)
	VerifyInvoice(ctx context.Context, id int64) (*Verification, error)
	ListInvoices(ctx context.Context, saleID int64) ([]*entity.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	InvoiceXML(ctx context.Context, id int64) ([]byte, error)
}

type invoiceServiceImpl struct {
	saleRepo    port.SaleRepository
	actorRepo   port.ActorRepository
	resultRepo  port.ReconciliationRepository
	invoiceRepo port.InvoiceRepository
	companyRepo port.CompanyRepository
	txManager   port.TransactionManager
	documents   port.InvoiceDocumentEncoder
	locks       *SaleLocks
	entityLocks *KeyedMutex
	settings    InvoiceSettings
	publisher   EventPublisher
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	saleRepo port.SaleRepository,
	actorRepo port.ActorRepository,
	resultRepo port.ReconciliationRepository,
	invoiceRepo port.InvoiceRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	documents port.InvoiceDocumentEncoder,
	locks *SaleLocks,
	entityLocks *KeyedMutex,
	settings InvoiceSettings,
	publisher EventPublisher,
	logger Logger,
) InvoiceService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.Rule == nil {
		settings.Rule = pricing.NoVATRule{}
	}
	return &invoiceServiceImpl{
		saleRepo:    saleRepo,
		actorRepo:   actorRepo,
		resultRepo:  resultRepo,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		txManager:   txManager,
		documents:   documents,
		locks:       locks,
		entityLocks: entityLocks,
		settings:    settings,
		publisher:   publisher,
		logger:      logger,
	}
}

// GenerateInvoices creates a DRAFT invoice for every buyer of the sale that
// does not have one yet
func (s *invoiceServiceImpl) GenerateInvoices(ctx context.Context, saleID int64) (*GenerateResult, error) {
	release, err := s.locks.TryLock(saleID, "invoice generation")
	if err != nil {
		return nil, err
	}
	defer release()

	s.logger.Info("Invoice generation started", "sale_id", saleID)

	result := &GenerateResult{SaleID: saleID}
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, err := loadSale(txCtx, s.saleRepo, saleID)
		if err != nil {
			return err
		}
		results, err := latestResults(txCtx, s.saleRepo, s.resultRepo, saleID)
		if err != nil {
			return err
		}

		existing, err := s.invoiceRepo.ListBySale(txCtx, saleID)
		if err != nil {
			return fmt.Errorf("list invoices: %w", err)
		}
		invoiced := make(map[int64]bool, len(existing))
		for _, inv := range existing {
			invoiced[inv.BuyerID] = true
		}

		sellers := make(map[int64]*entity.Actor)
		byBuyer := make(map[int64][]pricing.SoldLot)
		for _, res := range results {
			if !res.IsSold() {
				continue
			}
			if res.BuyerID == nil {
				result.Problems = append(result.Problems,
					apperr.Item(apperr.Precondition(apperr.Lot(res.LotNumber), "sold lot has no buyer")))
				continue
			}
			if !res.HammerPrice.Valid {
				return apperr.DataIntegrity(apperr.Lot(res.LotNumber), "sold without hammer price")
			}

			vatSubject := false
			if res.SellerID != nil {
				seller, err := s.cachedActor(txCtx, sellers, *res.SellerID)
				if err != nil {
					return err
				}
				vatSubject = seller.VATSubject
			}

			byBuyer[*res.BuyerID] = append(byBuyer[*res.BuyerID], pricing.SoldLot{
				LotNumber:        res.LotNumber,
				Description:      res.Description,
				Status:           res.Status,
				HammerPrice:      res.HammerPrice,
				SellerID:         derefID(res.SellerID),
				SellerVATSubject: vatSubject,
			})
		}

		buyerIDs := make([]int64, 0, len(byBuyer))
		for id := range byBuyer {
			buyerIDs = append(buyerIDs, id)
		}
		sort.Slice(buyerIDs, func(i, j int) bool { return buyerIDs[i] < buyerIDs[j] })

		for _, buyerID := range buyerIDs {
			if invoiced[buyerID] {
				result.Skipped++
				continue
			}
			buyer, err := s.actorRepo.GetByID(txCtx, buyerID)
			if err != nil {
				return fmt.Errorf("get buyer: %w", err)
			}
			if buyer == nil {
				return apperr.DataIntegrity(apperr.Buyer(buyerID), "buyer referenced by results does not exist")
			}

			inv, err := pricing.ComputeInvoice(sale, buyer, byBuyer[buyerID], s.settings.Rule)
			if err != nil {
				return err
			}
			inv.LegalEntity = s.settings.LegalEntity
			if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
				return fmt.Errorf("create invoice for buyer %d: %w", buyerID, err)
			}
			result.Created = append(result.Created, inv)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Invoice generation failed", "error", err, "sale_id", saleID)
		return nil, err
	}

	logProblems(s.logger, "invoice generation", result.Problems)
	s.logger.Info("Invoice generation completed",
		"sale_id", saleID,
		"created", len(result.Created),
		"skipped", result.Skipped,
		"problems", len(result.Problems),
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeInvoicesGenerated, "sale", saleID, map[string]interface{}{
		"created": len(result.Created),
		"skipped": result.Skipped,
	}))
	return result, nil
}

// IssueInvoice assigns the next number of the legal entity, signs and chains
// a draft. Numbers are reserved inside the transaction, so a failed issue
// leaves no gap.
func (s *invoiceServiceImpl) IssueInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	unlock := s.entityLocks.Lock(s.settings.LegalEntity)
	defer unlock()

	var inv *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if inv, err = s.GetInvoice(txCtx, id); err != nil {
			return err
		}
		if inv.IsIssued() {
			return apperr.ImmutableState(apperr.Invoice(id), "invoice %s is already issued", inv.Number)
		}
		next, err := workflow.Next(txCtx, workflow.InvoiceMachine(workflow.State(inv.Status)), workflow.TriggerIssue)
		if err != nil {
			return apperr.Precondition(apperr.Invoice(id), "cannot issue: %v", err)
		}

		signed := s.settings.Now().UTC().Truncate(time.Second)
		seq, err := s.invoiceRepo.NextSequence(txCtx, inv.LegalEntity, signed.Year())
		if err != nil {
			return err
		}
		previous, err := s.invoiceRepo.LastIssuedHash(txCtx, inv.LegalEntity)
		if err != nil {
			return err
		}
		if previous == "" {
			previous = pricing.GenesisHash
		}

		inv.Year = signed.Year()
		inv.Sequence = seq
		inv.Number = pricing.FormatNumber(s.settings.Prefix, inv.Year, seq)
		inv.SignatureDate = &signed
		inv.PreviousHash = previous
		inv.Hash = pricing.ContentHash(inv)

		if err := s.invoiceRepo.MarkIssued(txCtx, inv); err != nil {
			return err
		}
		inv.Status = next.String()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to issue invoice", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Info("Invoice issued", "invoice_id", id, "number", inv.Number, "sale_id", inv.SaleID)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeInvoiceIssued, "invoice", id, map[string]interface{}{
		"number":  inv.Number,
		"sale_id": inv.SaleID,
		"hash":    inv.Hash,
	}))
	return inv, nil
}

// IssueSale issues every draft of a sale, one transaction per invoice
func (s *invoiceServiceImpl) IssueSale(ctx context.Context, saleID int64) (*IssueResult, error) {
	if _, err := loadSale(ctx, s.saleRepo, saleID); err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	result := &IssueResult{SaleID: saleID}
	for _, inv := range invoices {
		if inv.IsIssued() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		issued, err := s.IssueInvoice(ctx, inv.ID)
		if err != nil {
			if _, ok := apperr.SubjectOf(err); !ok {
				return result, err
			}
			result.Problems = append(result.Problems, apperr.Item(err))
			continue
		}
		result.Issued = append(result.Issued, issued)
	}

	s.logger.Info("Sale invoices issued", "sale_id", saleID, "issued", len(result.Issued), "problems", len(result.Problems))
	return result, nil
}

// VerifyInvoice recomputes the hash of an issued invoice from its stored content
func (s *invoiceServiceImpl) VerifyInvoice(ctx context.Context, id int64) (*Verification, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsIssued() {
		return nil, apperr.Precondition(apperr.Invoice(id), "only issued invoices carry a hash")
	}

	computed := pricing.ContentHash(inv)
	v := &Verification{
		InvoiceID:    id,
		Number:       inv.Number,
		Valid:        computed == inv.Hash,
		StoredHash:   inv.Hash,
		ComputedHash: computed,
	}
	if !v.Valid {
		s.logger.Error("Invoice hash mismatch", "invoice_id", id, "number", inv.Number)
	}
	return v, nil
}

// ListInvoices lists the invoices of a sale
func (s *invoiceServiceImpl) ListInvoices(ctx context.Context, saleID int64) ([]*entity.Invoice, error) {
	if _, err := loadSale(ctx, s.saleRepo, saleID); err != nil {
		return nil, err
	}
	return s.invoiceRepo.ListBySale(ctx, saleID)
}

// GetInvoice retrieves an invoice with its lines
func (s *invoiceServiceImpl) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv == nil {
		return nil, apperr.NotFound(apperr.Invoice(id))
	}
	return inv, nil
}

// InvoiceXML renders an issued invoice as a Cross Industry Invoice document,
// with the company profile as the seller party
func (s *invoiceServiceImpl) InvoiceXML(ctx context.Context, id int64) ([]byte, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsIssued() {
		return nil, apperr.Precondition(apperr.Invoice(id), "only issued invoices have a structured document")
	}

	profile, err := s.companyRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get company profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.Precondition(apperr.Named("company", "profile"), "company profile is not configured")
	}

	doc, err := s.documents.Encode(inv, *profile)
	if err != nil {
		s.logger.Error("Failed to encode invoice document", "invoice_id", id, "error", err)
		return nil, fmt.Errorf("encode invoice %s: %w", inv.Number, err)
	}
	return doc, nil
}

func (s *invoiceServiceImpl) cachedActor(ctx context.Context, cache map[int64]*entity.Actor, id int64) (*entity.Actor, error) {
	if actor, ok := cache[id]; ok {
		return actor, nil
	}
	actor, err := s.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get actor %d: %w", id, err)
	}
	if actor == nil {
		return nil, apperr.DataIntegrity(apperr.Actor(id), "actor referenced by results does not exist")
	}
	cache[id] = actor
	return actor, nil
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
