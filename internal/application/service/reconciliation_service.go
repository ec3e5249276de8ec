package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/internal/domain/reconciliation"
)

// ReconcileResult summarises one reconciliation run
type ReconcileResult struct {
	SaleID        int64                `json:"sale_id"`
	RunID         int64                `json:"run_id"`
	Version       int                  `json:"version"`
	Stats         reconciliation.Stats `json:"stats"`
	BuyersCreated int                  `json:"buyers_created"`
	Problems      []apperr.ItemError   `json:"problems"`
}

// ReconciliationService matches reported results against the lot mapping and
// serves the latest result set
type ReconciliationService interface {
	Reconcile(ctx context.Context, saleID int64, rows []reconciliation.ImportedRow) (*ReconcileResult, error)
	Results(ctx context.Context, saleID int64, filter reconciliation.Filter) ([]*entity.ReconciliationResult, error)
	Stats(ctx context.Context, saleID int64) (reconciliation.Stats, error)
	Export(ctx context.Context, saleID int64, filter reconciliation.Filter, format string, w io.Writer) error
}

type reconciliationServiceImpl struct {
	saleRepo    port.SaleRepository
	actorRepo   port.ActorRepository
	mappingRepo port.MappingRepository
	resultRepo  port.ReconciliationRepository
	txManager   port.TransactionManager
	reports     port.ReportWriter
	locks       *SaleLocks
	publisher   EventPublisher
	logger      Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	saleRepo port.SaleRepository,
	actorRepo port.ActorRepository,
	mappingRepo port.MappingRepository,
	resultRepo port.ReconciliationRepository,
	txManager port.TransactionManager,
	reports port.ReportWriter,
	locks *SaleLocks,
	publisher EventPublisher,
	logger Logger,
) ReconciliationService {
	return &reconciliationServiceImpl{
		saleRepo:    saleRepo,
		actorRepo:   actorRepo,
		mappingRepo: mappingRepo,
		resultRepo:  resultRepo,
		txManager:   txManager,
		reports:     reports,
		locks:       locks,
		publisher:   publisher,
		logger:      logger,
	}
}

// Reconcile classifies every lot of the sale and stores the outcome as a new
// version of its result set. Buyers of sold lots are resolved or created in
// the same transaction.
func (s *reconciliationServiceImpl) Reconcile(ctx context.Context, saleID int64, rows []reconciliation.ImportedRow) (*ReconcileResult, error) {
	release, err := s.locks.TryLock(saleID, "reconciliation")
	if err != nil {
		return nil, err
	}
	defer release()

	s.logger.Info("Reconciliation started", "sale_id", saleID, "rows", len(rows))

	result := &ReconcileResult{SaleID: saleID}
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, err := loadSale(txCtx, s.saleRepo, saleID)
		if err != nil {
			return err
		}
		if err := requireOpen(sale); err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusMapped {
			return apperr.Precondition(apperr.Sale(saleID), "sale has no lot mapping")
		}

		mappings, err := s.mappingRepo.ListBySale(txCtx, saleID)
		if err != nil {
			return fmt.Errorf("list mappings: %w", err)
		}

		report, err := reconciliation.Match(mappings, rows)
		if err != nil {
			return err
		}
		result.Problems = report.Problems

		buyers := newBuyerResolver(s.actorRepo)
		results := make([]*entity.ReconciliationResult, 0, len(report.Outcomes))
		for _, outcome := range report.Outcomes {
			res := reconciliation.ToResult(saleID, outcome)
			if sold, ok := outcome.(reconciliation.Sold); ok && !sold.Buyer.IsEmpty() {
				buyer, err := buyers.resolve(txCtx, sold.Buyer)
				if err != nil {
					return err
				}
				res.BuyerID = &buyer.ID
				res.BuyerName = buyer.Name
			}
			results = append(results, res)
		}
		result.BuyersCreated = buyers.created

		if err := ctx.Err(); err != nil {
			return err
		}

		run := &entity.ReconciliationRun{SaleID: saleID, RowCount: len(rows)}
		if err := s.resultRepo.CreateRun(txCtx, run); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		if err := s.resultRepo.InsertResults(txCtx, run.ID, results); err != nil {
			return fmt.Errorf("store results: %w", err)
		}

		result.RunID = run.ID
		result.Version = run.Version
		result.Stats = reconciliation.Summarize(results)
		return nil
	})
	if err != nil {
		s.logger.Error("Reconciliation failed", "error", err, "sale_id", saleID)
		return nil, err
	}

	logProblems(s.logger, "reconciliation", result.Problems)
	s.logger.Info("Reconciliation completed",
		"sale_id", saleID,
		"version", result.Version,
		"processed", result.Stats.Processed,
		"matched", result.Stats.Matched,
		"unsold", result.Stats.Unsold,
		"anomalies", result.Stats.Anomalies,
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeReconciliationDone, "sale", saleID, map[string]interface{}{
		"version":   result.Version,
		"processed": result.Stats.Processed,
		"matched":   result.Stats.Matched,
		"unsold":    result.Stats.Unsold,
		"anomalies": result.Stats.Anomalies,
	}))
	return result, nil
}

// Results returns the filtered latest result set of a sale
func (s *reconciliationServiceImpl) Results(ctx context.Context, saleID int64, filter reconciliation.Filter) ([]*entity.ReconciliationResult, error) {
	results, err := latestResults(ctx, s.saleRepo, s.resultRepo, saleID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(results), nil
}

// Stats summarises the latest result set of a sale
func (s *reconciliationServiceImpl) Stats(ctx context.Context, saleID int64) (reconciliation.Stats, error) {
	results, err := latestResults(ctx, s.saleRepo, s.resultRepo, saleID)
	if err != nil {
		return reconciliation.Stats{}, err
	}
	return reconciliation.Summarize(results), nil
}

// Export writes the filtered latest result set as xlsx or csv
func (s *reconciliationServiceImpl) Export(ctx context.Context, saleID int64, filter reconciliation.Filter, format string, w io.Writer) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != port.ReportFormatXLSX && format != port.ReportFormatCSV {
		return apperr.Validation(apperr.Field("format"), "unsupported export format %q", format)
	}

	results, err := s.Results(ctx, saleID, filter)
	if err != nil {
		return err
	}
	if err := s.reports.Write(w, format, results); err != nil {
		s.logger.Error("Failed to export results", "error", err, "sale_id", saleID, "format", format)
		return fmt.Errorf("export results: %w", err)
	}

	s.logger.Info("Results exported", "sale_id", saleID, "format", format, "rows", len(results))
	return nil
}

// latestResults loads the newest result version, failing when the sale was never reconciled
func latestResults(ctx context.Context, saleRepo port.SaleRepository, repo port.ReconciliationRepository, saleID int64) ([]*entity.ReconciliationResult, error) {
	if _, err := loadSale(ctx, saleRepo, saleID); err != nil {
		return nil, err
	}

	run, err := repo.LatestRun(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	if run == nil {
		return nil, apperr.Precondition(apperr.Sale(saleID), "sale has not been reconciled")
	}

	results, err := repo.ListResults(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// buyerResolver finds or creates buyers, email first then name
type buyerResolver struct {
	repo    port.ActorRepository
	cache   map[string]*entity.Actor
	created int
}

func newBuyerResolver(repo port.ActorRepository) *buyerResolver {
	return &buyerResolver{repo: repo, cache: make(map[string]*entity.Actor)}
}

func (b *buyerResolver) resolve(ctx context.Context, ref reconciliation.BuyerRef) (*entity.Actor, error) {
	email := strings.ToLower(strings.TrimSpace(ref.Email))
	name := ref.FullName()

	key := "name:" + name
	if email != "" {
		key = "email:" + email
	}
	if buyer, ok := b.cache[key]; ok {
		return buyer, nil
	}

	var buyer *entity.Actor
	var err error
	if email != "" {
		if buyer, err = b.repo.GetByEmail(ctx, email, entity.ActorTypeBuyer); err != nil {
			return nil, fmt.Errorf("find buyer by email: %w", err)
		}
	}
	if buyer == nil && name != "" {
		if buyer, err = b.repo.GetByName(ctx, name, entity.ActorTypeBuyer); err != nil {
			return nil, fmt.Errorf("find buyer by name: %w", err)
		}
	}
	if buyer == nil {
		if name == "" {
			name = email
		}
		buyer = &entity.Actor{
			Name:       name,
			Type:       entity.ActorTypeBuyer,
			Email:      email,
			Phone:      ref.Phone,
			Address:    ref.Address,
			SirenSiret: ref.SirenSiret,
			VATSubject: strings.TrimSpace(ref.SirenSiret) != "",
		}
		if err := b.repo.Create(ctx, buyer); err != nil {
			return nil, fmt.Errorf("create buyer %q: %w", name, err)
		}
		b.created++
	}

	b.cache[key] = buyer
	return buyer, nil
}
