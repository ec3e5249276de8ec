package service

import (
	"context"
	"fmt"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/internal/domain/reconciliation"
	"github.com/auctify/settlement-engine/internal/domain/workflow"
)

// MappingImportResult summarises a mapping import
type MappingImportResult struct {
	SaleID         int64              `json:"sale_id"`
	Imported       int                `json:"imported"`
	SellersCreated int                `json:"sellers_created"`
	Problems       []apperr.ItemError `json:"problems"`
}

// MappingService manages the pre-sale lot to seller mapping
type MappingService interface {
	ImportMapping(ctx context.Context, saleID int64, rows []reconciliation.MappingRow) (*MappingImportResult, error)
	ListMappings(ctx context.Context, saleID int64) ([]*entity.LotMapping, error)
}

type mappingServiceImpl struct {
	saleRepo    port.SaleRepository
	actorRepo   port.ActorRepository
	mappingRepo port.MappingRepository
	txManager   port.TransactionManager
	locks       *SaleLocks
	publisher   EventPublisher
	logger      Logger
}

// NewMappingService creates a new MappingService
func NewMappingService(
	saleRepo port.SaleRepository,
	actorRepo port.ActorRepository,
	mappingRepo port.MappingRepository,
	txManager port.TransactionManager,
	locks *SaleLocks,
	publisher EventPublisher,
	logger Logger,
) MappingService {
	return &mappingServiceImpl{
		saleRepo:    saleRepo,
		actorRepo:   actorRepo,
		mappingRepo: mappingRepo,
		txManager:   txManager,
		locks:       locks,
		publisher:   publisher,
		logger:      logger,
	}
}

// ImportMapping replaces the mapping of a sale with the valid rows of an
// import. Sellers are matched by name and created when unknown.
func (s *mappingServiceImpl) ImportMapping(ctx context.Context, saleID int64, rows []reconciliation.MappingRow) (*MappingImportResult, error) {
	release, err := s.locks.TryLock(saleID, "mapping import")
	if err != nil {
		return nil, err
	}
	defer release()

	s.logger.Info("Mapping import started", "sale_id", saleID, "rows", len(rows))

	accepted, problems := reconciliation.ValidateMapping(rows)
	logProblems(s.logger, "mapping import", problems)
	if len(accepted) == 0 {
		return nil, apperr.Validation(apperr.Sale(saleID), "none of the %d mapping rows is valid", len(rows))
	}

	result := &MappingImportResult{SaleID: saleID, Problems: problems}
	var nextStatus string

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, err := loadSale(txCtx, s.saleRepo, saleID)
		if err != nil {
			return err
		}
		if err := requireOpen(sale); err != nil {
			return err
		}

		next, err := workflow.Next(txCtx, workflow.SaleMachine(workflow.State(sale.Status)), workflow.TriggerImportMapping)
		if err != nil {
			return apperr.Precondition(apperr.Sale(saleID), "cannot import a mapping: %v", err)
		}
		nextStatus = next.String()

		sellers := make(map[string]*entity.Actor)
		mappings := make([]*entity.LotMapping, 0, len(accepted))
		for _, row := range accepted {
			seller, created, err := s.resolveSeller(txCtx, sellers, row.SellerName)
			if err != nil {
				return err
			}
			if created {
				result.SellersCreated++
			}
			mappings = append(mappings, &entity.LotMapping{
				SaleID:      saleID,
				LotNumber:   row.LotNumber,
				SellerID:    seller.ID,
				SellerName:  seller.Name,
				Description: row.Description,
			})
		}

		if err := s.mappingRepo.ReplaceForSale(txCtx, saleID, mappings); err != nil {
			return fmt.Errorf("replace mapping: %w", err)
		}
		if nextStatus != sale.Status {
			if err := s.saleRepo.UpdateStatus(txCtx, saleID, nextStatus); err != nil {
				return fmt.Errorf("update sale status: %w", err)
			}
		}
		result.Imported = len(mappings)
		return nil
	})
	if err != nil {
		s.logger.Error("Mapping import failed", "error", err, "sale_id", saleID)
		return nil, err
	}

	s.logger.Info("Mapping import completed",
		"sale_id", saleID,
		"imported", result.Imported,
		"sellers_created", result.SellersCreated,
		"rejected", len(problems),
	)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeMappingImported, "sale", saleID, map[string]interface{}{
		"imported": result.Imported,
		"rejected": len(problems),
		"status":   nextStatus,
	}))
	return result, nil
}

// resolveSeller finds a seller by name or creates it, caching within one import
func (s *mappingServiceImpl) resolveSeller(ctx context.Context, cache map[string]*entity.Actor, name string) (*entity.Actor, bool, error) {
	if seller, ok := cache[name]; ok {
		return seller, false, nil
	}

	seller, err := s.actorRepo.GetByName(ctx, name, entity.ActorTypeSeller)
	if err != nil {
		return nil, false, fmt.Errorf("find seller %q: %w", name, err)
	}
	created := false
	if seller == nil {
		seller = &entity.Actor{Name: name, Type: entity.ActorTypeSeller}
		if err := s.actorRepo.Create(ctx, seller); err != nil {
			return nil, false, fmt.Errorf("create seller %q: %w", name, err)
		}
		created = true
	}

	cache[name] = seller
	return seller, created, nil
}

// ListMappings returns the current mapping of a sale
func (s *mappingServiceImpl) ListMappings(ctx context.Context, saleID int64) ([]*entity.LotMapping, error) {
	if _, err := loadSale(ctx, s.saleRepo, saleID); err != nil {
		return nil, err
	}
	return s.mappingRepo.ListBySale(ctx, saleID)
}
