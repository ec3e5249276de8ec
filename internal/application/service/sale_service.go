package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/apperr"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/domain/event"
	"github.com/auctify/settlement-engine/internal/domain/money"
	"github.com/auctify/settlement-engine/internal/domain/workflow"
)

// CreateSaleInput holds the fields of a new sale
type CreateSaleInput struct {
	Name            string     `json:"name"`
	Date            time.Time  `json:"date"`
	BuyerFeeRate    money.Rate `json:"buyer_fee_rate"`
	SellerFeeRate   money.Rate `json:"seller_fee_rate"`
	PlatformFeeRate money.Rate `json:"platform_fee_rate"`
}

// SaleService manages auction sales
type SaleService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*entity.Sale, error)
	GetSale(ctx context.Context, id int64) (*entity.Sale, error)
	ListSales(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
	CloseSale(ctx context.Context, id int64) (*entity.Sale, error)
}

type saleServiceImpl struct {
	saleRepo  port.SaleRepository
	txManager port.TransactionManager
	publisher EventPublisher
	logger    Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo port.SaleRepository,
	txManager port.TransactionManager,
	publisher EventPublisher,
	logger Logger,
) SaleService {
	return &saleServiceImpl{
		saleRepo:  saleRepo,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// SaleNumber formats the number of the nth sale held on day: DD-MM-YYYY-NNNN
func SaleNumber(day time.Time, nth int) string {
	return fmt.Sprintf("%s-%04d", day.Format("02-01-2006"), nth)
}

// CreateSale numbers and stores a new sale
func (s *saleServiceImpl) CreateSale(ctx context.Context, input CreateSaleInput) (*entity.Sale, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation(apperr.Field("name"), "sale name is required")
	}
	if input.Date.IsZero() {
		return nil, apperr.Validation(apperr.Field("date"), "sale date is required")
	}

	sale := &entity.Sale{
		Name:            name,
		Date:            input.Date,
		Status:          entity.SaleStatusCreated,
		BuyerFeeRate:    input.BuyerFeeRate,
		SellerFeeRate:   input.SellerFeeRate,
		PlatformFeeRate: input.PlatformFeeRate,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		count, err := s.saleRepo.CountByDate(txCtx, input.Date)
		if err != nil {
			return fmt.Errorf("count sales: %w", err)
		}
		sale.Number = SaleNumber(input.Date, count+1)

		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create sale", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("Sale created", "sale_id", sale.ID, "number", sale.Number)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSaleCreated, "sale", sale.ID, map[string]interface{}{
		"number": sale.Number,
	}))
	return sale, nil
}

// GetSale retrieves a sale or reports it missing
func (s *saleServiceImpl) GetSale(ctx context.Context, id int64) (*entity.Sale, error) {
	return loadSale(ctx, s.saleRepo, id)
}

// ListSales lists sales, most recent first
func (s *saleServiceImpl) ListSales(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sales, err := s.saleRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list sales", "error", err)
		return nil, err
	}
	return sales, nil
}

// CloseSale moves a MAPPED sale to CLOSED
func (s *saleServiceImpl) CloseSale(ctx context.Context, id int64) (*entity.Sale, error) {
	var sale *entity.Sale
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sale, err = loadSale(txCtx, s.saleRepo, id)
		if err != nil {
			return err
		}

		next, err := workflow.Next(txCtx, workflow.SaleMachine(workflow.State(sale.Status)), workflow.TriggerClose)
		if err != nil {
			return apperr.Precondition(apperr.Sale(id), "cannot close a %s sale: %v", sale.Status, err)
		}

		if err := s.saleRepo.UpdateStatus(txCtx, id, next.String()); err != nil {
			return fmt.Errorf("close sale: %w", err)
		}
		sale.Status = next.String()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to close sale", "error", err, "sale_id", id)
		return nil, err
	}

	s.logger.Info("Sale closed", "sale_id", id)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeSaleClosed, "sale", id, nil))
	return sale, nil
}

// loadSale fetches a sale and turns a missing row into ErrNotFound
func loadSale(ctx context.Context, repo port.SaleRepository, id int64) (*entity.Sale, error) {
	sale, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if sale == nil {
		return nil, apperr.NotFound(apperr.Sale(id))
	}
	return sale, nil
}

// requireOpen rejects changes to a CLOSED sale
func requireOpen(sale *entity.Sale) error {
	if sale.IsClosed() {
		return apperr.ImmutableState(apperr.Sale(sale.ID), "sale is closed")
	}
	return nil
}
