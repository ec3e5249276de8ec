package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
)

const settlementColumns = `id, sale_id, seller_id, seller_name, kind, lot_count, gross, commission,
	commission_vat, platform_fee, amount, status, batch_id, exported_at, paid_at, created_at`

// SettlementRepository implements port.SettlementRepository
type SettlementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *sql.DB, logger *zap.Logger) port.SettlementRepository {
	return &SettlementRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new settlement
func (r *SettlementRepository) Create(ctx context.Context, s *entity.Settlement) error {
	query := `
		INSERT INTO settlements (
			sale_id, seller_id, seller_name, kind, lot_count, gross, commission,
			commission_vat, platform_fee, amount, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		s.SaleID,
		s.SellerID,
		s.SellerName,
		s.Kind,
		s.LotCount,
		s.Gross,
		s.Commission,
		s.CommissionVAT,
		s.PlatformFee,
		s.Amount,
		s.Status,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create settlement",
			zap.Int64("sale_id", s.SaleID),
			zap.Int64("seller_id", s.SellerID),
			zap.Error(err))
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	return nil
}

// GetByID retrieves a settlement by ID
func (r *SettlementRepository) GetByID(ctx context.Context, id int64) (*entity.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = ?`

	s, err := scanSettlement(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get settlement", zap.Int64("settlement_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// ListBySale retrieves the settlements of a sale ordered by seller
func (r *SettlementRepository) ListBySale(ctx context.Context, saleID int64) ([]*entity.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE sale_id = ? ORDER BY seller_id, id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, saleID)
	if err != nil {
		r.logger.Error("Failed to list settlements", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*entity.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

// DeletePending removes the PENDING settlements of one seller of a sale
func (r *SettlementRepository) DeletePending(ctx context.Context, saleID, sellerID int64) error {
	query := `DELETE FROM settlements WHERE sale_id = ? AND seller_id = ? AND status = ?`

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, saleID, sellerID, entity.SettlementStatusPending); err != nil {
		r.logger.Error("Failed to delete pending settlements",
			zap.Int64("sale_id", saleID),
			zap.Int64("seller_id", sellerID),
			zap.Error(err))
		return fmt.Errorf("failed to delete pending settlements: %w", err)
	}
	return nil
}

// Transition is a guarded status update: only a settlement still in the from
// status changes. Moving to EXPORTED stamps the batch and export time, moving
// to PAID stamps the payment time.
func (r *SettlementRepository) Transition(ctx context.Context, id int64, from, to string, batchID *int64, at time.Time) (int64, error) {
	var query string
	var args []interface{}
	switch to {
	case entity.SettlementStatusExported:
		query = `UPDATE settlements SET status = ?, batch_id = ?, exported_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, nullInt64(batchID), at, id, from}
	case entity.SettlementStatusPaid:
		query = `UPDATE settlements SET status = ?, paid_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, at, id, from}
	default:
		query = `UPDATE settlements SET status = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, id, from}
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to transition settlement",
			zap.Int64("settlement_id", id),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
		return 0, fmt.Errorf("failed to transition settlement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

func (r *SettlementRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

func scanSettlement(row rowScanner) (*entity.Settlement, error) {
	var s entity.Settlement
	var batchID sql.NullInt64
	var exportedAt, paidAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.SaleID,
		&s.SellerID,
		&s.SellerName,
		&s.Kind,
		&s.LotCount,
		&s.Gross,
		&s.Commission,
		&s.CommissionVAT,
		&s.PlatformFee,
		&s.Amount,
		&s.Status,
		&batchID,
		&exportedAt,
		&paidAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.BatchID = int64Ptr(batchID)
	s.ExportedAt = timePtr(exportedAt)
	s.PaidAt = timePtr(paidAt)
	return &s, nil
}

// Verify interface compliance
var _ port.SettlementRepository = (*SettlementRepository)(nil)
