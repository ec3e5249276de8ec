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

// SaleRepository implements port.SaleRepository
type SaleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *sql.DB, logger *zap.Logger) port.SaleRepository {
	return &SaleRepository{
		db:     db,
		logger: logger,
	}
}

const saleColumns = `id, name, number, sale_date, status, buyer_fee_rate, seller_fee_rate,
	platform_fee_rate, created_at, updated_at`

// Create creates a new sale record
func (r *SaleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (
			name, number, sale_date, status, buyer_fee_rate, seller_fee_rate, platform_fee_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		sale.Name,
		sale.Number,
		sale.Date.Format(dateLayout),
		sale.Status,
		sale.BuyerFeeRate,
		sale.SellerFeeRate,
		sale.PlatformFeeRate,
	)
	if err != nil {
		r.logger.Error("Failed to create sale", zap.String("number", sale.Number), zap.Error(err))
		return fmt.Errorf("failed to create sale: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sale.ID = id
	return nil
}

// GetByID retrieves a sale by ID
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = ?`

	sale, err := scanSale(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get sale", zap.Int64("sale_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// List retrieves sales, most recent first
func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales ORDER BY sale_date DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list sales", zap.Error(err))
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*entity.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// UpdateStatus updates the lifecycle status of a sale
func (r *SaleRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE sales SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("Failed to update sale status",
			zap.Int64("sale_id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update sale status: %w", err)
	}
	return nil
}

// CountByDate counts the sales held on the given day
func (r *SaleRepository) CountByDate(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales WHERE date(sale_date) = ?`, day.Format(dateLayout)).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count sales by date", zap.Time("day", day), zap.Error(err))
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSale(row rowScanner) (*entity.Sale, error) {
	var sale entity.Sale
	err := row.Scan(
		&sale.ID,
		&sale.Name,
		&sale.Number,
		&sale.Date,
		&sale.Status,
		&sale.BuyerFeeRate,
		&sale.SellerFeeRate,
		&sale.PlatformFeeRate,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *SaleRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.SaleRepository = (*SaleRepository)(nil)
