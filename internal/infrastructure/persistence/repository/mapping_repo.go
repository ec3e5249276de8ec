package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
	"github.com/auctify/settlement-engine/internal/infrastructure/persistence/sqlite"
)

// MappingRepository implements port.MappingRepository
type MappingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMappingRepository creates a new lot mapping repository
func NewMappingRepository(db *sql.DB, logger *zap.Logger) port.MappingRepository {
	return &MappingRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForSale supersedes the mapping of a sale. Callers run it inside a
// transaction so the replacement is all-or-nothing.
func (r *MappingRepository) ReplaceForSale(ctx context.Context, saleID int64, mappings []*entity.LotMapping) error {
	exec := r.getExecutor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM lot_mappings WHERE sale_id = ?`, saleID); err != nil {
		r.logger.Error("Failed to clear lot mappings", zap.Int64("sale_id", saleID), zap.Error(err))
		return fmt.Errorf("failed to clear lot mappings: %w", err)
	}

	query := `INSERT INTO lot_mappings (sale_id, lot_number, seller_id, description) VALUES (?, ?, ?, ?)`
	for _, m := range mappings {
		result, err := exec.ExecContext(ctx, query, saleID, m.LotNumber, m.SellerID, m.Description)
		if err != nil {
			r.logger.Error("Failed to insert lot mapping",
				zap.Int64("sale_id", saleID),
				zap.Int("lot_number", m.LotNumber),
				zap.Error(err))
			return fmt.Errorf("failed to insert mapping for lot %d: %w", m.LotNumber, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			m.ID = id
		}
		m.SaleID = saleID
	}
	return nil
}

// ListBySale retrieves the mapping of a sale ordered by lot number
func (r *MappingRepository) ListBySale(ctx context.Context, saleID int64) ([]*entity.LotMapping, error) {
	query := `
		SELECT m.id, m.sale_id, m.lot_number, m.seller_id, a.name, m.description
		FROM lot_mappings m
		JOIN actors a ON a.id = m.seller_id
		WHERE m.sale_id = ?
		ORDER BY m.lot_number
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, saleID)
	if err != nil {
		r.logger.Error("Failed to list lot mappings", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list lot mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*entity.LotMapping
	for rows.Next() {
		var m entity.LotMapping
		if err := rows.Scan(&m.ID, &m.SaleID, &m.LotNumber, &m.SellerID, &m.SellerName, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan lot mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

func (r *MappingRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.MappingRepository = (*MappingRepository)(nil)
