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

// ReconciliationRepository implements port.ReconciliationRepository
type ReconciliationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReconciliationRepository creates a new reconciliation repository
func NewReconciliationRepository(db *sql.DB, logger *zap.Logger) port.ReconciliationRepository {
	return &ReconciliationRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRun inserts a run tagged with the next version of its sale
func (r *ReconciliationRepository) CreateRun(ctx context.Context, run *entity.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (sale_id, version, row_count, created_at)
		SELECT ?, COALESCE(MAX(version), 0) + 1, ?, ?
		FROM reconciliation_runs WHERE sale_id = ?
	`

	exec := r.getExecutor(ctx)
	now := time.Now().UTC()
	result, err := exec.ExecContext(ctx, query, run.SaleID, run.RowCount, now, run.SaleID)
	if err != nil {
		r.logger.Error("Failed to create reconciliation run", zap.Int64("sale_id", run.SaleID), zap.Error(err))
		return fmt.Errorf("failed to create reconciliation run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	if err := exec.QueryRowContext(ctx, `SELECT version FROM reconciliation_runs WHERE id = ?`, id).Scan(&run.Version); err != nil {
		return fmt.Errorf("failed to read run version: %w", err)
	}

	run.ID = id
	run.CreatedAt = now
	return nil
}

// InsertResults stores the result set of a run
func (r *ReconciliationRepository) InsertResults(ctx context.Context, runID int64, results []*entity.ReconciliationResult) error {
	query := `
		INSERT INTO reconciliation_results (
			run_id, sale_id, lot_number, status, hammer_price, seller_id, seller_name,
			buyer_id, buyer_name, description, anomaly_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := r.getExecutor(ctx)
	for _, res := range results {
		result, err := exec.ExecContext(ctx, query,
			runID,
			res.SaleID,
			res.LotNumber,
			res.Status,
			res.HammerPrice,
			nullInt64(res.SellerID),
			res.SellerName,
			nullInt64(res.BuyerID),
			res.BuyerName,
			res.Description,
			res.AnomalyReason,
		)
		if err != nil {
			r.logger.Error("Failed to insert reconciliation result",
				zap.Int64("run_id", runID),
				zap.Int("lot_number", res.LotNumber),
				zap.Error(err))
			return fmt.Errorf("failed to insert result for lot %d: %w", res.LotNumber, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			res.ID = id
		}
		res.RunID = runID
	}
	return nil
}

// LatestRun returns the highest version run of a sale
func (r *ReconciliationRepository) LatestRun(ctx context.Context, saleID int64) (*entity.ReconciliationRun, error) {
	query := `
		SELECT id, sale_id, version, row_count, created_at
		FROM reconciliation_runs
		WHERE sale_id = ?
		ORDER BY version DESC
		LIMIT 1
	`

	var run entity.ReconciliationRun
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, saleID).
		Scan(&run.ID, &run.SaleID, &run.Version, &run.RowCount, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest reconciliation run", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListResults retrieves the results of a run ordered by lot number
func (r *ReconciliationRepository) ListResults(ctx context.Context, runID int64) ([]*entity.ReconciliationResult, error) {
	query := `
		SELECT id, run_id, sale_id, lot_number, status, hammer_price, seller_id, seller_name,
			buyer_id, buyer_name, description, anomaly_reason
		FROM reconciliation_results
		WHERE run_id = ?
		ORDER BY lot_number
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, runID)
	if err != nil {
		r.logger.Error("Failed to list reconciliation results", zap.Int64("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*entity.ReconciliationResult
	for rows.Next() {
		var res entity.ReconciliationResult
		var sellerID, buyerID sql.NullInt64
		if err := rows.Scan(
			&res.ID,
			&res.RunID,
			&res.SaleID,
			&res.LotNumber,
			&res.Status,
			&res.HammerPrice,
			&sellerID,
			&res.SellerName,
			&buyerID,
			&res.BuyerName,
			&res.Description,
			&res.AnomalyReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.SellerID = int64Ptr(sellerID)
		res.BuyerID = int64Ptr(buyerID)
		results = append(results, &res)
	}
	return results, rows.Err()
}

func (r *ReconciliationRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.ReconciliationRepository = (*ReconciliationRepository)(nil)
