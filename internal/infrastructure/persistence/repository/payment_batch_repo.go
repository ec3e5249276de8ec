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

// PaymentBatchRepository implements port.PaymentBatchRepository
type PaymentBatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentBatchRepository creates a new payment batch repository
func NewPaymentBatchRepository(db *sql.DB, logger *zap.Logger) port.PaymentBatchRepository {
	return &PaymentBatchRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an exported batch and its XML document
func (r *PaymentBatchRepository) Create(ctx context.Context, batch *entity.PaymentBatch) error {
	query := `
		INSERT INTO payment_batches (sale_id, message_id, execution_date, control_sum, tx_count, xml, artifact_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		batch.SaleID,
		batch.MessageID,
		batch.ExecutionDate.Format(dateLayout),
		batch.ControlSum,
		batch.TxCount,
		batch.XML,
		batch.ArtifactPath,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create payment batch",
			zap.Int64("sale_id", batch.SaleID),
			zap.String("message_id", batch.MessageID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	batch.ID = id
	batch.CreatedAt = now
	return nil
}

// GetByID retrieves a batch with its XML document
func (r *PaymentBatchRepository) GetByID(ctx context.Context, id int64) (*entity.PaymentBatch, error) {
	query := `
		SELECT id, sale_id, message_id, execution_date, control_sum, tx_count, xml, artifact_path, created_at
		FROM payment_batches WHERE id = ?
	`

	var batch entity.PaymentBatch
	var executionDate string
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&batch.ID,
		&batch.SaleID,
		&batch.MessageID,
		&executionDate,
		&batch.ControlSum,
		&batch.TxCount,
		&batch.XML,
		&batch.ArtifactPath,
		&batch.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment batch", zap.Int64("batch_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment batch: %w", err)
	}
	if batch.ExecutionDate, err = parseDate(executionDate); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBySale retrieves the batches of a sale without their XML
func (r *PaymentBatchRepository) ListBySale(ctx context.Context, saleID int64) ([]*entity.PaymentBatch, error) {
	query := `
		SELECT id, sale_id, message_id, execution_date, control_sum, tx_count, artifact_path, created_at
		FROM payment_batches WHERE sale_id = ?
		ORDER BY id
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, saleID)
	if err != nil {
		r.logger.Error("Failed to list payment batches", zap.Int64("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payment batches: %w", err)
	}
	defer rows.Close()

	var batches []*entity.PaymentBatch
	for rows.Next() {
		var batch entity.PaymentBatch
		var executionDate string
		if err := rows.Scan(
			&batch.ID,
			&batch.SaleID,
			&batch.MessageID,
			&executionDate,
			&batch.ControlSum,
			&batch.TxCount,
			&batch.ArtifactPath,
			&batch.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment batch: %w", err)
		}
		if batch.ExecutionDate, err = parseDate(executionDate); err != nil {
			return nil, err
		}
		batches = append(batches, &batch)
	}
	return batches, rows.Err()
}

// SetArtifactPath records where the batch file was written
func (r *PaymentBatchRepository) SetArtifactPath(ctx context.Context, id int64, path string) error {
	query := `UPDATE payment_batches SET artifact_path = ? WHERE id = ?`

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, path, id); err != nil {
		r.logger.Error("Failed to set artifact path", zap.Int64("batch_id", id), zap.Error(err))
		return fmt.Errorf("failed to set artifact path: %w", err)
	}
	return nil
}

// ListWithoutArtifact retrieves the oldest batches that have no file on disk yet
func (r *PaymentBatchRepository) ListWithoutArtifact(ctx context.Context, limit int) ([]*entity.PaymentBatch, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, sale_id, message_id, execution_date, control_sum, tx_count, xml, artifact_path, created_at
		FROM payment_batches WHERE artifact_path = ''
		ORDER BY id
		LIMIT ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list batches without artifact", zap.Error(err))
		return nil, fmt.Errorf("failed to list batches without artifact: %w", err)
	}
	defer rows.Close()

	var batches []*entity.PaymentBatch
	for rows.Next() {
		var batch entity.PaymentBatch
		var executionDate string
		if err := rows.Scan(
			&batch.ID,
			&batch.SaleID,
			&batch.MessageID,
			&executionDate,
			&batch.ControlSum,
			&batch.TxCount,
			&batch.XML,
			&batch.ArtifactPath,
			&batch.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment batch: %w", err)
		}
		if batch.ExecutionDate, err = parseDate(executionDate); err != nil {
			return nil, err
		}
		batches = append(batches, &batch)
	}
	return batches, rows.Err()
}

func (r *PaymentBatchRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// parseDate reads a DATE column written as dateLayout. The driver may hand it
// back either as the raw string or as an RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if len(s) >= len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// Verify interface compliance
var _ port.PaymentBatchRepository = (*PaymentBatchRepository)(nil)
