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

// AuditRepository implements port.AuditRepository
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit trail repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append records an entry. Replaying an event with the same ID is a no-op.
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_log (event_id, timestamp, action, resource_type, resource_id, details, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		entry.EventID,
		entry.Timestamp,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Details,
		entry.CorrelationID,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("event_id", entry.EventID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		if id, err := result.LastInsertId(); err == nil {
			entry.ID = id
		}
	}
	return nil
}

// List returns the newest entries first. An empty resource type lists every resource.
func (r *AuditRepository) List(ctx context.Context, resourceType string, resourceID int64, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, event_id, timestamp, action, resource_type, resource_id, details, correlation_id
		FROM audit_log
		WHERE (?1 = '' OR resource_type = ?1) AND (?2 = 0 OR resource_id = ?2)
		ORDER BY timestamp DESC, id DESC
		LIMIT ?3
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, resourceType, resourceID, limit)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			zap.String("resource_type", resourceType),
			zap.Int64("resource_id", resourceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.EventID,
			&e.Timestamp,
			&e.Action,
			&e.ResourceType,
			&e.ResourceID,
			&e.Details,
			&e.CorrelationID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *AuditRepository) getExecutor(ctx context.Context) executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
