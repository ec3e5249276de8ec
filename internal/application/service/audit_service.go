package service

import (
	"context"

	"github.com/auctify/settlement-engine/internal/application/port"
	"github.com/auctify/settlement-engine/internal/domain/entity"
)

// AuditService reads the audit trail
type AuditService interface {
	// List returns the newest entries first; an empty resourceType or a zero
	// resourceID matches everything
	List(ctx context.Context, resourceType string, resourceID int64, limit int) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	repo port.AuditRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(repo port.AuditRepository) AuditService {
	return &auditServiceImpl{repo: repo}
}

func (s *auditServiceImpl) List(ctx context.Context, resourceType string, resourceID int64, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, resourceType, resourceID, limit)
}
