package service

import (
	"context"

	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

// AuditService exposes the read side of the audit trail.
type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return logs, total, nil
}
