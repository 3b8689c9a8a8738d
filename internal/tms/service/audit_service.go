package service

import (
	"context"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
)

// AuditService 操作日志查询服务
type AuditService struct {
	auditRepo *repository.AuditLogRepository
}

func NewAuditService(auditRepo *repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// ListLogs 查询操作日志，可按实体类型/实体ID过滤
func (s *AuditService) ListLogs(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	return s.auditRepo.FindByEntity(ctx, entityType, entityID, page, pageSize)
}
