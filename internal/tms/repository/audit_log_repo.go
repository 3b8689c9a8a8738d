package repository

import (
	"context"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogRepository 操作日志仓库
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create 创建操作日志
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的操作日志
func (r *AuditLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	var items []entity.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.AuditLog{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LogAction 便捷记录操作日志，写入失败不阻断业务
func (r *AuditLogRepository) LogAction(ctx context.Context, entityType, entityID, entityCode, action, fromStatus, toStatus, content, operatorID, operatorName string) {
	log := &entity.AuditLog{
		ID:           uuid.New().String()[:32],
		EntityType:   entityType,
		EntityID:     entityID,
		EntityCode:   entityCode,
		Action:       action,
		FromStatus:   fromStatus,
		ToStatus:     toStatus,
		Content:      content,
		OperatorID:   operatorID,
		OperatorName: operatorName,
	}
	r.db.WithContext(ctx).Create(log)
}
