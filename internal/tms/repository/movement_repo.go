package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// MovementRepository 移转台账仓库。只提供追加与查询，不暴露更新/删除；
// 唯一的回写入口是质检标记。
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// FindAll 查询移转记录，支持按工装/类型/时间段过滤
func (r *MovementRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Movement, int64, error) {
	var items []entity.Movement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Movement{})

	if itemID := filters["item_id"]; itemID != "" {
		query = query.Where("item_id = ?", itemID)
	}
	if mType := filters["type"]; mType != "" {
		query = query.Where("type = ?", mType)
	}
	if from := filters["from_date"]; from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := filters["to_date"]; to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Item").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByItem 查询某工装的完整移转轨迹（时间正序）
func (r *MovementRepository) FindByItem(ctx context.Context, itemID string) ([]entity.Movement, error) {
	var items []entity.Movement
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindByRefTx 查找某单据对某工装已生成的移转（入库重复提交防护），在提交事务内执行
func (r *MovementRepository) FindByRefTx(tx *gorm.DB, refType, refID, itemID string) (*entity.Movement, error) {
	var m entity.Movement
	err := tx.
		Where("ref_type = ? AND ref_id = ? AND item_id = ?", refType, refID, itemID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// MarkQCDecidedTx 质检结论回写（台账唯一允许的修改），在质检决定事务内执行
func (r *MovementRepository) MarkQCDecidedTx(tx *gorm.DB, id string, approved bool) error {
	return tx.Model(&entity.Movement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_qc_pending":  false,
			"is_qc_approved": approved,
		}).Error
}
