package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// QCRepository 质检仓库
type QCRepository struct {
	db *gorm.DB
}

func NewQCRepository(db *gorm.DB) *QCRepository {
	return &QCRepository{db: db}
}

// FindAll 查询质检批次列表
func (r *QCRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.QualityControlEntry, int64, error) {
	var items []entity.QualityControlEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.QualityControlEntry{})

	if locationID := filters["location_id"]; locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if sourceType := filters["source_type"]; sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Location").
		Preload("Party").
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找质检批次（含行项）
func (r *QCRepository) FindByID(ctx context.Context, id string) (*entity.QualityControlEntry, error) {
	var qc entity.QualityControlEntry
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Party").
		Preload("Items").
		Where("id = ?", id).
		First(&qc).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &qc, nil
}

// CountUndecidedTx 统计批次内未出结论的行项数，在质检决定事务内执行
func (r *QCRepository) CountUndecidedTx(tx *gorm.DB, entryID string) (int64, error) {
	var n int64
	err := tx.Model(&entity.QualityControlItem{}).
		Where("qc_entry_id = ? AND is_approved IS NULL", entryID).
		Count(&n).Error
	return n, err
}

// GenerateCode 生成质检批次号 QC-{year}-{4位}，在入库提交事务内执行
func (r *QCRepository) GenerateCode(tx *gorm.DB) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("QC-%s-", year)

	var maxCode string
	err := tx.
		Model(&entity.QualityControlEntry{}).
		Select("COALESCE(MAX(qc_no), '')").
		Where("qc_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "QC-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("QC-%s-%04d", year, seq), nil
}
