package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// IndentRepository 请购单仓库
type IndentRepository struct {
	db *gorm.DB
}

func NewIndentRepository(db *gorm.DB) *IndentRepository {
	return &IndentRepository{db: db}
}

// FindAll 查询请购单列表
func (r *IndentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseIndent, int64, error) {
	var items []entity.PurchaseIndent
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseIndent{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if indentType := filters["type"]; indentType != "" {
		query = query.Where("type = ?", indentType)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("pi_no ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找请购单（含行项）
func (r *IndentRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseIndent, error) {
	var pi entity.PurchaseIndent
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&pi).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &pi, nil
}

// FindItemByID 查找请购行项
func (r *IndentRepository) FindItemByID(ctx context.Context, itemID string) (*entity.PurchaseIndentItem, error) {
	var item entity.PurchaseIndentItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

func (r *IndentRepository) Create(ctx context.Context, pi *entity.PurchaseIndent) error {
	return translateErr(r.db.WithContext(ctx).Create(pi).Error)
}

func (r *IndentRepository) Update(ctx context.Context, pi *entity.PurchaseIndent) error {
	return translateErr(r.db.WithContext(ctx).Save(pi).Error)
}

// GenerateCode 生成请购单号 PI-{year}-{4位}
func (r *IndentRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PI-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseIndent{}).
		Select("COALESCE(MAX(pi_no), '')").
		Where("pi_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PI-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PI-%s-%04d", year, seq), nil
}
