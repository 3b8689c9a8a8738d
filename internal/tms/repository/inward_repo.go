package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// InwardRepository 入库单仓库
type InwardRepository struct {
	db *gorm.DB
}

func NewInwardRepository(db *gorm.DB) *InwardRepository {
	return &InwardRepository{db: db}
}

// FindAll 查询入库单列表
func (r *InwardRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Inward, int64, error) {
	var items []entity.Inward
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Inward{})

	if locationID := filters["location_id"]; locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if sourceType := filters["source_type"]; sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("inward_no ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Location").
		Preload("Party").
		Preload("Lines").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找入库单（含行项）
func (r *InwardRepository) FindByID(ctx context.Context, id string) (*entity.Inward, error) {
	var in entity.Inward
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Party").
		Preload("Lines").
		Where("id = ?", id).
		First(&in).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &in, nil
}

// FindLineByID 查找入库行项
func (r *InwardRepository) FindLineByID(ctx context.Context, lineID string) (*entity.InwardLine, error) {
	var line entity.InwardLine
	err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&line).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &line, nil
}

func (r *InwardRepository) Create(ctx context.Context, in *entity.Inward) error {
	return translateErr(r.db.WithContext(ctx).Create(in).Error)
}

func (r *InwardRepository) Update(ctx context.Context, in *entity.Inward) error {
	return translateErr(r.db.WithContext(ctx).Save(in).Error)
}

func (r *InwardRepository) UpdateLine(ctx context.Context, line *entity.InwardLine) error {
	return translateErr(r.db.WithContext(ctx).Save(line).Error)
}

// GenerateCode 生成入库单号 IN-{year}-{4位}
func (r *InwardRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("IN-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Inward{}).
		Select("COALESCE(MAX(inward_no), '')").
		Where("inward_no LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "IN-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("IN-%s-%04d", year, seq), nil
}
