package repository

import (
	"context"
	"errors"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// ItemRepository 工装台账仓库
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// FindAll 查询工装列表
func (r *ItemRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Item, int64, error) {
	var items []entity.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Item{})

	if filters["include_inactive"] != "true" {
		query = query.Where("is_active = ?", true)
	}
	if itemTypeID := filters["item_type_id"]; itemTypeID != "" {
		query = query.Where("item_type_id = ?", itemTypeID)
	}
	if process := filters["current_process"]; process != "" {
		query = query.Where("current_process = ?", process)
	}
	if locationID := filters["location_id"]; locationID != "" {
		query = query.Where("current_location_id = ?", locationID)
	}
	if partyID := filters["party_id"]; partyID != "" {
		query = query.Where("current_party_id = ?", partyID)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("main_part_name ILIKE ? OR current_name ILIKE ? OR drawing_no ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("ItemType").
		Preload("Material").
		Preload("CurrentLocation").
		Preload("CurrentParty").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找工装（含主数据）
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).
		Preload("ItemType").
		Preload("Material").
		Preload("OwnerType").
		Preload("ItemStatus").
		Preload("CurrentLocation").
		Preload("CurrentParty").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

// FindByMainPartName 按永久标识查找（登记查重用）
func (r *ItemRepository) FindByMainPartName(ctx context.Context, name string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("main_part_name = ?", name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	return translateErr(r.db.WithContext(ctx).Create(item).Error)
}

func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	return translateErr(r.db.WithContext(ctx).Save(item).Error)
}

// CreateChangeLog 写入变更记录
func (r *ItemRepository) CreateChangeLog(ctx context.Context, log *entity.ItemChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindChangeLogs 查询工装的变更记录
func (r *ItemRepository) FindChangeLogs(ctx context.Context, itemID string) ([]entity.ItemChangeLog, error) {
	var logs []entity.ItemChangeLog
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
