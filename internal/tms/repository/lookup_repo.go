package repository

import (
	"context"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// LookupRepository 字典类主数据仓库（工装类型/材质/产权归属/工装状态）。
// 四类实体结构一致，集中在一个仓库里维护。
type LookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// === 工装类型 ===

func (r *LookupRepository) FindItemTypes(ctx context.Context, includeInactive bool) ([]entity.ItemType, error) {
	var items []entity.ItemType
	query := r.db.WithContext(ctx).Model(&entity.ItemType{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *LookupRepository) FindItemTypeByID(ctx context.Context, id string) (*entity.ItemType, error) {
	var t entity.ItemType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translateErr(err)
	}
	return &t, nil
}

func (r *LookupRepository) CreateItemType(ctx context.Context, t *entity.ItemType) error {
	return translateErr(r.db.WithContext(ctx).Create(t).Error)
}

func (r *LookupRepository) UpdateItemType(ctx context.Context, t *entity.ItemType) error {
	return translateErr(r.db.WithContext(ctx).Save(t).Error)
}

// === 材质 ===

func (r *LookupRepository) FindMaterials(ctx context.Context, includeInactive bool) ([]entity.Material, error) {
	var items []entity.Material
	query := r.db.WithContext(ctx).Model(&entity.Material{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *LookupRepository) FindMaterialByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

func (r *LookupRepository) CreateMaterial(ctx context.Context, m *entity.Material) error {
	return translateErr(r.db.WithContext(ctx).Create(m).Error)
}

func (r *LookupRepository) UpdateMaterial(ctx context.Context, m *entity.Material) error {
	return translateErr(r.db.WithContext(ctx).Save(m).Error)
}

// === 产权归属 ===

func (r *LookupRepository) FindOwnerTypes(ctx context.Context, includeInactive bool) ([]entity.OwnerType, error) {
	var items []entity.OwnerType
	query := r.db.WithContext(ctx).Model(&entity.OwnerType{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *LookupRepository) FindOwnerTypeByID(ctx context.Context, id string) (*entity.OwnerType, error) {
	var o entity.OwnerType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translateErr(err)
	}
	return &o, nil
}

func (r *LookupRepository) CreateOwnerType(ctx context.Context, o *entity.OwnerType) error {
	return translateErr(r.db.WithContext(ctx).Create(o).Error)
}

func (r *LookupRepository) UpdateOwnerType(ctx context.Context, o *entity.OwnerType) error {
	return translateErr(r.db.WithContext(ctx).Save(o).Error)
}

// === 工装状态 ===

func (r *LookupRepository) FindItemStatuses(ctx context.Context, includeInactive bool) ([]entity.ItemStatus, error) {
	var items []entity.ItemStatus
	query := r.db.WithContext(ctx).Model(&entity.ItemStatus{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *LookupRepository) FindItemStatusByID(ctx context.Context, id string) (*entity.ItemStatus, error) {
	var s entity.ItemStatus
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

func (r *LookupRepository) CreateItemStatus(ctx context.Context, s *entity.ItemStatus) error {
	return translateErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *LookupRepository) UpdateItemStatus(ctx context.Context, s *entity.ItemStatus) error {
	return translateErr(r.db.WithContext(ctx).Save(s).Error)
}

// AppSettingRepository 系统参数仓库
type AppSettingRepository struct {
	db *gorm.DB
}

func NewAppSettingRepository(db *gorm.DB) *AppSettingRepository {
	return &AppSettingRepository{db: db}
}

func (r *AppSettingRepository) FindAll(ctx context.Context) ([]entity.AppSetting, error) {
	var items []entity.AppSetting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&items).Error
	return items, err
}

func (r *AppSettingRepository) FindByKey(ctx context.Context, key string) (*entity.AppSetting, error) {
	var s entity.AppSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

// Upsert 按键写入参数
func (r *AppSettingRepository) Upsert(ctx context.Context, s *entity.AppSetting) error {
	existing, err := r.FindByKey(ctx, s.Key)
	if err != nil && err != ErrNotFound {
		return err
	}
	if existing != nil {
		existing.Value = s.Value
		existing.Remarks = s.Remarks
		return r.db.WithContext(ctx).Save(existing).Error
	}
	return translateErr(r.db.WithContext(ctx).Create(s).Error)
}
