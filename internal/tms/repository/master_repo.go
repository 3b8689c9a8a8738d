package repository

import (
	"context"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// CompanyRepository 公司仓库
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindAll 查询公司列表，默认仅返回启用记录
func (r *CompanyRepository) FindAll(ctx context.Context, includeInactive bool) ([]entity.Company, error) {
	var items []entity.Company
	query := r.db.WithContext(ctx).Model(&entity.Company{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	var c entity.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, c *entity.Company) error {
	return translateErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CompanyRepository) Update(ctx context.Context, c *entity.Company) error {
	return translateErr(r.db.WithContext(ctx).Save(c).Error)
}

// CountLocations 统计公司下的地点数（停用前的引用检查）
func (r *CompanyRepository) CountLocations(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Location{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Count(&n).Error
	return n, err
}

// LocationRepository 地点仓库
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// FindAll 查询地点列表
func (r *LocationRepository) FindAll(ctx context.Context, companyID string, includeInactive bool) ([]entity.Location, error) {
	var items []entity.Location
	query := r.db.WithContext(ctx).Model(&entity.Location{}).Preload("Company")
	if companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	if err := r.db.WithContext(ctx).Preload("Company").Where("id = ?", id).First(&l).Error; err != nil {
		return nil, translateErr(err)
	}
	return &l, nil
}

func (r *LocationRepository) Create(ctx context.Context, l *entity.Location) error {
	return translateErr(r.db.WithContext(ctx).Create(l).Error)
}

func (r *LocationRepository) Update(ctx context.Context, l *entity.Location) error {
	return translateErr(r.db.WithContext(ctx).Save(l).Error)
}

// CountReferences 统计地点被工装/入库单引用的数量（停用前检查）
func (r *LocationRepository) CountReferences(ctx context.Context, locationID string) (int64, error) {
	var held, inwards int64
	if err := r.db.WithContext(ctx).Model(&entity.Item{}).
		Where("current_location_id = ?", locationID).Count(&held).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&entity.Inward{}).
		Where("location_id = ? AND status = ?", locationID, entity.InwardStatusDraft).Count(&inwards).Error; err != nil {
		return 0, err
	}
	return held + inwards, nil
}

// PartyRepository 往来单位仓库
type PartyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

// FindAll 查询往来单位列表，支持关键字搜索
func (r *PartyRepository) FindAll(ctx context.Context, search string, includeInactive bool) ([]entity.Party, error) {
	var items []entity.Party
	query := r.db.WithContext(ctx).Model(&entity.Party{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *PartyRepository) FindByID(ctx context.Context, id string) (*entity.Party, error) {
	var p entity.Party
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// FindByCode 按编码查找（导入查重用）
func (r *PartyRepository) FindByCode(ctx context.Context, code string) (*entity.Party, error) {
	var p entity.Party
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PartyRepository) Create(ctx context.Context, p *entity.Party) error {
	return translateErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PartyRepository) Update(ctx context.Context, p *entity.Party) error {
	return translateErr(r.db.WithContext(ctx).Save(p).Error)
}

// CountReferences 统计往来单位被交易单据引用的数量（停用前检查）
func (r *PartyRepository) CountReferences(ctx context.Context, partyID string) (int64, error) {
	var orders, held int64
	if err := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("party_id = ? AND status = ?", partyID, entity.OrderStatusPending).Count(&orders).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&entity.Item{}).
		Where("current_party_id = ?", partyID).Count(&held).Error; err != nil {
		return 0, err
	}
	return orders + held, nil
}
