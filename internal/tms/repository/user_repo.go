package repository

import (
	"context"
	"errors"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindAll 查询用户列表
func (r *UserRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	var items []entity.User
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.User{})

	if filters["include_inactive"] != "true" {
		query = query.Where("is_active = ?", true)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("username ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Permission").
		Order("created_at ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找用户（含权限）
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Permission").Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

// FindByUsername 按用户名查找（登录用）
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Permission").Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return translateErr(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return translateErr(r.db.WithContext(ctx).Save(u).Error)
}

// FindPermission 查询用户权限
func (r *UserRepository) FindPermission(ctx context.Context, userID string) (*entity.UserPermission, error) {
	var p entity.UserPermission
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// SavePermission 整体保存用户权限
func (r *UserRepository) SavePermission(ctx context.Context, p *entity.UserPermission) error {
	return translateErr(r.db.WithContext(ctx).Save(p).Error)
}

// FindLocationAccess 查询用户的地点授权
func (r *UserRepository) FindLocationAccess(ctx context.Context, userID string) ([]entity.UserLocationAccess, error) {
	var items []entity.UserLocationAccess
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Location").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// HasLocationAccess 判断用户是否具备（公司，地点）操作权
func (r *UserRepository) HasLocationAccess(ctx context.Context, userID, companyID, locationID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.UserLocationAccess{}).
		Where("user_id = ? AND company_id = ? AND location_id = ?", userID, companyID, locationID).
		Count(&n).Error
	return n > 0, err
}

// GrantLocationAccess 授予地点操作权，三元组唯一
func (r *UserRepository) GrantLocationAccess(ctx context.Context, access *entity.UserLocationAccess) error {
	return translateErr(r.db.WithContext(ctx).Create(access).Error)
}

// RevokeLocationAccess 收回地点操作权
func (r *UserRepository) RevokeLocationAccess(ctx context.Context, userID, accessID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accessID, userID).
		Delete(&entity.UserLocationAccess{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsUsernameTaken 用户名查重
func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("username = ?", username).Count(&n).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return n > 0, nil
}
