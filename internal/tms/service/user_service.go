package service

import (
	"context"
	"fmt"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserService 用户管理服务（管理操作，区别于 AuthService 的会话操作）
type UserService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
	rdb       *redis.Client
	db        *gorm.DB
}

func NewUserService(userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository, rdb *redis.Client, db *gorm.DB) *UserService {
	return &UserService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		rdb:       rdb,
		db:        db,
	}
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	return s.userRepo.FindAll(ctx, page, pageSize, filters)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

// CreateUser 创建用户。权限记录同事务创建，所有能力位默认关闭。
func (s *UserService) CreateUser(ctx context.Context, operatorID string, req *CreateUserRequest) (*entity.User, error) {
	taken, err := s.userRepo.IsUsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: 用户名 %s 已存在", ErrDuplicateKey, req.Username)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Email:        req.Email,
		Mobile:       req.Mobile,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		perm := &entity.UserPermission{
			ID:     uuid.New().String()[:32],
			UserID: user.ID,
		}
		return tx.Create(perm).Error
	})
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, fmt.Errorf("%w: 用户名 %s 已存在", ErrDuplicateKey, req.Username)
		}
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "user", user.ID, user.Username,
		"create", "", "", "新建用户: "+user.Name, operatorID, "")

	return s.userRepo.FindByID(ctx, user.ID)
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Mobile   *string `json:"mobile"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUser 更新用户。停用时吊销权限缓存，已签发的access token到期自然失效。
func (s *UserService) UpdateUser(ctx context.Context, id, operatorID string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Mobile != nil {
		user.Mobile = *req.Mobile
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.IsActive != nil && !*req.IsActive && s.rdb != nil {
		s.rdb.Del(ctx, "perm:"+id)
	}

	s.auditRepo.LogAction(ctx, "user", user.ID, user.Username,
		"update", "", "", "用户信息更新", operatorID, "")
	return user, nil
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword 管理员重置用户密码
func (s *UserService) ResetPassword(ctx context.Context, id, operatorID string, req *ResetPasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.auditRepo.LogAction(ctx, "user", user.ID, user.Username,
		"reset_password", "", "", "密码重置", operatorID, "")
	return nil
}

// ListLocationAccess 查询用户地点授权
func (s *UserService) ListLocationAccess(ctx context.Context, userID string) ([]entity.UserLocationAccess, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, ErrNotFound
	}
	return s.userRepo.FindLocationAccess(ctx, userID)
}

// GrantLocationAccessRequest 地点授权请求
type GrantLocationAccessRequest struct {
	CompanyID  string `json:"company_id" binding:"required"`
	LocationID string `json:"location_id" binding:"required"`
}

// GrantLocationAccess 授予（公司，地点）操作权，重复授予返回已有记录
func (s *UserService) GrantLocationAccess(ctx context.Context, userID, operatorID string, req *GrantLocationAccessRequest) (*entity.UserLocationAccess, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, ErrNotFound
	}

	access := &entity.UserLocationAccess{
		ID:         uuid.New().String()[:32],
		UserID:     userID,
		CompanyID:  req.CompanyID,
		LocationID: req.LocationID,
	}
	if err := s.userRepo.GrantLocationAccess(ctx, access); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 该地点已授权", ErrDuplicateKey)
		}
		return nil, err
	}

	s.auditRepo.LogAction(ctx, "user", userID, "",
		"grant_location_access", "", "", "授予地点操作权: "+req.LocationID, operatorID, "")
	return access, nil
}

// RevokeLocationAccess 收回地点操作权
func (s *UserService) RevokeLocationAccess(ctx context.Context, userID, accessID, operatorID string) error {
	if err := s.userRepo.RevokeLocationAccess(ctx, userID, accessID); err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	s.auditRepo.LogAction(ctx, "user", userID, "",
		"revoke_location_access", "", "", "收回地点操作权", operatorID, "")
	return nil
}
