package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/redis/go-redis/v9"
)

const permCacheTTL = 5 * time.Minute

// PermissionService 权限门禁。
// 扁平布尔能力位，逐项判断，无层级无继承；rdb 可为 nil（直接读库）。
type PermissionService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
	rdb       *redis.Client
}

func NewPermissionService(userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository, rdb *redis.Client) *PermissionService {
	return &PermissionService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		rdb:       rdb,
	}
}

// HasCapability 判断用户是否具备指定能力位
func (s *PermissionService) HasCapability(ctx context.Context, userID, flag string) (bool, error) {
	perm, err := s.loadPermission(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return perm.Flag(flag), nil
}

// HasLocationAccess 判断用户是否具备（公司，地点）操作权
func (s *PermissionService) HasLocationAccess(ctx context.Context, userID, companyID, locationID string) (bool, error) {
	return s.userRepo.HasLocationAccess(ctx, userID, companyID, locationID)
}

func (s *PermissionService) loadPermission(ctx context.Context, userID string) (*entity.UserPermission, error) {
	cacheKey := "perm:" + userID

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var perm entity.UserPermission
			if json.Unmarshal([]byte(cached), &perm) == nil {
				return &perm, nil
			}
		}
	}

	perm, err := s.userRepo.FindPermission(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(perm); err == nil {
			s.rdb.Set(ctx, cacheKey, data, permCacheTTL)
		}
	}
	return perm, nil
}

// UpdatePermissionRequest 权限整体更新请求，缺省字段视为 false
type UpdatePermissionRequest struct {
	Flags            map[string]bool `json:"flags" binding:"required"`
	NavigationLayout *string         `json:"navigation_layout"`
}

// UpdatePermissions 整体更新用户权限（管理操作，记录审计日志并失效缓存）
func (s *PermissionService) UpdatePermissions(ctx context.Context, targetUserID, operatorID string, req *UpdatePermissionRequest) (*entity.UserPermission, error) {
	perm, err := s.userRepo.FindPermission(ctx, targetUserID)
	if err != nil {
		return nil, ErrNotFound
	}

	applyFlags(perm, req.Flags)
	if req.NavigationLayout != nil {
		perm.NavigationLayout = *req.NavigationLayout
	}

	if err := s.userRepo.SavePermission(ctx, perm); err != nil {
		return nil, err
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, "perm:"+targetUserID)
	}

	s.auditRepo.LogAction(ctx, "user", targetUserID, "",
		"update_permissions", "", "",
		fmt.Sprintf("权限更新，共设置%d项", len(req.Flags)), operatorID, "")

	return perm, nil
}

// applyFlags 全量覆盖能力位：请求中未出现的位一律置 false
func applyFlags(p *entity.UserPermission, flags map[string]bool) {
	p.CanViewMasters = flags["can_view_masters"]
	p.CanEditMasters = flags["can_edit_masters"]
	p.CanViewItems = flags["can_view_items"]
	p.CanCreateItems = flags["can_create_items"]
	p.CanEditItems = flags["can_edit_items"]
	p.CanChangeProcess = flags["can_change_process"]
	p.CanDeactivateItems = flags["can_deactivate_items"]
	p.CanViewIndents = flags["can_view_indents"]
	p.CanCreateIndents = flags["can_create_indents"]
	p.CanApproveIndents = flags["can_approve_indents"]
	p.CanViewOrders = flags["can_view_orders"]
	p.CanCreateOrders = flags["can_create_orders"]
	p.CanApproveOrders = flags["can_approve_orders"]
	p.CanViewInwards = flags["can_view_inwards"]
	p.CanCreateInwards = flags["can_create_inwards"]
	p.CanSubmitInwards = flags["can_submit_inwards"]
	p.CanViewQC = flags["can_view_qc"]
	p.CanDecideQC = flags["can_decide_qc"]
	p.CanViewMovements = flags["can_view_movements"]
	p.CanCreateMovements = flags["can_create_movements"]
	p.CanViewReports = flags["can_view_reports"]
	p.CanExportData = flags["can_export_data"]
	p.CanImportData = flags["can_import_data"]
	p.CanUploadFiles = flags["can_upload_files"]
	p.CanViewUsers = flags["can_view_users"]
	p.CanManageUsers = flags["can_manage_users"]
	p.CanManagePermissions = flags["can_manage_permissions"]
	p.CanManageLocationAccess = flags["can_manage_location_access"]
	p.CanViewAuditLogs = flags["can_view_audit_logs"]
	p.CanManageSettings = flags["can_manage_settings"]
}
