package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理接口
type UserHandler struct {
	userService       *service.UserService
	permissionService *service.PermissionService
}

func NewUserHandler(userService *service.UserService, permissionService *service.PermissionService) *UserHandler {
	return &UserHandler{
		userService:       userService,
		permissionService: permissionService,
	}
}

// RegisterRoutes 注册用户管理路由
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/users", can("can_view_users"), h.List)
	r.GET("/users/:id", can("can_view_users"), h.Get)
	r.POST("/users", can("can_manage_users"), h.Create)
	r.PUT("/users/:id", can("can_manage_users"), h.Update)
	r.POST("/users/:id/reset-password", can("can_manage_users"), h.ResetPassword)
	r.PUT("/users/:id/permissions", can("can_manage_permissions"), h.UpdatePermissions)
	r.GET("/users/:id/location-access", can("can_manage_location_access"), h.ListLocationAccess)
	r.POST("/users/:id/location-access", can("can_manage_location_access"), h.GrantLocationAccess)
	r.DELETE("/users/:id/location-access/:accessId", can("can_manage_location_access"), h.RevokeLocationAccess)
}

// List 用户列表
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"include_inactive": c.Query("include_inactive"),
		"search":           c.Query("search"),
	}
	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, users, total, page, pageSize)
}

// Get 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, user)
}

// Create 创建用户
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, user)
}

// Update 更新用户
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, user)
}

// ResetPassword 重置密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}

// UpdatePermissions 整体更新用户权限
// PUT /api/v1/users/:id/permissions
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	var req service.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := h.permissionService.UpdatePermissions(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, perm)
}

// ListLocationAccess 用户地点授权列表
// GET /api/v1/users/:id/location-access
func (h *UserHandler) ListLocationAccess(c *gin.Context) {
	access, err := h.userService.ListLocationAccess(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, access)
}

// GrantLocationAccess 授予地点操作权
// POST /api/v1/users/:id/location-access
func (h *UserHandler) GrantLocationAccess(c *gin.Context) {
	var req service.GrantLocationAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	access, err := h.userService.GrantLocationAccess(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, access)
}

// RevokeLocationAccess 收回地点操作权
// DELETE /api/v1/users/:id/location-access/:accessId
func (h *UserHandler) RevokeLocationAccess(c *gin.Context) {
	if err := h.userService.RevokeLocationAccess(c.Request.Context(), c.Param("id"), c.Param("accessId"), CurrentUserID(c)); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}
