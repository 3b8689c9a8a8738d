package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证接口
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes 注册无需认证的路由
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
}

// RegisterRoutes 注册需认证的路由
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", h.Me)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// 登录失败统一返回401，不区分用户不存在与密码错误
		Fail(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	OK(c, gin.H{
		"user":  user,
		"token": pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 刷新Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "refresh token无效")
		return
	}
	OK(c, pair)
}

// Logout 退出登录
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), CurrentUserID(c)); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}

// Me 当前用户信息（含权限）
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetCurrentUser(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, user)
}
