package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// ItemHandler 工装台账接口
type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// RegisterRoutes 注册工装台账路由
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/items", can("can_view_items"), h.List)
	r.GET("/items/:id", can("can_view_items"), h.Get)
	r.GET("/items/:id/change-logs", can("can_view_items"), h.ChangeLogs)
	r.POST("/items", can("can_create_items"), h.Register)
	r.PUT("/items/:id", can("can_edit_items"), h.Update)
	r.POST("/items/:id/change-process", can("can_change_process"), h.ChangeProcess)
	r.POST("/items/:id/deactivate", can("can_deactivate_items"), h.Deactivate)
}

// List 工装列表
// GET /api/v1/items
func (h *ItemHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"include_inactive": c.Query("include_inactive"),
		"item_type_id":     c.Query("item_type_id"),
		"current_process":  c.Query("current_process"),
		"location_id":      c.Query("location_id"),
		"party_id":         c.Query("party_id"),
		"search":           c.Query("search"),
	}

	items, total, err := h.itemService.ListItems(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// Get 工装详情
// GET /api/v1/items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.itemService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, item)
}

// Register 登记工装
// POST /api/v1/items
func (h *ItemHandler) Register(c *gin.Context) {
	var req service.RegisterItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.itemService.RegisterItem(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, item)
}

// Update 更新工装基础信息
// PUT /api/v1/items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, item)
}

// ChangeProcess 变更流程（改名/改版）
// POST /api/v1/items/:id/change-process
func (h *ItemHandler) ChangeProcess(c *gin.Context) {
	var req service.ChangeProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.itemService.ApplyChangeProcess(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, item)
}

// ChangeLogs 变更记录
// GET /api/v1/items/:id/change-logs
func (h *ItemHandler) ChangeLogs(c *gin.Context) {
	logs, err := h.itemService.GetChangeLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, logs)
}

// Deactivate 停用工装
// POST /api/v1/items/:id/deactivate
func (h *ItemHandler) Deactivate(c *gin.Context) {
	item, err := h.itemService.DeactivateItem(c.Request.Context(), c.Param("id"), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, item)
}
