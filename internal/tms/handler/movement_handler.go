package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// MovementHandler 移转台账接口
type MovementHandler struct {
	movementService *service.MovementService
}

func NewMovementHandler(movementService *service.MovementService) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// RegisterRoutes 注册移转路由
func (h *MovementHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/movements", can("can_view_movements"), h.List)
	r.GET("/items/:id/movements", can("can_view_movements"), h.ItemTrail)
	r.POST("/movements", can("can_create_movements"), h.Record)
}

// List 移转记录列表
// GET /api/v1/movements
func (h *MovementHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"item_id":   c.Query("item_id"),
		"type":      c.Query("type"),
		"from_date": c.Query("from_date"),
		"to_date":   c.Query("to_date"),
	}
	items, total, err := h.movementService.ListMovements(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// ItemTrail 工装移转轨迹
// GET /api/v1/items/:id/movements
func (h *MovementHandler) ItemTrail(c *gin.Context) {
	trail, err := h.movementService.GetItemTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, trail)
}

// Record 人工记录移转
// POST /api/v1/movements
func (h *MovementHandler) Record(c *gin.Context) {
	var req service.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	movement, err := h.movementService.RecordMovement(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, movement)
}
