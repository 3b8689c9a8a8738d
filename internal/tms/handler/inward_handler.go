package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// InwardHandler 入库收货接口
type InwardHandler struct {
	inwardService *service.InwardService
}

func NewInwardHandler(inwardService *service.InwardService) *InwardHandler {
	return &InwardHandler{inwardService: inwardService}
}

// RegisterRoutes 注册入库路由
func (h *InwardHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/inwards", can("can_view_inwards"), h.List)
	r.GET("/inwards/:id", can("can_view_inwards"), h.Get)
	r.POST("/inwards", can("can_create_inwards"), h.Create)
	r.POST("/inwards/:id/lines", can("can_create_inwards"), h.AddLine)
	r.DELETE("/inwards/:id/lines/:lineId", can("can_create_inwards"), h.RemoveLine)
	r.POST("/inwards/:id/submit", can("can_submit_inwards"), h.Submit)
}

// List 入库单列表
// GET /api/v1/inwards
func (h *InwardHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"location_id": c.Query("location_id"),
		"status":      c.Query("status"),
		"source_type": c.Query("source_type"),
		"search":      c.Query("search"),
	}
	items, total, err := h.inwardService.ListInwards(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// Get 入库单详情
// GET /api/v1/inwards/:id
func (h *InwardHandler) Get(c *gin.Context) {
	in, err := h.inwardService.GetInward(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, in)
}

// Create 创建入库草稿
// POST /api/v1/inwards
func (h *InwardHandler) Create(c *gin.Context) {
	var req service.CreateInwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	in, err := h.inwardService.CreateInwardDraft(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, in)
}

type addLineRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// AddLine 草稿追加行项
// POST /api/v1/inwards/:id/lines
func (h *InwardHandler) AddLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	in, err := h.inwardService.AddLine(c.Request.Context(), c.Param("id"), req.ItemID, CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, in)
}

// RemoveLine 草稿移除行项
// DELETE /api/v1/inwards/:id/lines/:lineId
func (h *InwardHandler) RemoveLine(c *gin.Context) {
	in, err := h.inwardService.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("lineId"), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, in)
}

// Submit 提交入库单
// POST /api/v1/inwards/:id/submit
func (h *InwardHandler) Submit(c *gin.Context) {
	in, err := h.inwardService.SubmitInward(c.Request.Context(), c.Param("id"), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, in)
}
