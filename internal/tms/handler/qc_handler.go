package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// QCHandler 质检接口
type QCHandler struct {
	qcService *service.QCService
}

func NewQCHandler(qcService *service.QCService) *QCHandler {
	return &QCHandler{qcService: qcService}
}

// RegisterRoutes 注册质检路由
func (h *QCHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/qc-entries", can("can_view_qc"), h.List)
	r.GET("/qc-entries/:id", can("can_view_qc"), h.Get)
	r.POST("/qc-entries/:id/items/:itemId/decide", can("can_decide_qc"), h.Decide)
}

// List 质检批次列表
// GET /api/v1/qc-entries
func (h *QCHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"location_id": c.Query("location_id"),
		"status":      c.Query("status"),
		"source_type": c.Query("source_type"),
	}
	items, total, err := h.qcService.ListEntries(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// Get 质检批次详情
// GET /api/v1/qc-entries/:id
func (h *QCHandler) Get(c *gin.Context) {
	entry, err := h.qcService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, entry)
}

// Decide 记录质检结论
// POST /api/v1/qc-entries/:id/items/:itemId/decide
func (h *QCHandler) Decide(c *gin.Context) {
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.qcService.RecordDecision(c.Request.Context(), c.Param("id"), c.Param("itemId"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, entry)
}
