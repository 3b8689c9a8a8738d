package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// ProcurementHandler 采购接口（请购单/采购订单）
type ProcurementHandler struct {
	procurementService *service.ProcurementService
}

func NewProcurementHandler(procurementService *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurementService: procurementService}
}

// RegisterRoutes 注册采购路由
func (h *ProcurementHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/purchase-indents", can("can_view_indents"), h.ListIndents)
	r.GET("/purchase-indents/:id", can("can_view_indents"), h.GetIndent)
	r.POST("/purchase-indents", can("can_create_indents"), h.CreateIndent)
	r.POST("/purchase-indents/:id/approve", can("can_approve_indents"), h.ApproveIndent)
	r.POST("/purchase-indents/:id/reject", can("can_approve_indents"), h.RejectIndent)

	r.GET("/purchase-orders", can("can_view_orders"), h.ListOrders)
	r.GET("/purchase-orders/:id", can("can_view_orders"), h.GetOrder)
	r.POST("/purchase-orders", can("can_create_orders"), h.CreateOrder)
	r.POST("/purchase-orders/:id/approve", can("can_approve_orders"), h.ApproveOrder)
	r.POST("/purchase-orders/:id/reject", can("can_approve_orders"), h.RejectOrder)
}

// === 请购单 ===

// ListIndents 请购单列表
// GET /api/v1/purchase-indents
func (h *ProcurementHandler) ListIndents(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"type":   c.Query("type"),
		"search": c.Query("search"),
	}
	items, total, err := h.procurementService.ListIndents(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// GetIndent 请购单详情
// GET /api/v1/purchase-indents/:id
func (h *ProcurementHandler) GetIndent(c *gin.Context) {
	pi, err := h.procurementService.GetIndent(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, pi)
}

// CreateIndent 创建请购单
// POST /api/v1/purchase-indents
func (h *ProcurementHandler) CreateIndent(c *gin.Context) {
	var req service.CreateIndentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pi, err := h.procurementService.CreateIndent(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, pi)
}

// ApproveIndent 审批通过请购单
// POST /api/v1/purchase-indents/:id/approve
func (h *ProcurementHandler) ApproveIndent(c *gin.Context) {
	pi, err := h.procurementService.ApproveIndent(c.Request.Context(), c.Param("id"), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, pi)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectIndent 驳回请购单
// POST /api/v1/purchase-indents/:id/reject
func (h *ProcurementHandler) RejectIndent(c *gin.Context) {
	var req rejectRequest
	c.ShouldBindJSON(&req)
	pi, err := h.procurementService.RejectIndent(c.Request.Context(), c.Param("id"), CurrentUserID(c), req.Reason)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, pi)
}

// === 采购订单 ===

// ListOrders 采购订单列表
// GET /api/v1/purchase-orders
func (h *ProcurementHandler) ListOrders(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	filters := map[string]string{
		"party_id": c.Query("party_id"),
		"status":   c.Query("status"),
		"search":   c.Query("search"),
	}
	items, total, err := h.procurementService.ListOrders(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, items, total, page, pageSize)
}

// GetOrder 采购订单详情
// GET /api/v1/purchase-orders/:id
func (h *ProcurementHandler) GetOrder(c *gin.Context) {
	po, err := h.procurementService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, po)
}

// CreateOrder 创建采购订单
// POST /api/v1/purchase-orders
func (h *ProcurementHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	po, err := h.procurementService.CreateOrder(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, po)
}

// ApproveOrder 审批通过采购订单
// POST /api/v1/purchase-orders/:id/approve
func (h *ProcurementHandler) ApproveOrder(c *gin.Context) {
	po, err := h.procurementService.ApproveOrder(c.Request.Context(), c.Param("id"), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, po)
}

// RejectOrder 驳回采购订单
// POST /api/v1/purchase-orders/:id/reject
func (h *ProcurementHandler) RejectOrder(c *gin.Context) {
	var req rejectRequest
	c.ShouldBindJSON(&req)
	po, err := h.procurementService.RejectOrder(c.Request.Context(), c.Param("id"), CurrentUserID(c), req.Reason)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, po)
}
