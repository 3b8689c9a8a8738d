package handler

import (
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// AuditHandler 操作日志接口
type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RegisterRoutes 注册操作日志路由
func (h *AuditHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/audit-logs", can("can_view_audit_logs"), h.List)
}

// List 操作日志列表
// GET /api/v1/audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(),
		c.Query("entity_type"), c.Query("entity_id"), page, pageSize)
	if err != nil {
		FailErr(c, err)
		return
	}
	OKPage(c, logs, total, page, pageSize)
}
