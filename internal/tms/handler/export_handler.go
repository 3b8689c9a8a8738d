package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// ExportHandler Excel导入导出接口
type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// RegisterRoutes 注册导入导出路由
func (h *ExportHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.GET("/export/parties", can("can_export_data"), h.ExportParties)
	r.GET("/export/items", can("can_export_data"), h.ExportItems)
	r.POST("/import/parties/validate", can("can_import_data"), h.ValidatePartyImport)
	r.POST("/import/parties", can("can_import_data"), h.ImportParties)
	r.POST("/import/items/validate", can("can_import_data"), h.ValidateItemImport)
	r.POST("/import/items", can("can_import_data"), h.ImportItems)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeExcel(c *gin.Context, name string, write func() error) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102-150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := write(); err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}

// ExportParties 导出往来单位
// GET /api/v1/export/parties
func (h *ExportHandler) ExportParties(c *gin.Context) {
	f, err := h.exportService.ExportParties(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	defer f.Close()
	writeExcel(c, "parties", func() error {
		return f.Write(c.Writer)
	})
}

// ExportItems 导出工装台账
// GET /api/v1/export/items
func (h *ExportHandler) ExportItems(c *gin.Context) {
	f, err := h.exportService.ExportItems(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	defer f.Close()
	writeExcel(c, "items", func() error {
		return f.Write(c.Writer)
	})
}

func openUploadFile(c *gin.Context) (interface {
	Read(p []byte) (int, error)
	Close() error
}, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, "缺少file字段")
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		Fail(c, http.StatusBadRequest, "无法读取上传文件")
		return nil, false
	}
	return f, true
}

// ValidatePartyImport 校验往来单位导入文件
// POST /api/v1/import/parties/validate
func (h *ExportHandler) ValidatePartyImport(c *gin.Context) {
	f, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer f.Close()

	result, err := h.exportService.ValidatePartyImport(c.Request.Context(), f)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, result)
}

// ImportParties 导入往来单位
// POST /api/v1/import/parties
func (h *ExportHandler) ImportParties(c *gin.Context) {
	f, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer f.Close()

	result, err := h.exportService.ImportParties(c.Request.Context(), CurrentUserID(c), f)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, result)
}

// ValidateItemImport 校验工装导入文件
// POST /api/v1/import/items/validate
func (h *ExportHandler) ValidateItemImport(c *gin.Context) {
	f, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer f.Close()

	result, err := h.exportService.ValidateItemImport(c.Request.Context(), f)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, result)
}

// ImportItems 导入工装
// POST /api/v1/import/items
func (h *ExportHandler) ImportItems(c *gin.Context) {
	f, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer f.Close()

	result, err := h.exportService.ImportItems(c.Request.Context(), CurrentUserID(c), f)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, result)
}
