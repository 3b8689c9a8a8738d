package handler

import (
	"net/http"
	"time"

	"github.com/Sohel-786/die-pattern-sub003/internal/shared/storage"
	"github.com/gin-gonic/gin"
)

// UploadHandler 附件上传接口（图纸等）
type UploadHandler struct {
	storage *storage.Storage
}

func NewUploadHandler(storage *storage.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// RegisterRoutes 注册上传路由
func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	r.POST("/uploads", can("can_upload_files"), h.Upload)
	r.GET("/uploads/url", can("can_view_items"), h.DownloadURL)
}

// UploadedFile 上传文件信息
type UploadedFile struct {
	ObjectName  string `json:"object_name"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Upload 上传附件
// POST /api/v1/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, "缺少file字段")
		return
	}

	src, err := fh.Open()
	if err != nil {
		Fail(c, http.StatusBadRequest, "无法读取上传文件")
		return
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	objectName, err := h.storage.Upload(c.Request.Context(), src, fh.Filename, fh.Size, contentType)
	if err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	url, err := h.storage.PresignedURL(c.Request.Context(), objectName, 24*time.Hour)
	if err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	Created(c, UploadedFile{
		ObjectName:  objectName,
		URL:         url,
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: contentType,
	})
}

// DownloadURL 获取附件临时下载链接
// GET /api/v1/uploads/url?object_name=...
func (h *UploadHandler) DownloadURL(c *gin.Context) {
	objectName := c.Query("object_name")
	if objectName == "" {
		Fail(c, http.StatusBadRequest, "缺少object_name参数")
		return
	}

	url, err := h.storage.PresignedURL(c.Request.Context(), objectName, 24*time.Hour)
	if err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	OK(c, gin.H{"url": url})
}
