package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// OK 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// OKPage 分页成功响应
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	OK(c, PageData{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
	})
}

// FailErr 按业务错误分类映射HTTP状态码
func FailErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrAlreadyOrdered),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDependencyConflict):
		Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrInvalidHolderState):
		Fail(c, http.StatusBadRequest, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}

// ParsePagination 解析分页参数
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return
}

// CurrentUserID 从上下文取当前用户ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
