package handler

import (
	"net/http"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
	"github.com/gin-gonic/gin"
)

// MasterHandler 主数据接口
type MasterHandler struct {
	masterService *service.MasterService
}

func NewMasterHandler(masterService *service.MasterService) *MasterHandler {
	return &MasterHandler{masterService: masterService}
}

// RegisterRoutes 注册主数据路由，can 为能力位门禁工厂
func (h *MasterHandler) RegisterRoutes(r *gin.RouterGroup, can func(flag string) gin.HandlerFunc) {
	view := can("can_view_masters")
	edit := can("can_edit_masters")

	r.GET("/companies", view, h.ListCompanies)
	r.POST("/companies", edit, h.CreateCompany)
	r.PUT("/companies/:id", edit, h.UpdateCompany)
	r.POST("/companies/:id/deactivate", edit, h.DeactivateCompany)

	r.GET("/locations", view, h.ListLocations)
	r.POST("/locations", edit, h.CreateLocation)
	r.PUT("/locations/:id", edit, h.UpdateLocation)
	r.POST("/locations/:id/deactivate", edit, h.DeactivateLocation)

	r.GET("/parties", view, h.ListParties)
	r.GET("/parties/:id", view, h.GetParty)
	r.POST("/parties", edit, h.CreateParty)
	r.PUT("/parties/:id", edit, h.UpdateParty)
	r.POST("/parties/:id/deactivate", edit, h.DeactivateParty)

	r.GET("/item-types", view, h.ListItemTypes)
	r.POST("/item-types", edit, h.CreateItemType)
	r.PUT("/item-types/:id", edit, h.UpdateItemType)

	r.GET("/materials", view, h.ListMaterials)
	r.POST("/materials", edit, h.CreateMaterial)
	r.PUT("/materials/:id", edit, h.UpdateMaterial)

	r.GET("/owner-types", view, h.ListOwnerTypes)
	r.POST("/owner-types", edit, h.CreateOwnerType)
	r.PUT("/owner-types/:id", edit, h.UpdateOwnerType)

	r.GET("/item-statuses", view, h.ListItemStatuses)
	r.POST("/item-statuses", edit, h.CreateItemStatus)
	r.PUT("/item-statuses/:id", edit, h.UpdateItemStatus)

	r.GET("/settings", can("can_manage_settings"), h.ListSettings)
	r.PUT("/settings", can("can_manage_settings"), h.SaveSetting)
}

func includeInactive(c *gin.Context) bool {
	return c.Query("include_inactive") == "true"
}

// === 公司 ===

// ListCompanies 公司列表
// GET /api/v1/companies
func (h *MasterHandler) ListCompanies(c *gin.Context) {
	items, err := h.masterService.ListCompanies(c.Request.Context(), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateCompany 新建公司
// POST /api/v1/companies
func (h *MasterHandler) CreateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	company, err := h.masterService.CreateCompany(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, company)
}

// UpdateCompany 更新公司
// PUT /api/v1/companies/:id
func (h *MasterHandler) UpdateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	company, err := h.masterService.UpdateCompany(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, company)
}

// DeactivateCompany 停用公司
// POST /api/v1/companies/:id/deactivate
func (h *MasterHandler) DeactivateCompany(c *gin.Context) {
	if err := h.masterService.DeactivateCompany(c.Request.Context(), c.Param("id"), CurrentUserID(c)); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}

// === 地点 ===

// ListLocations 地点列表
// GET /api/v1/locations
func (h *MasterHandler) ListLocations(c *gin.Context) {
	items, err := h.masterService.ListLocations(c.Request.Context(), c.Query("company_id"), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateLocation 新建地点
// POST /api/v1/locations
func (h *MasterHandler) CreateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	location, err := h.masterService.CreateLocation(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, location)
}

// UpdateLocation 更新地点
// PUT /api/v1/locations/:id
func (h *MasterHandler) UpdateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	location, err := h.masterService.UpdateLocation(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, location)
}

// DeactivateLocation 停用地点
// POST /api/v1/locations/:id/deactivate
func (h *MasterHandler) DeactivateLocation(c *gin.Context) {
	if err := h.masterService.DeactivateLocation(c.Request.Context(), c.Param("id"), CurrentUserID(c)); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}

// === 往来单位 ===

// ListParties 往来单位列表
// GET /api/v1/parties
func (h *MasterHandler) ListParties(c *gin.Context) {
	items, err := h.masterService.ListParties(c.Request.Context(), c.Query("search"), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// GetParty 往来单位详情
// GET /api/v1/parties/:id
func (h *MasterHandler) GetParty(c *gin.Context) {
	party, err := h.masterService.GetParty(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, party)
}

// CreateParty 新建往来单位
// POST /api/v1/parties
func (h *MasterHandler) CreateParty(c *gin.Context) {
	var req service.PartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	party, err := h.masterService.CreateParty(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, party)
}

// UpdateParty 更新往来单位
// PUT /api/v1/parties/:id
func (h *MasterHandler) UpdateParty(c *gin.Context) {
	var req service.PartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	party, err := h.masterService.UpdateParty(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, party)
}

// DeactivateParty 停用往来单位
// POST /api/v1/parties/:id/deactivate
func (h *MasterHandler) DeactivateParty(c *gin.Context) {
	if err := h.masterService.DeactivateParty(c.Request.Context(), c.Param("id"), CurrentUserID(c)); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, nil)
}

// === 字典表 ===

// ListItemTypes 工装类型列表
// GET /api/v1/item-types
func (h *MasterHandler) ListItemTypes(c *gin.Context) {
	items, err := h.masterService.ListItemTypes(c.Request.Context(), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateItemType 新建工装类型
// POST /api/v1/item-types
func (h *MasterHandler) CreateItemType(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	t, err := h.masterService.CreateItemType(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, t)
}

// UpdateItemType 更新工装类型
// PUT /api/v1/item-types/:id
func (h *MasterHandler) UpdateItemType(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	t, err := h.masterService.UpdateItemType(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, t)
}

// ListMaterials 材质列表
// GET /api/v1/materials
func (h *MasterHandler) ListMaterials(c *gin.Context) {
	items, err := h.masterService.ListMaterials(c.Request.Context(), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateMaterial 新建材质
// POST /api/v1/materials
func (h *MasterHandler) CreateMaterial(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.masterService.CreateMaterial(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, m)
}

// UpdateMaterial 更新材质
// PUT /api/v1/materials/:id
func (h *MasterHandler) UpdateMaterial(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.masterService.UpdateMaterial(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, m)
}

// ListOwnerTypes 产权归属列表
// GET /api/v1/owner-types
func (h *MasterHandler) ListOwnerTypes(c *gin.Context) {
	items, err := h.masterService.ListOwnerTypes(c.Request.Context(), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateOwnerType 新建产权归属
// POST /api/v1/owner-types
func (h *MasterHandler) CreateOwnerType(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.masterService.CreateOwnerType(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, o)
}

// UpdateOwnerType 更新产权归属
// PUT /api/v1/owner-types/:id
func (h *MasterHandler) UpdateOwnerType(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.masterService.UpdateOwnerType(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, o)
}

// ListItemStatuses 工装状态列表
// GET /api/v1/item-statuses
func (h *MasterHandler) ListItemStatuses(c *gin.Context) {
	items, err := h.masterService.ListItemStatuses(c.Request.Context(), includeInactive(c))
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// CreateItemStatus 新建工装状态
// POST /api/v1/item-statuses
func (h *MasterHandler) CreateItemStatus(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.masterService.CreateItemStatus(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	Created(c, st)
}

// UpdateItemStatus 更新工装状态
// PUT /api/v1/item-statuses/:id
func (h *MasterHandler) UpdateItemStatus(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.masterService.UpdateItemStatus(c.Request.Context(), c.Param("id"), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, st)
}

// === 系统参数 ===

// ListSettings 系统参数列表
// GET /api/v1/settings
func (h *MasterHandler) ListSettings(c *gin.Context) {
	items, err := h.masterService.ListSettings(c.Request.Context())
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, items)
}

// SaveSetting 写入系统参数
// PUT /api/v1/settings
func (h *MasterHandler) SaveSetting(c *gin.Context) {
	var req service.SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	setting, err := h.masterService.SaveSetting(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		FailErr(c, err)
		return
	}
	OK(c, setting)
}
