package service

import (
	"context"
	"fmt"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/entity"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/google/uuid"
)

// MasterService 主数据服务（公司/地点/往来单位/字典表/系统参数）。
// 所有主数据只停用不删除，停用前做引用检查。
type MasterService struct {
	companyRepo  *repository.CompanyRepository
	locationRepo *repository.LocationRepository
	partyRepo    *repository.PartyRepository
	lookupRepo   *repository.LookupRepository
	settingRepo  *repository.AppSettingRepository
	auditRepo    *repository.AuditLogRepository
}

func NewMasterService(
	companyRepo *repository.CompanyRepository,
	locationRepo *repository.LocationRepository,
	partyRepo *repository.PartyRepository,
	lookupRepo *repository.LookupRepository,
	settingRepo *repository.AppSettingRepository,
	auditRepo *repository.AuditLogRepository,
) *MasterService {
	return &MasterService{
		companyRepo:  companyRepo,
		locationRepo: locationRepo,
		partyRepo:    partyRepo,
		lookupRepo:   lookupRepo,
		settingRepo:  settingRepo,
		auditRepo:    auditRepo,
	}
}

// === 公司 ===

func (s *MasterService) ListCompanies(ctx context.Context, includeInactive bool) ([]entity.Company, error) {
	return s.companyRepo.FindAll(ctx, includeInactive)
}

// CompanyRequest 公司创建/更新请求
type CompanyRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

func (s *MasterService) CreateCompany(ctx context.Context, userID string, req *CompanyRequest) (*entity.Company, error) {
	c := &entity.Company{
		ID:       uuid.New().String()[:32],
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.companyRepo.Create(ctx, c); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 公司编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "company", c.ID, c.Code, "create", "", "", "新建公司: "+c.Name, userID, "")
	return c, nil
}

func (s *MasterService) UpdateCompany(ctx context.Context, id, userID string, req *CompanyRequest) (*entity.Company, error) {
	c, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	c.Code = req.Code
	c.Name = req.Name
	c.Address = req.Address
	if err := s.companyRepo.Update(ctx, c); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 公司编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "company", c.ID, c.Code, "update", "", "", "公司信息更新", userID, "")
	return c, nil
}

// DeactivateCompany 停用公司。存在启用地点时拒绝。
func (s *MasterService) DeactivateCompany(ctx context.Context, id, userID string) error {
	c, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	n, err := s.companyRepo.CountLocations(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: 公司下仍有%d个启用地点", ErrDependencyConflict, n)
	}
	c.IsActive = false
	if err := s.companyRepo.Update(ctx, c); err != nil {
		return err
	}
	s.auditRepo.LogAction(ctx, "company", c.ID, c.Code, "deactivate", "", "", "公司停用", userID, "")
	return nil
}

// === 地点 ===

func (s *MasterService) ListLocations(ctx context.Context, companyID string, includeInactive bool) ([]entity.Location, error) {
	return s.locationRepo.FindAll(ctx, companyID, includeInactive)
}

// LocationRequest 地点创建/更新请求
type LocationRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
}

func (s *MasterService) CreateLocation(ctx context.Context, userID string, req *LocationRequest) (*entity.Location, error) {
	if _, err := s.companyRepo.FindByID(ctx, req.CompanyID); err != nil {
		return nil, fmt.Errorf("%w: 公司不存在", ErrValidation)
	}
	l := &entity.Location{
		ID:        uuid.New().String()[:32],
		CompanyID: req.CompanyID,
		Code:      req.Code,
		Name:      req.Name,
		Address:   req.Address,
		IsActive:  true,
	}
	if err := s.locationRepo.Create(ctx, l); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 地点编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "location", l.ID, l.Code, "create", "", "", "新建地点: "+l.Name, userID, "")
	return l, nil
}

func (s *MasterService) UpdateLocation(ctx context.Context, id, userID string, req *LocationRequest) (*entity.Location, error) {
	l, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	l.CompanyID = req.CompanyID
	l.Code = req.Code
	l.Name = req.Name
	l.Address = req.Address
	if err := s.locationRepo.Update(ctx, l); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 地点编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "location", l.ID, l.Code, "update", "", "", "地点信息更新", userID, "")
	return l, nil
}

// DeactivateLocation 停用地点。有在库工装或未提交入库单时拒绝。
func (s *MasterService) DeactivateLocation(ctx context.Context, id, userID string) error {
	l, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	n, err := s.locationRepo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: 地点仍被%d条在库/在途记录引用", ErrDependencyConflict, n)
	}
	l.IsActive = false
	if err := s.locationRepo.Update(ctx, l); err != nil {
		return err
	}
	s.auditRepo.LogAction(ctx, "location", l.ID, l.Code, "deactivate", "", "", "地点停用", userID, "")
	return nil
}

// === 往来单位 ===

func (s *MasterService) ListParties(ctx context.Context, search string, includeInactive bool) ([]entity.Party, error) {
	return s.partyRepo.FindAll(ctx, search, includeInactive)
}

func (s *MasterService) GetParty(ctx context.Context, id string) (*entity.Party, error) {
	p, err := s.partyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// PartyRequest 往来单位创建/更新请求
type PartyRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GSTNo         string `json:"gst_no"`
}

func (s *MasterService) CreateParty(ctx context.Context, userID string, req *PartyRequest) (*entity.Party, error) {
	p := &entity.Party{
		ID:            uuid.New().String()[:32],
		Code:          req.Code,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		GSTNo:         req.GSTNo,
		IsActive:      true,
	}
	if err := s.partyRepo.Create(ctx, p); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 往来单位编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "party", p.ID, p.Code, "create", "", "", "新建往来单位: "+p.Name, userID, "")
	return p, nil
}

func (s *MasterService) UpdateParty(ctx context.Context, id, userID string, req *PartyRequest) (*entity.Party, error) {
	p, err := s.partyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	p.Code = req.Code
	p.Name = req.Name
	p.ContactPerson = req.ContactPerson
	p.Phone = req.Phone
	p.Email = req.Email
	p.Address = req.Address
	p.GSTNo = req.GSTNo
	if err := s.partyRepo.Update(ctx, p); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 往来单位编码 %s 已存在", ErrDuplicateKey, req.Code)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "party", p.ID, p.Code, "update", "", "", "往来单位更新", userID, "")
	return p, nil
}

// DeactivateParty 停用往来单位。有待审订单或在供应商处的工装时拒绝。
func (s *MasterService) DeactivateParty(ctx context.Context, id, userID string) error {
	p, err := s.partyRepo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	n, err := s.partyRepo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: 往来单位仍被%d条单据/持有记录引用", ErrDependencyConflict, n)
	}
	p.IsActive = false
	if err := s.partyRepo.Update(ctx, p); err != nil {
		return err
	}
	s.auditRepo.LogAction(ctx, "party", p.ID, p.Code, "deactivate", "", "", "往来单位停用", userID, "")
	return nil
}

// === 字典表 ===

// LookupRequest 字典项创建/更新请求
type LookupRequest struct {
	Name     string `json:"name" binding:"required"`
	Remarks  string `json:"remarks"`
	IsActive *bool  `json:"is_active"`
}

func (s *MasterService) ListItemTypes(ctx context.Context, includeInactive bool) ([]entity.ItemType, error) {
	return s.lookupRepo.FindItemTypes(ctx, includeInactive)
}

func (s *MasterService) CreateItemType(ctx context.Context, userID string, req *LookupRequest) (*entity.ItemType, error) {
	t := &entity.ItemType{
		ID:       uuid.New().String()[:32],
		Name:     req.Name,
		Remarks:  req.Remarks,
		IsActive: true,
	}
	if err := s.lookupRepo.CreateItemType(ctx, t); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 工装类型 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "item_type", t.ID, t.Name, "create", "", "", "新建工装类型", userID, "")
	return t, nil
}

func (s *MasterService) UpdateItemType(ctx context.Context, id, userID string, req *LookupRequest) (*entity.ItemType, error) {
	t, err := s.lookupRepo.FindItemTypeByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	t.Name = req.Name
	t.Remarks = req.Remarks
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.lookupRepo.UpdateItemType(ctx, t); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 工装类型 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "item_type", t.ID, t.Name, "update", "", "", "工装类型更新", userID, "")
	return t, nil
}

func (s *MasterService) ListMaterials(ctx context.Context, includeInactive bool) ([]entity.Material, error) {
	return s.lookupRepo.FindMaterials(ctx, includeInactive)
}

func (s *MasterService) CreateMaterial(ctx context.Context, userID string, req *LookupRequest) (*entity.Material, error) {
	m := &entity.Material{
		ID:       uuid.New().String()[:32],
		Name:     req.Name,
		Remarks:  req.Remarks,
		IsActive: true,
	}
	if err := s.lookupRepo.CreateMaterial(ctx, m); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 材质 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "material", m.ID, m.Name, "create", "", "", "新建材质", userID, "")
	return m, nil
}

func (s *MasterService) UpdateMaterial(ctx context.Context, id, userID string, req *LookupRequest) (*entity.Material, error) {
	m, err := s.lookupRepo.FindMaterialByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	m.Name = req.Name
	m.Remarks = req.Remarks
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := s.lookupRepo.UpdateMaterial(ctx, m); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 材质 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "material", m.ID, m.Name, "update", "", "", "材质更新", userID, "")
	return m, nil
}

func (s *MasterService) ListOwnerTypes(ctx context.Context, includeInactive bool) ([]entity.OwnerType, error) {
	return s.lookupRepo.FindOwnerTypes(ctx, includeInactive)
}

func (s *MasterService) CreateOwnerType(ctx context.Context, userID string, req *LookupRequest) (*entity.OwnerType, error) {
	o := &entity.OwnerType{
		ID:       uuid.New().String()[:32],
		Name:     req.Name,
		IsActive: true,
	}
	if err := s.lookupRepo.CreateOwnerType(ctx, o); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 产权归属 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "owner_type", o.ID, o.Name, "create", "", "", "新建产权归属", userID, "")
	return o, nil
}

func (s *MasterService) UpdateOwnerType(ctx context.Context, id, userID string, req *LookupRequest) (*entity.OwnerType, error) {
	o, err := s.lookupRepo.FindOwnerTypeByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	o.Name = req.Name
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}
	if err := s.lookupRepo.UpdateOwnerType(ctx, o); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 产权归属 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "owner_type", o.ID, o.Name, "update", "", "", "产权归属更新", userID, "")
	return o, nil
}

func (s *MasterService) ListItemStatuses(ctx context.Context, includeInactive bool) ([]entity.ItemStatus, error) {
	return s.lookupRepo.FindItemStatuses(ctx, includeInactive)
}

func (s *MasterService) CreateItemStatus(ctx context.Context, userID string, req *LookupRequest) (*entity.ItemStatus, error) {
	st := &entity.ItemStatus{
		ID:       uuid.New().String()[:32],
		Name:     req.Name,
		IsActive: true,
	}
	if err := s.lookupRepo.CreateItemStatus(ctx, st); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 工装状态 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "item_status", st.ID, st.Name, "create", "", "", "新建工装状态", userID, "")
	return st, nil
}

func (s *MasterService) UpdateItemStatus(ctx context.Context, id, userID string, req *LookupRequest) (*entity.ItemStatus, error) {
	st, err := s.lookupRepo.FindItemStatusByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	st.Name = req.Name
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := s.lookupRepo.UpdateItemStatus(ctx, st); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, fmt.Errorf("%w: 工装状态 %s 已存在", ErrDuplicateKey, req.Name)
		}
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "item_status", st.ID, st.Name, "update", "", "", "工装状态更新", userID, "")
	return st, nil
}

// === 系统参数 ===

func (s *MasterService) ListSettings(ctx context.Context) ([]entity.AppSetting, error) {
	return s.settingRepo.FindAll(ctx)
}

// SettingRequest 系统参数写入请求
type SettingRequest struct {
	Key     string `json:"key" binding:"required"`
	Value   string `json:"value"`
	Remarks string `json:"remarks"`
}

func (s *MasterService) SaveSetting(ctx context.Context, userID string, req *SettingRequest) (*entity.AppSetting, error) {
	setting := &entity.AppSetting{
		ID:      uuid.New().String()[:32],
		Key:     req.Key,
		Value:   req.Value,
		Remarks: req.Remarks,
	}
	if err := s.settingRepo.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	s.auditRepo.LogAction(ctx, "app_setting", setting.ID, req.Key, "upsert", "", "", "系统参数写入: "+req.Key, userID, "")
	return s.settingRepo.FindByKey(ctx, req.Key)
}
