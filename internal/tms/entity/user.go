package entity

import "time"

// User 用户
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:100;not null"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:200"`
	Mobile       string     `json:"mobile" gorm:"size:20"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Permission *UserPermission `json:"permission,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// UserPermission 用户权限（与用户一对一）。
// 扁平布尔能力位，无层级无继承；NavigationLayout 仅供前端使用，服务端不解释。
type UserPermission struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	UserID string `json:"user_id" gorm:"size:32;not null;uniqueIndex"`

	// 主数据
	CanViewMasters bool `json:"can_view_masters" gorm:"not null;default:false"`
	CanEditMasters bool `json:"can_edit_masters" gorm:"not null;default:false"`

	// 工装台账
	CanViewItems       bool `json:"can_view_items" gorm:"not null;default:false"`
	CanCreateItems     bool `json:"can_create_items" gorm:"not null;default:false"`
	CanEditItems       bool `json:"can_edit_items" gorm:"not null;default:false"`
	CanChangeProcess   bool `json:"can_change_process" gorm:"not null;default:false"`
	CanDeactivateItems bool `json:"can_deactivate_items" gorm:"not null;default:false"`

	// 请购
	CanViewIndents    bool `json:"can_view_indents" gorm:"not null;default:false"`
	CanCreateIndents  bool `json:"can_create_indents" gorm:"not null;default:false"`
	CanApproveIndents bool `json:"can_approve_indents" gorm:"not null;default:false"`

	// 采购订单
	CanViewOrders    bool `json:"can_view_orders" gorm:"not null;default:false"`
	CanCreateOrders  bool `json:"can_create_orders" gorm:"not null;default:false"`
	CanApproveOrders bool `json:"can_approve_orders" gorm:"not null;default:false"`

	// 入库
	CanViewInwards   bool `json:"can_view_inwards" gorm:"not null;default:false"`
	CanCreateInwards bool `json:"can_create_inwards" gorm:"not null;default:false"`
	CanSubmitInwards bool `json:"can_submit_inwards" gorm:"not null;default:false"`

	// 质检
	CanViewQC   bool `json:"can_view_qc" gorm:"not null;default:false"`
	CanDecideQC bool `json:"can_decide_qc" gorm:"not null;default:false"`

	// 移转
	CanViewMovements   bool `json:"can_view_movements" gorm:"not null;default:false"`
	CanCreateMovements bool `json:"can_create_movements" gorm:"not null;default:false"`

	// 数据与报表
	CanViewReports bool `json:"can_view_reports" gorm:"not null;default:false"`
	CanExportData  bool `json:"can_export_data" gorm:"not null;default:false"`
	CanImportData  bool `json:"can_import_data" gorm:"not null;default:false"`
	CanUploadFiles bool `json:"can_upload_files" gorm:"not null;default:false"`

	// 系统管理
	CanViewUsers            bool `json:"can_view_users" gorm:"not null;default:false"`
	CanManageUsers          bool `json:"can_manage_users" gorm:"not null;default:false"`
	CanManagePermissions    bool `json:"can_manage_permissions" gorm:"not null;default:false"`
	CanManageLocationAccess bool `json:"can_manage_location_access" gorm:"not null;default:false"`
	CanViewAuditLogs        bool `json:"can_view_audit_logs" gorm:"not null;default:false"`
	CanManageSettings       bool `json:"can_manage_settings" gorm:"not null;default:false"`

	NavigationLayout string `json:"navigation_layout" gorm:"size:50;default:sidebar"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}

// Flag 按能力位名称取值，名称与JSON字段一致
func (p *UserPermission) Flag(name string) bool {
	switch name {
	case "can_view_masters":
		return p.CanViewMasters
	case "can_edit_masters":
		return p.CanEditMasters
	case "can_view_items":
		return p.CanViewItems
	case "can_create_items":
		return p.CanCreateItems
	case "can_edit_items":
		return p.CanEditItems
	case "can_change_process":
		return p.CanChangeProcess
	case "can_deactivate_items":
		return p.CanDeactivateItems
	case "can_view_indents":
		return p.CanViewIndents
	case "can_create_indents":
		return p.CanCreateIndents
	case "can_approve_indents":
		return p.CanApproveIndents
	case "can_view_orders":
		return p.CanViewOrders
	case "can_create_orders":
		return p.CanCreateOrders
	case "can_approve_orders":
		return p.CanApproveOrders
	case "can_view_inwards":
		return p.CanViewInwards
	case "can_create_inwards":
		return p.CanCreateInwards
	case "can_submit_inwards":
		return p.CanSubmitInwards
	case "can_view_qc":
		return p.CanViewQC
	case "can_decide_qc":
		return p.CanDecideQC
	case "can_view_movements":
		return p.CanViewMovements
	case "can_create_movements":
		return p.CanCreateMovements
	case "can_view_reports":
		return p.CanViewReports
	case "can_export_data":
		return p.CanExportData
	case "can_import_data":
		return p.CanImportData
	case "can_upload_files":
		return p.CanUploadFiles
	case "can_view_users":
		return p.CanViewUsers
	case "can_manage_users":
		return p.CanManageUsers
	case "can_manage_permissions":
		return p.CanManagePermissions
	case "can_manage_location_access":
		return p.CanManageLocationAccess
	case "can_view_audit_logs":
		return p.CanViewAuditLogs
	case "can_manage_settings":
		return p.CanManageSettings
	}
	return false
}

// GrantAll 授予全部能力位（内置管理员初始化用）
func (p *UserPermission) GrantAll() {
	p.CanViewMasters = true
	p.CanEditMasters = true
	p.CanViewItems = true
	p.CanCreateItems = true
	p.CanEditItems = true
	p.CanChangeProcess = true
	p.CanDeactivateItems = true
	p.CanViewIndents = true
	p.CanCreateIndents = true
	p.CanApproveIndents = true
	p.CanViewOrders = true
	p.CanCreateOrders = true
	p.CanApproveOrders = true
	p.CanViewInwards = true
	p.CanCreateInwards = true
	p.CanSubmitInwards = true
	p.CanViewQC = true
	p.CanDecideQC = true
	p.CanViewMovements = true
	p.CanCreateMovements = true
	p.CanViewReports = true
	p.CanExportData = true
	p.CanImportData = true
	p.CanUploadFiles = true
	p.CanViewUsers = true
	p.CanManageUsers = true
	p.CanManagePermissions = true
	p.CanManageLocationAccess = true
	p.CanViewAuditLogs = true
	p.CanManageSettings = true
}

// UserLocationAccess 用户可操作的公司/地点，三元组唯一
type UserLocationAccess struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	UserID     string    `json:"user_id" gorm:"size:32;not null;uniqueIndex:idx_user_location"`
	CompanyID  string    `json:"company_id" gorm:"size:32;not null;uniqueIndex:idx_user_location"`
	LocationID string    `json:"location_id" gorm:"size:32;not null;uniqueIndex:idx_user_location"`
	CreatedAt  time.Time `json:"created_at"`

	Company  *Company  `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

func (UserLocationAccess) TableName() string {
	return "user_location_access"
}
