package entity

import "time"

// AppSetting 系统参数（键值对）
type AppSetting struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Key       string    `json:"key" gorm:"size:100;uniqueIndex;not null"`
	Value     string    `json:"value" gorm:"type:text"`
	Remarks   string    `json:"remarks" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}

// Company 公司
type Company struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Address   string    `json:"address" gorm:"size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Locations []Location `json:"locations,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string {
	return "companies"
}

// Location 存放地点（工厂/仓库/车间）
type Location struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	CompanyID string    `json:"company_id" gorm:"size:32;not null;index"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Address   string    `json:"address" gorm:"size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Location) TableName() string {
	return "locations"
}

// Party 往来单位（供应商/外协厂）
type Party struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Code          string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"size:200;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:100"`
	Phone         string    `json:"phone" gorm:"size:50"`
	Email         string    `json:"email" gorm:"size:200"`
	Address       string    `json:"address" gorm:"size:500"`
	GSTNo         string    `json:"gst_no" gorm:"size:50"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Party) TableName() string {
	return "parties"
}

// ItemType 工装类型（模具/木模/检具等）
type ItemType struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Remarks   string    `json:"remarks" gorm:"size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ItemType) TableName() string {
	return "item_types"
}

// Material 材质
type Material struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Remarks   string    `json:"remarks" gorm:"size:500"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Material) TableName() string {
	return "materials"
}

// OwnerType 产权归属类型（自有/客户/供应商）
type OwnerType struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OwnerType) TableName() string {
	return "owner_types"
}

// ItemStatus 工装状态字典（可用/维修中/报废等）
type ItemStatus struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ItemStatus) TableName() string {
	return "item_statuses"
}
