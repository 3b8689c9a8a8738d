package entity

import "time"

// Item 工装台账（模具/木模）
// MainPartName 是永久唯一标识，登记后不再变更；CurrentName 通过变更流程修改。
type Item struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	MainPartName string `json:"main_part_name" gorm:"size:100;uniqueIndex;not null"`
	CurrentName  string `json:"current_name" gorm:"size:100;not null"`
	DrawingNo    string `json:"drawing_no" gorm:"size:100"`
	RevisionNo   string `json:"revision_no" gorm:"size:32"`

	// 主数据关联
	ItemTypeID   string `json:"item_type_id" gorm:"size:32;not null"`
	MaterialID   string `json:"material_id" gorm:"size:32;not null"`
	OwnerTypeID  string `json:"owner_type_id" gorm:"size:32;not null"`
	ItemStatusID string `json:"item_status_id" gorm:"size:32;not null"`

	// 当前流程与持有方。持有方二选一：location 对应 CurrentLocationID，vendor 对应 CurrentPartyID
	CurrentProcess    string  `json:"current_process" gorm:"size:20;not null;default:not_in_stock"`
	CurrentHolderType string  `json:"current_holder_type" gorm:"size:20"` // location/vendor
	CurrentLocationID *string `json:"current_location_id" gorm:"size:32"`
	CurrentPartyID    *string `json:"current_party_id" gorm:"size:32"`

	DrawingURL string `json:"drawing_url" gorm:"size:512"`
	Remarks    string `json:"remarks" gorm:"type:text"`

	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	ItemType        *ItemType   `json:"item_type,omitempty" gorm:"foreignKey:ItemTypeID"`
	Material        *Material   `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
	OwnerType       *OwnerType  `json:"owner_type,omitempty" gorm:"foreignKey:OwnerTypeID"`
	ItemStatus      *ItemStatus `json:"item_status,omitempty" gorm:"foreignKey:ItemStatusID"`
	CurrentLocation *Location   `json:"current_location,omitempty" gorm:"foreignKey:CurrentLocationID"`
	CurrentParty    *Party      `json:"current_party,omitempty" gorm:"foreignKey:CurrentPartyID"`
}

func (Item) TableName() string {
	return "items"
}

// 工装流程状态
const (
	ProcessNotInStock = "not_in_stock"
	ProcessPIIssued   = "pi_issued"
	ProcessPOIssued   = "po_issued"
	ProcessInInward   = "in_inward"
	ProcessInQC       = "in_qc"
	ProcessInOutward  = "in_outward"
	ProcessInStock    = "in_stock"
)

// 持有方类型
const (
	HolderTypeLocation = "location"
	HolderTypeVendor   = "vendor"
)

// 变更类型
const (
	ChangeTypeModification = "modification"
	ChangeTypeRepair       = "repair"
)

// ItemChangeLog 工装变更记录（名称/版本号变更流程）
type ItemChangeLog struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ItemID        string    `json:"item_id" gorm:"size:32;not null;index"`
	ChangeType    string    `json:"change_type" gorm:"size:20;not null"` // modification/repair
	OldName       string    `json:"old_name" gorm:"size:100"`
	NewName       string    `json:"new_name" gorm:"size:100"`
	OldRevisionNo string    `json:"old_revision_no" gorm:"size:32"`
	NewRevisionNo string    `json:"new_revision_no" gorm:"size:32"`
	Remarks       string    `json:"remarks" gorm:"type:text"`
	ChangedBy     string    `json:"changed_by" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ItemChangeLog) TableName() string {
	return "item_change_logs"
}
