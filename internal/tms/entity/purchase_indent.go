package entity

import "time"

// PurchaseIndent 请购单
type PurchaseIndent struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	PINo   string `json:"pi_no" gorm:"size:32;uniqueIndex;not null"`
	Type   string `json:"type" gorm:"size:20;not null"`           // new/repair
	Status string `json:"status" gorm:"size:20;default:pending"` // pending/approved/rejected

	Remarks    string     `json:"remarks" gorm:"type:text"`
	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 关联
	Items []PurchaseIndentItem `json:"items,omitempty" gorm:"foreignKey:PurchaseIndentID;constraint:OnDelete:CASCADE"`
}

func (PurchaseIndent) TableName() string {
	return "purchase_indents"
}

// 请购单状态
const (
	IndentStatusPending  = "pending"
	IndentStatusApproved = "approved"
	IndentStatusRejected = "rejected"
)

// 请购类型
const (
	IndentTypeNew    = "new"
	IndentTypeRepair = "repair"
)

// PurchaseIndentItem 请购单行项。同一工装在同一张请购单内只允许出现一次。
type PurchaseIndentItem struct {
	ID               string `json:"id" gorm:"primaryKey;size:32"`
	PurchaseIndentID string `json:"purchase_indent_id" gorm:"size:32;not null;uniqueIndex:idx_indent_item"`
	ItemID           string `json:"item_id" gorm:"size:32;not null;uniqueIndex:idx_indent_item"`

	// 登记时快照，主数据后续变更不影响历史单据
	MainPartName string `json:"main_part_name" gorm:"size:100"`
	ItemName     string `json:"item_name" gorm:"size:100"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (PurchaseIndentItem) TableName() string {
	return "purchase_indent_items"
}
