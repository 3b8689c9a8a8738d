package entity

import "time"

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	PONo    string `json:"po_no" gorm:"size:32;uniqueIndex;not null"`
	PartyID string `json:"party_id" gorm:"size:32;not null;index"`
	Status  string `json:"status" gorm:"size:20;default:pending"` // pending/approved/rejected

	DeliveryDate *time.Time `json:"delivery_date"`
	Remarks      string     `json:"remarks" gorm:"type:text"`

	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 关联
	Items []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Party *Party              `json:"party,omitempty" gorm:"foreignKey:PartyID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// 采购订单状态
const (
	OrderStatusPending  = "pending"
	OrderStatusApproved = "approved"
	OrderStatusRejected = "rejected"
)

// PurchaseOrderItem 采购订单行项。
// PurchaseIndentItemID 唯一索引保证同一请购行项只能被一张订单引用（防止重复下单）。
type PurchaseOrderItem struct {
	ID                   string `json:"id" gorm:"primaryKey;size:32"`
	PurchaseOrderID      string `json:"purchase_order_id" gorm:"size:32;not null;index"`
	PurchaseIndentItemID string `json:"purchase_indent_item_id" gorm:"size:32;not null;uniqueIndex"`
	ItemID               string `json:"item_id" gorm:"size:32;not null;index"`

	MainPartName string  `json:"main_part_name" gorm:"size:100"`
	ItemName     string  `json:"item_name" gorm:"size:100"`
	Rate         float64 `json:"rate" gorm:"type:decimal(12,2);not null"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	IndentItem *PurchaseIndentItem `json:"indent_item,omitempty" gorm:"foreignKey:PurchaseIndentItemID"`
}

func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}
