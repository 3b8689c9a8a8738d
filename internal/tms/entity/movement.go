package entity

import "time"

// Movement 移转台账。只追加不修改：更正通过记录反向移转（system_return）完成，
// 唯一的例外是质检通过时回写质检标记。
type Movement struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Type   string `json:"type" gorm:"size:20;not null;index"` // inward/outward/system_return
	ItemID string `json:"item_id" gorm:"size:32;not null;index"`

	FromType       string  `json:"from_type" gorm:"size:20"` // location/vendor
	FromLocationID *string `json:"from_location_id" gorm:"size:32"`
	FromPartyID    *string `json:"from_party_id" gorm:"size:32"`
	ToType         string  `json:"to_type" gorm:"size:20"`
	ToLocationID   *string `json:"to_location_id" gorm:"size:32"`
	ToPartyID      *string `json:"to_party_id" gorm:"size:32"`

	IsQCPending  bool `json:"is_qc_pending" gorm:"not null;default:false"`
	IsQCApproved bool `json:"is_qc_approved" gorm:"not null;default:false"`

	// 关联单据（inward/po/outward等）
	RefType string `json:"ref_type" gorm:"size:20;index:idx_movement_ref"`
	RefID   string `json:"ref_id" gorm:"size:32;index:idx_movement_ref"`

	Reason    string    `json:"reason" gorm:"size:200"`
	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (Movement) TableName() string {
	return "movements"
}

// 移转类型
const (
	MovementTypeInward       = "inward"
	MovementTypeOutward      = "outward"
	MovementTypeSystemReturn = "system_return"
)

// 移转关联单据类型
const (
	MovementRefInward  = "inward"
	MovementRefOutward = "outward"
	MovementRefManual  = "manual"
)
